// Package reconcile implements the client-side optimistic state layer: a
// drag is applied to the local board immediately, confirmed against the
// server's authoritative response, and rolled back to its drag-start
// snapshot when the server rejects it.
package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrTaskUnknown    = errors.New("task not present on board")
	ErrUpdateInFlight = errors.New("a transition for this client is already in flight")
)

// Card is the board's local view of one task.
type Card struct {
	TaskID  uuid.UUID
	Status  string
	Version int
}

// TransitionFunc sends a transition to the server and returns the
// authoritative task state. Implementations are expected to set the
// suppress-reemit marker on the request they issue.
type TransitionFunc func(ctx context.Context, taskID uuid.UUID, status string) (Card, error)

// Drag is the snapshot captured the moment a drag starts. A failed drop
// reverts to this snapshot, never to an intermediate state produced by
// rapid successive drags.
type Drag struct {
	TaskID        uuid.UUID
	OriginStatus  string
	OriginVersion int
}

// Board holds the client's local view of a set of tasks keyed by id. One
// transition may be in flight at a time; overlapping rapid toggles would
// otherwise race each other into out-of-order writes.
type Board struct {
	mu         sync.Mutex
	cards      map[uuid.UUID]Card
	inFlight   bool
	transition TransitionFunc
}

func NewBoard(transition TransitionFunc) *Board {
	return &Board{
		cards:      make(map[uuid.UUID]Card),
		transition: transition,
	}
}

// Load replaces the board's view of a task with server state.
func (b *Board) Load(card Card) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cards[card.TaskID] = card
}

// Remove drops a task from the local view.
func (b *Board) Remove(taskID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.cards, taskID)
}

// Card returns a copy of the board's current view of the task.
func (b *Board) Card(taskID uuid.UUID) (Card, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.cards[taskID]
	return c, ok
}

// StartDrag captures the revert point for a drag gesture.
func (b *Board) StartDrag(taskID uuid.UUID) (*Drag, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	card, ok := b.cards[taskID]
	if !ok {
		return nil, ErrTaskUnknown
	}
	return &Drag{
		TaskID:        taskID,
		OriginStatus:  card.Status,
		OriginVersion: card.Version,
	}, nil
}

// Drop applies the drag optimistically, issues the transition, and
// reconciles. On success the local card is replaced with the authoritative
// response. On any surfaced failure the card reverts to the drag-start
// status and the error is returned for the caller to present as retryable.
func (b *Board) Drop(ctx context.Context, drag *Drag, targetStatus string) error {
	b.mu.Lock()
	card, ok := b.cards[drag.TaskID]
	if !ok {
		b.mu.Unlock()
		return ErrTaskUnknown
	}
	if b.inFlight {
		b.mu.Unlock()
		return ErrUpdateInFlight
	}
	b.inFlight = true

	// Optimistic apply: the card moves before the server answers.
	card.Status = targetStatus
	b.cards[drag.TaskID] = card
	b.mu.Unlock()

	authoritative, err := b.transition(ctx, drag.TaskID, targetStatus)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFlight = false

	if err != nil {
		if current, ok := b.cards[drag.TaskID]; ok {
			current.Status = drag.OriginStatus
			b.cards[drag.TaskID] = current
		}
		return err
	}

	b.cards[drag.TaskID] = authoritative
	return nil
}

// ApplyRemote merges a task_moved notification from another session. Stale
// events (version at or below the local view) are discarded; a locally
// in-flight transition also wins over the remote event, since the server
// response that resolves it is newer than anything broadcast before it.
func (b *Board) ApplyRemote(taskID uuid.UUID, newStatus string, version int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inFlight {
		return
	}
	card, ok := b.cards[taskID]
	if !ok {
		return
	}
	if version <= card.Version {
		return
	}
	card.Status = newStatus
	card.Version = version
	b.cards[taskID] = card
}
