package models

import (
	"time"

	"github.com/google/uuid"
)

// Task history actions.
const (
	HistoryStatusChanged   = "status_changed"
	HistoryFieldChanged    = "field_changed"
	HistoryAssigneeAdded   = "assignee_added"
	HistoryAssigneeRemoved = "assignee_removed"
	HistoryTaskCreated     = "task_created"
)

// TaskHistoryEntry is append-only: rows are inserted once and never updated
// or deleted while the parent task exists. One entry per discrete field
// change, not per API call.
type TaskHistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	Action    string    `json:"action"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ActorID   uuid.UUID `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}
