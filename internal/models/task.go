package models

import (
	"time"

	"github.com/google/uuid"
)

// Task priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// UserRef is an assigned-user reference that may or may not carry the full
// user record. Rows come back as bare ids; callers that need user fields
// resolve them once, right after fetch, and never branch on shape later.
type UserRef struct {
	ID   uuid.UUID `json:"id"`
	User *User     `json:"user,omitempty"`
}

func (r UserRef) Resolved() bool {
	return r.User != nil
}

type Task struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	Assignees   []UserRef  `json:"assignees"`
	Version     int        `json:"version"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) IsAssigned(userID uuid.UUID) bool {
	for _, ref := range t.Assignees {
		if ref.ID == userID {
			return true
		}
	}
	return false
}
