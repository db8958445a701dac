package dto

import "github.com/google/uuid"

type CreateTaskRequest struct {
	ProjectID   *uuid.UUID  `json:"project_id,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      string      `json:"status,omitempty"`
	Priority    string      `json:"priority,omitempty"`
	AssigneeIDs []uuid.UUID `json:"assignee_ids,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

type TransitionTaskRequest struct {
	Status string `json:"status"`
}

type AssignTaskRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type TaskResponse struct {
	ID          uuid.UUID     `json:"id"`
	ProjectID   *uuid.UUID    `json:"project_id,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      string        `json:"status"`
	Priority    string        `json:"priority"`
	CreatedBy   uuid.UUID     `json:"created_by"`
	Assignees   []AssigneeRef `json:"assignees,omitempty"`
	Version     int           `json:"version"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

// AssigneeRef carries an assignee's id and, when the caller asked for
// expansion, the full user.
type AssigneeRef struct {
	ID   uuid.UUID     `json:"id"`
	User *UserResponse `json:"user,omitempty"`
}

// TransitionTaskResponse carries the updated task together with the history
// entries the transition appended, so clients get both in one round trip.
type TransitionTaskResponse struct {
	Task    TaskResponse          `json:"task"`
	History []TaskHistoryResponse `json:"history,omitempty"`
}

type TaskHistoryResponse struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	Action    string    `json:"action"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ActorID   uuid.UUID `json:"actor_id"`
	CreatedAt string    `json:"created_at"`
}
