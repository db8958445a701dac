package dto

import "github.com/google/uuid"

type CreateProjectRequest struct {
	Name           string     `json:"name"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	TeamID         *uuid.UUID `json:"team_id,omitempty"`
	Visibility     string     `json:"visibility,omitempty"`
}

type UpdateProjectRequest struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility,omitempty"`
}

type AddProjectMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role,omitempty"`
}

type AddColumnRequest struct {
	Name string `json:"name"`
}

type ColumnResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ProjectResponse struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	OrganizationID *uuid.UUID       `json:"organization_id,omitempty"`
	TeamID         *uuid.UUID       `json:"team_id,omitempty"`
	Visibility     string           `json:"visibility"`
	Columns        []ColumnResponse `json:"columns"`
	Version        int              `json:"version"`
	CreatedBy      uuid.UUID        `json:"created_by"`
	CreatedAt      string           `json:"created_at"`
}

type ProjectMemberResponse struct {
	UserID uuid.UUID    `json:"user_id"`
	Role   string       `json:"role"`
	User   UserResponse `json:"user"`
}
