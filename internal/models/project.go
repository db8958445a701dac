package models

import (
	"time"

	"github.com/google/uuid"
)

// Project visibility levels.
const (
	VisibilityPrivate      = "private"
	VisibilityTeam         = "team"
	VisibilityOrganization = "organization"
	VisibilityPublic       = "public"
)

// Per-project roles.
const (
	ProjectRoleAdmin  = "admin"
	ProjectRoleMember = "member"
	ProjectRoleViewer = "viewer"
)

// Column is one workflow stage on a project's board. ID is the canonical
// identifier task statuses resolve to; Name is the display form.
type Column struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Project struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	OrganizationID *uuid.UUID      `json:"organization_id,omitempty"`
	TeamID         *uuid.UUID      `json:"team_id,omitempty"`
	Visibility     string          `json:"visibility"`
	CreatedBy      uuid.UUID       `json:"created_by"`
	Columns        []Column        `json:"columns"`
	Version        int             `json:"version"`
	Members        []ProjectMember `json:"members,omitempty"`
	ArchivedAt     *time.Time      `json:"archived_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// MemberRole returns userID's explicit role on the project. The creator has
// admin-equivalent rights even when absent from Members.
func (p *Project) MemberRole(userID uuid.UUID) (string, bool) {
	if p.CreatedBy == userID {
		return ProjectRoleAdmin, true
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

type ProjectMember struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	AddedBy   uuid.UUID `json:"added_by"`
	AddedAt   time.Time `json:"added_at"`
	User      *User     `json:"user,omitempty"`
}
