package models

import (
	"time"

	"github.com/google/uuid"
)

// Global user roles, most privileged first.
const (
	RoleSuperAdmin = "super_admin"
	RoleOrgAdmin   = "org_admin"
	RoleTeamLead   = "team_lead"
	RoleMember     = "member"
	RoleViewer     = "viewer"
)

// User account statuses. A pending user was created by an organization
// invitation and has no usable credential until the invitation is accepted.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusPending   = "pending"
	StatusSuspended = "suspended"
)

type User struct {
	ID             uuid.UUID        `json:"id"`
	Email          string           `json:"email"`
	Name           string           `json:"name"`
	AvatarURL      *string          `json:"avatar_url,omitempty"`
	Provider       string           `json:"provider"`
	ProviderID     string           `json:"-"`
	Role           string           `json:"role"`
	Status         string           `json:"status"`
	OrganizationID *uuid.UUID       `json:"organization_id,omitempty"`
	Teams          []TeamMembership `json:"teams,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TeamMembership is a user's role within one team, loaded alongside the user
// so permission checks never go back to the database.
type TeamMembership struct {
	TeamID uuid.UUID `json:"team_id"`
	Role   string    `json:"role"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) InOrganization(orgID uuid.UUID) bool {
	return u.OrganizationID != nil && *u.OrganizationID == orgID
}

func (u *User) TeamRole(teamID uuid.UUID) (string, bool) {
	for _, m := range u.Teams {
		if m.TeamID == teamID {
			return m.Role, true
		}
	}
	return "", false
}
