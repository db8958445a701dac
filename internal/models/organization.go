package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

type Organization struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	OwnerID           uuid.UUID   `json:"owner_id"`
	DefaultVisibility string      `json:"default_visibility"`
	RequireApproval   bool        `json:"require_approval"`
	AdminIDs          []uuid.UUID `json:"admin_ids,omitempty"`
	ArchivedAt        *time.Time  `json:"archived_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// IsAdmin reports whether userID administers the organization. The owner is
// always implicitly an admin.
func (o *Organization) IsAdmin(userID uuid.UUID) bool {
	if o.OwnerID == userID {
		return true
	}
	for _, id := range o.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type OrganizationInvite struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	InviterID      uuid.UUID `json:"inviter_id"`
	InviteeID      uuid.UUID `json:"invitee_id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Inviter        *User     `json:"inviter,omitempty"`
	Invitee        *User     `json:"invitee,omitempty"`
}
