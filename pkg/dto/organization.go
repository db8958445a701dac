package dto

import "github.com/google/uuid"

type CreateOrganizationRequest struct {
	Name              string `json:"name"`
	DefaultVisibility string `json:"default_visibility,omitempty"`
	RequireApproval   bool   `json:"require_approval,omitempty"`
}

type UpdateOrganizationRequest struct {
	Name              string `json:"name"`
	DefaultVisibility string `json:"default_visibility,omitempty"`
	RequireApproval   *bool  `json:"require_approval,omitempty"`
}

type OrganizationResponse struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	OwnerID           uuid.UUID   `json:"owner_id"`
	DefaultVisibility string      `json:"default_visibility"`
	RequireApproval   bool        `json:"require_approval"`
	AdminIDs          []uuid.UUID `json:"admin_ids,omitempty"`
	CreatedAt         string      `json:"created_at"`
}

type InviteRequest struct {
	Email string `json:"email"`
}

type InviteResponse struct {
	ID             uuid.UUID             `json:"id"`
	OrganizationID uuid.UUID             `json:"organization_id"`
	Email          string                `json:"email"`
	Status         string                `json:"status"`
	CreatedAt      string                `json:"created_at"`
	Organization   *OrganizationResponse `json:"organization,omitempty"`
}
