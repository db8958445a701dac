package dto

import "github.com/google/uuid"

type CreateTeamRequest struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
}

type UpdateTeamRequest struct {
	Name string `json:"name"`
}

type AddTeamMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role,omitempty"`
}

type TeamResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	LeadID         uuid.UUID `json:"lead_id"`
	CreatedAt      string    `json:"created_at"`
}

type TeamMemberResponse struct {
	UserID uuid.UUID    `json:"user_id"`
	Role   string       `json:"role"`
	User   UserResponse `json:"user"`
}
