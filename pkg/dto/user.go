package dto

import "github.com/google/uuid"

type UserResponse struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	AvatarURL      *string    `json:"avatar_url,omitempty"`
	Provider       string     `json:"provider"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
}

type UpdateUserRequest struct {
	Name string `json:"name"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}
