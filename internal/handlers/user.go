package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/pkg/dto"
)

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	user, err := h.userService.GetByID(context.Background(), userID)
	if err != nil {
		c.NotFound("user not found")
		return
	}

	_ = c.JSON(200, toUserResponse(user))
}

func (h *UserHandler) Update(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	user, err := h.userService.Update(context.Background(), userID, req.Name)
	if err != nil {
		c.InternalServerError("failed to update user")
		return
	}

	_ = c.JSON(200, toUserResponse(user))
}

// SetRole changes another user's global role. Only super admins may call it.
func (h *UserHandler) SetRole(c *drift.Context) {
	if middleware.GetUserRole(c) != models.RoleSuperAdmin {
		c.Forbidden("only super admins can change roles")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	var req dto.SetRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	switch req.Role {
	case models.RoleSuperAdmin, models.RoleOrgAdmin, models.RoleTeamLead, models.RoleMember, models.RoleViewer:
	default:
		c.BadRequest("unknown role: " + req.Role)
		return
	}

	if err := h.userService.SetRole(context.Background(), targetID, req.Role); err != nil {
		respondServiceError(c, err, "failed to set role")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "role updated"})
}

func (h *UserHandler) SetStatus(c *drift.Context) {
	if middleware.GetUserRole(c) != models.RoleSuperAdmin {
		c.Forbidden("only super admins can change account status")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	var req dto.SetStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	switch req.Status {
	case models.StatusActive, models.StatusInactive, models.StatusSuspended:
	default:
		c.BadRequest("unknown status: " + req.Status)
		return
	}

	if err := h.userService.SetStatus(context.Background(), targetID, req.Status); err != nil {
		respondServiceError(c, err, "failed to set status")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "status updated"})
}
