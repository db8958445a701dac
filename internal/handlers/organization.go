package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/pkg/dto"
)

type OrganizationHandler struct {
	orgService  *services.OrganizationService
	userService UserServiceInterface
}

func NewOrganizationHandler(orgService *services.OrganizationService, userService UserServiceInterface) *OrganizationHandler {
	return &OrganizationHandler{
		orgService:  orgService,
		userService: userService,
	}
}

// canManage reports whether the caller administers the organization.
func (h *OrganizationHandler) canManage(c *drift.Context, org *models.Organization) bool {
	if middleware.GetUserRole(c) == models.RoleSuperAdmin {
		return true
	}
	return org.IsAdmin(middleware.GetUserID(c))
}

func (h *OrganizationHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateOrganizationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	org, err := h.orgService.Create(context.Background(), req.Name, userID)
	if err != nil {
		c.InternalServerError("failed to create organization")
		return
	}

	_ = c.JSON(201, toOrganizationResponse(org))
}

func (h *OrganizationHandler) Get(c *drift.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid organization id")
		return
	}

	org, err := h.orgService.GetByID(context.Background(), orgID)
	if err != nil {
		c.NotFound("organization not found")
		return
	}

	_ = c.JSON(200, toOrganizationResponse(org))
}

func (h *OrganizationHandler) Update(c *drift.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid organization id")
		return
	}

	ctx := context.Background()

	org, err := h.orgService.GetByID(ctx, orgID)
	if err != nil {
		c.NotFound("organization not found")
		return
	}
	if !h.canManage(c, org) {
		c.Forbidden("only organization admins can update the organization")
		return
	}

	var req dto.UpdateOrganizationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	name := req.Name
	if name == "" {
		name = org.Name
	}
	visibility := req.DefaultVisibility
	if visibility == "" {
		visibility = org.DefaultVisibility
	}
	requireApproval := org.RequireApproval
	if req.RequireApproval != nil {
		requireApproval = *req.RequireApproval
	}

	updated, err := h.orgService.Update(ctx, orgID, name, visibility, requireApproval)
	if err != nil {
		respondServiceError(c, err, "failed to update organization")
		return
	}

	_ = c.JSON(200, toOrganizationResponse(updated))
}

func (h *OrganizationHandler) Archive(c *drift.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid organization id")
		return
	}

	ctx := context.Background()

	org, err := h.orgService.GetByID(ctx, orgID)
	if err != nil {
		c.NotFound("organization not found")
		return
	}
	if !h.canManage(c, org) {
		c.Forbidden("only organization admins can archive the organization")
		return
	}

	if err := h.orgService.Archive(ctx, orgID); err != nil {
		respondServiceError(c, err, "failed to archive organization")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "organization archived"})
}

// Delete removes the organization permanently. Reserved for super admins.
func (h *OrganizationHandler) Delete(c *drift.Context) {
	if middleware.GetUserRole(c) != models.RoleSuperAdmin {
		c.Forbidden("only super admins can delete organizations")
		return
	}

	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid organization id")
		return
	}

	if err := h.orgService.Delete(context.Background(), orgID); err != nil {
		respondServiceError(c, err, "failed to delete organization")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "organization deleted"})
}

func (h *OrganizationHandler) GetMembers(c *drift.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid organization id")
		return
	}

	members, err := h.orgService.GetMembers(context.Background(), orgID)
	if err != nil {
		c.InternalServerError("failed to get members")
		return
	}

	response := make([]dto.UserResponse, len(members))
	for i := range members {
		response[i] = toUserResponse(&members[i])
	}
	_ = c.JSON(200, response)
}

func (h *OrganizationHandler) AddAdmin(c *drift.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid organization id")
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	ctx := context.Background()

	org, err := h.orgService.GetByID(ctx, orgID)
	if err != nil {
		c.NotFound("organization not found")
		return
	}
	if !h.canManage(c, org) {
		c.Forbidden("only organization admins can manage admins")
		return
	}

	if err := h.orgService.AddAdmin(ctx, orgID, userID); err != nil {
		respondServiceError(c, err, "failed to add admin")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "admin added"})
}

func (h *OrganizationHandler) RemoveAdmin(c *drift.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid organization id")
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	ctx := context.Background()

	org, err := h.orgService.GetByID(ctx, orgID)
	if err != nil {
		c.NotFound("organization not found")
		return
	}
	if !h.canManage(c, org) {
		c.Forbidden("only organization admins can manage admins")
		return
	}
	if userID == org.OwnerID {
		c.BadRequest("cannot remove the organization owner")
		return
	}

	if err := h.orgService.RemoveAdmin(ctx, orgID, userID); err != nil {
		respondServiceError(c, err, "failed to remove admin")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "admin removed"})
}

func (h *OrganizationHandler) Invite(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid organization id")
		return
	}

	var req dto.InviteRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Email == "" {
		c.BadRequest("email is required")
		return
	}

	ctx := context.Background()

	org, err := h.orgService.GetByID(ctx, orgID)
	if err != nil {
		c.NotFound("organization not found")
		return
	}
	if !h.canManage(c, org) {
		c.Forbidden("only organization admins can invite members")
		return
	}

	invite, err := h.orgService.InviteByEmail(ctx, orgID, userID, req.Email)
	if err != nil {
		respondServiceError(c, err, "failed to create invite")
		return
	}

	_ = c.JSON(201, dto.InviteResponse{
		ID:             invite.ID,
		OrganizationID: invite.OrganizationID,
		Email:          req.Email,
		Status:         invite.Status,
		CreatedAt:      timeString(invite.CreatedAt),
	})
}

func (h *OrganizationHandler) MyInvites(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	invites, err := h.orgService.GetUserPendingInvites(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to get invites")
		return
	}

	response := make([]dto.InviteResponse, len(invites))
	for i, inv := range invites {
		response[i] = dto.InviteResponse{
			ID:             inv.ID,
			OrganizationID: inv.OrganizationID,
			Status:         inv.Status,
			CreatedAt:      timeString(inv.CreatedAt),
		}
	}
	_ = c.JSON(200, response)
}

func (h *OrganizationHandler) AcceptInvite(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	inviteID, err := uuid.Parse(c.Param("inviteId"))
	if err != nil {
		c.BadRequest("invalid invite id")
		return
	}

	if err := h.orgService.AcceptInvite(context.Background(), inviteID, userID); err != nil {
		respondServiceError(c, err, "failed to accept invite")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "invite accepted"})
}

func (h *OrganizationHandler) DeclineInvite(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	inviteID, err := uuid.Parse(c.Param("inviteId"))
	if err != nil {
		c.BadRequest("invalid invite id")
		return
	}

	if err := h.orgService.DeclineInvite(context.Background(), inviteID, userID); err != nil {
		respondServiceError(c, err, "failed to decline invite")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "invite declined"})
}
