package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/pkg/dto"
)

type TeamHandler struct {
	teamService *services.TeamService
	orgService  *services.OrganizationService
	userService UserServiceInterface
}

func NewTeamHandler(teamService *services.TeamService, orgService *services.OrganizationService, userService UserServiceInterface) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
		orgService:  orgService,
		userService: userService,
	}
}

// canManage reports whether the caller may administer the team: super
// admins, the organization's admins, and the team lead.
func (h *TeamHandler) canManage(c *drift.Context, team *models.Team) bool {
	userID := middleware.GetUserID(c)
	if middleware.GetUserRole(c) == models.RoleSuperAdmin {
		return true
	}
	if team.LeadID == userID {
		return true
	}
	org, err := h.orgService.GetByID(context.Background(), team.OrganizationID)
	if err != nil {
		return false
	}
	return org.IsAdmin(userID)
}

func (h *TeamHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateTeamRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}
	if req.OrganizationID == uuid.Nil {
		c.BadRequest("organization_id is required")
		return
	}

	ctx := context.Background()

	org, err := h.orgService.GetByID(ctx, req.OrganizationID)
	if err != nil {
		c.NotFound("organization not found")
		return
	}
	if middleware.GetUserRole(c) != models.RoleSuperAdmin && !org.IsAdmin(userID) {
		c.Forbidden("only organization admins can create teams")
		return
	}

	team, err := h.teamService.Create(ctx, req.OrganizationID, req.Name, userID)
	if err != nil {
		if errors.Is(err, services.ErrTeamNameTaken) {
			_ = c.JSON(409, map[string]any{
				"code":    "NAME_TAKEN",
				"message": "a team with this name already exists in the organization",
			})
			return
		}
		respondServiceError(c, err, "failed to create team")
		return
	}

	_ = c.JSON(201, toTeamResponse(team))
}

func (h *TeamHandler) Get(c *drift.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid team id")
		return
	}

	team, err := h.teamService.GetByID(context.Background(), teamID)
	if err != nil {
		c.NotFound("team not found")
		return
	}

	_ = c.JSON(200, toTeamResponse(team))
}

func (h *TeamHandler) ListByOrganization(c *drift.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid organization id")
		return
	}

	teams, err := h.teamService.GetByOrganization(context.Background(), orgID)
	if err != nil {
		c.InternalServerError("failed to get teams")
		return
	}

	response := make([]dto.TeamResponse, len(teams))
	for i := range teams {
		response[i] = toTeamResponse(&teams[i])
	}
	_ = c.JSON(200, response)
}

func (h *TeamHandler) Update(c *drift.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid team id")
		return
	}

	ctx := context.Background()

	team, err := h.teamService.GetByID(ctx, teamID)
	if err != nil {
		c.NotFound("team not found")
		return
	}
	if !h.canManage(c, team) {
		c.Forbidden("only the team lead or organization admins can update the team")
		return
	}

	var req dto.UpdateTeamRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	updated, err := h.teamService.Update(ctx, teamID, req.Name)
	if err != nil {
		respondServiceError(c, err, "failed to update team")
		return
	}

	_ = c.JSON(200, toTeamResponse(updated))
}

func (h *TeamHandler) Archive(c *drift.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid team id")
		return
	}

	ctx := context.Background()

	team, err := h.teamService.GetByID(ctx, teamID)
	if err != nil {
		c.NotFound("team not found")
		return
	}
	if !h.canManage(c, team) {
		c.Forbidden("only the team lead or organization admins can archive the team")
		return
	}

	if err := h.teamService.Archive(ctx, teamID); err != nil {
		respondServiceError(c, err, "failed to archive team")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "team archived"})
}

// Delete removes the team permanently. Reserved for super admins.
func (h *TeamHandler) Delete(c *drift.Context) {
	if middleware.GetUserRole(c) != models.RoleSuperAdmin {
		c.Forbidden("only super admins can delete teams")
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid team id")
		return
	}

	if err := h.teamService.Delete(context.Background(), teamID); err != nil {
		respondServiceError(c, err, "failed to delete team")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "team deleted"})
}

func (h *TeamHandler) GetMembers(c *drift.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid team id")
		return
	}

	members, err := h.teamService.GetMembers(context.Background(), teamID)
	if err != nil {
		c.InternalServerError("failed to get members")
		return
	}

	response := make([]dto.TeamMemberResponse, len(members))
	for i, m := range members {
		r := dto.TeamMemberResponse{UserID: m.UserID, Role: m.Role}
		if m.User != nil {
			r.User = toUserResponse(m.User)
		}
		response[i] = r
	}
	_ = c.JSON(200, response)
}

func (h *TeamHandler) AddMember(c *drift.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid team id")
		return
	}

	var req dto.AddTeamMemberRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.UserID == uuid.Nil {
		c.BadRequest("user_id is required")
		return
	}

	role := req.Role
	if role == "" {
		role = models.TeamRoleMember
	}
	switch role {
	case models.TeamRoleLead, models.TeamRoleMember, models.TeamRoleViewer:
	default:
		c.BadRequest("unknown team role: " + role)
		return
	}

	ctx := context.Background()

	team, err := h.teamService.GetByID(ctx, teamID)
	if err != nil {
		c.NotFound("team not found")
		return
	}
	if !h.canManage(c, team) {
		c.Forbidden("only the team lead or organization admins can add members")
		return
	}

	if err := h.teamService.AddMember(ctx, teamID, req.UserID, role); err != nil {
		respondServiceError(c, err, "failed to add member")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "member added"})
}

func (h *TeamHandler) RemoveMember(c *drift.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid team id")
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	ctx := context.Background()

	team, err := h.teamService.GetByID(ctx, teamID)
	if err != nil {
		c.NotFound("team not found")
		return
	}
	if !h.canManage(c, team) {
		c.Forbidden("only the team lead or organization admins can remove members")
		return
	}

	if err := h.teamService.RemoveMember(ctx, teamID, userID); err != nil {
		if errors.Is(err, services.ErrCannotRemoveOwner) {
			c.BadRequest("cannot remove the team lead")
			return
		}
		respondServiceError(c, err, "failed to remove member")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "member removed"})
}
