package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/permissions"
	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/pkg/dto"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	taskService    TaskServiceInterface
	userService    UserServiceInterface
}

func NewProjectHandler(projectService *services.ProjectService, taskService TaskServiceInterface, userService UserServiceInterface) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		taskService:    taskService,
		userService:    userService,
	}
}

// loadWithAccess fetches the project and verifies the caller may at least
// view it.
func (h *ProjectHandler) loadWithAccess(c *drift.Context, ctx context.Context, projectID uuid.UUID) (*models.Project, *models.User, bool) {
	project, err := h.projectService.GetByID(ctx, projectID)
	if err != nil {
		c.NotFound("project not found")
		return nil, nil, false
	}
	actor, err := h.userService.GetByID(ctx, middleware.GetUserID(c))
	if err != nil {
		c.Unauthorized("not authenticated")
		return nil, nil, false
	}
	if !permissions.CanViewTask(actor, nil, project) {
		c.NotFound("project not found")
		return nil, nil, false
	}
	return project, actor, true
}

func (h *ProjectHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	switch visibility {
	case models.VisibilityPrivate, models.VisibilityTeam, models.VisibilityOrganization, models.VisibilityPublic:
	default:
		c.BadRequest("unknown visibility: " + visibility)
		return
	}

	project, err := h.projectService.Create(context.Background(), services.CreateProjectInput{
		Name:           req.Name,
		OrganizationID: req.OrganizationID,
		TeamID:         req.TeamID,
		Visibility:     visibility,
	}, userID)
	if err != nil {
		respondServiceError(c, err, "failed to create project")
		return
	}

	_ = c.JSON(201, toProjectResponse(project))
}

func (h *ProjectHandler) Get(c *drift.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	project, _, ok := h.loadWithAccess(c, context.Background(), projectID)
	if !ok {
		return
	}

	_ = c.JSON(200, toProjectResponse(project))
}

func (h *ProjectHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	ctx := context.Background()

	actor, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("not authenticated")
		return
	}

	projects, err := h.projectService.GetForUser(ctx, userID, actor.OrganizationID)
	if err != nil {
		c.InternalServerError("failed to get projects")
		return
	}

	response := make([]dto.ProjectResponse, len(projects))
	for i := range projects {
		response[i] = toProjectResponse(&projects[i])
	}
	_ = c.JSON(200, response)
}

func (h *ProjectHandler) Update(c *drift.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	ctx := context.Background()

	project, actor, ok := h.loadWithAccess(c, ctx, projectID)
	if !ok {
		return
	}
	if !permissions.CanEditTask(actor, nil, project) {
		c.Forbidden("you do not have permission to update this project")
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	name := req.Name
	if name == "" {
		name = project.Name
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = project.Visibility
	}

	updated, err := h.projectService.Update(ctx, projectID, name, visibility)
	if err != nil {
		respondServiceError(c, err, "failed to update project")
		return
	}

	_ = c.JSON(200, toProjectResponse(updated))
}

func (h *ProjectHandler) Archive(c *drift.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	ctx := context.Background()

	project, actor, ok := h.loadWithAccess(c, ctx, projectID)
	if !ok {
		return
	}
	if !permissions.CanEditTask(actor, nil, project) {
		c.Forbidden("you do not have permission to archive this project")
		return
	}

	if err := h.projectService.Archive(ctx, projectID); err != nil {
		respondServiceError(c, err, "failed to archive project")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "project archived"})
}

// Delete removes the project and everything under it. Reserved for super admins.
func (h *ProjectHandler) Delete(c *drift.Context) {
	if middleware.GetUserRole(c) != models.RoleSuperAdmin {
		c.Forbidden("only super admins can delete projects")
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	if err := h.projectService.Delete(context.Background(), projectID); err != nil {
		respondServiceError(c, err, "failed to delete project")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "project deleted"})
}

func (h *ProjectHandler) GetMembers(c *drift.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	project, _, ok := h.loadWithAccess(c, context.Background(), projectID)
	if !ok {
		return
	}

	response := make([]dto.ProjectMemberResponse, len(project.Members))
	for i, m := range project.Members {
		r := dto.ProjectMemberResponse{UserID: m.UserID, Role: m.Role}
		if m.User != nil {
			r.User = toUserResponse(m.User)
		}
		response[i] = r
	}
	_ = c.JSON(200, response)
}

func (h *ProjectHandler) AddMember(c *drift.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	var req dto.AddProjectMemberRequest
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
		role = models.ProjectRoleMember
	}
	switch role {
	case models.ProjectRoleAdmin, models.ProjectRoleMember, models.ProjectRoleViewer:
	default:
		c.BadRequest("unknown project role: " + role)
		return
	}

	ctx := context.Background()

	project, actor, ok := h.loadWithAccess(c, ctx, projectID)
	if !ok {
		return
	}
	if !permissions.CanEditTask(actor, nil, project) {
		c.Forbidden("you do not have permission to manage members")
		return
	}

	if err := h.projectService.AddMember(ctx, projectID, req.UserID, role, actor.ID); err != nil {
		respondServiceError(c, err, "failed to add member")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "member added"})
}

func (h *ProjectHandler) RemoveMember(c *drift.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	ctx := context.Background()

	project, actor, ok := h.loadWithAccess(c, ctx, projectID)
	if !ok {
		return
	}
	if !permissions.CanEditTask(actor, nil, project) {
		c.Forbidden("you do not have permission to manage members")
		return
	}

	if err := h.projectService.RemoveMember(ctx, projectID, userID); err != nil {
		respondServiceError(c, err, "failed to remove member")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "member removed"})
}

// AddColumn appends a custom workflow column to the project board.
func (h *ProjectHandler) AddColumn(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	var req dto.AddColumnRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	project, err := h.projectService.AddColumn(context.Background(), projectID, req.Name, userID, middleware.GetSessionID(c))
	if err != nil {
		respondServiceError(c, err, "failed to add column")
		return
	}

	_ = c.JSON(200, toProjectResponse(project))
}

// RemoveColumn deletes a custom column. Default columns and columns still
// holding tasks are rejected.
func (h *ProjectHandler) RemoveColumn(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}
	columnID := c.Param("columnId")
	if columnID == "" {
		c.BadRequest("column id is required")
		return
	}

	project, err := h.projectService.RemoveColumn(context.Background(), projectID, columnID, userID, middleware.GetSessionID(c))
	if err != nil {
		respondServiceError(c, err, "failed to remove column")
		return
	}

	_ = c.JSON(200, toProjectResponse(project))
}

// AssignableUsers lists who the caller may assign tasks to in this project.
func (h *ProjectHandler) AssignableUsers(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	users, err := h.taskService.AssignableUsers(context.Background(), userID, &projectID)
	if err != nil {
		respondServiceError(c, err, "failed to get assignable users")
		return
	}

	response := make([]dto.UserResponse, len(users))
	for i := range users {
		response[i] = toUserResponse(&users[i])
	}
	_ = c.JSON(200, response)
}

// Tasks lists the project's live tasks.
func (h *ProjectHandler) Tasks(c *drift.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	ctx := context.Background()

	_, _, ok := h.loadWithAccess(c, ctx, projectID)
	if !ok {
		return
	}

	tasks, err := h.taskService.GetForProject(ctx, projectID)
	if err != nil {
		c.InternalServerError("failed to get tasks")
		return
	}

	response := make([]dto.TaskResponse, len(tasks))
	for i := range tasks {
		response[i] = toTaskResponse(&tasks[i])
	}
	_ = c.JSON(200, response)
}
