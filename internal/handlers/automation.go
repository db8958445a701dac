package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/pkg/dto"
)

// AutomationHandler serves the key-authenticated integration surface.
// Requests act on behalf of the project's creator, since a key carries no
// user identity of its own.
type AutomationHandler struct {
	taskService    TaskServiceInterface
	projectService *services.ProjectService
}

func NewAutomationHandler(taskService TaskServiceInterface, projectService *services.ProjectService) *AutomationHandler {
	return &AutomationHandler{
		taskService:    taskService,
		projectService: projectService,
	}
}

func (h *AutomationHandler) actingUser(c *drift.Context, ctx context.Context) (uuid.UUID, uuid.UUID, bool) {
	projectID := middleware.GetAPIKeyProjectID(c)
	if projectID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, uuid.Nil, false
	}
	project, err := h.projectService.GetByID(ctx, projectID)
	if err != nil {
		c.NotFound("project not found")
		return uuid.Nil, uuid.Nil, false
	}
	return projectID, project.CreatedBy, true
}

func (h *AutomationHandler) ListTasks(c *drift.Context) {
	ctx := context.Background()

	projectID, _, ok := h.actingUser(c, ctx)
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

func (h *AutomationHandler) CreateTask(c *drift.Context) {
	ctx := context.Background()

	projectID, actorID, ok := h.actingUser(c, ctx)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Title == "" {
		c.BadRequest("title is required")
		return
	}

	task, err := h.taskService.Create(ctx, services.CreateTaskInput{
		ProjectID:   &projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}, actorID, services.TransitionOptions{})
	if err != nil {
		respondServiceError(c, err, "failed to create task")
		return
	}

	_ = c.JSON(201, toTaskResponse(task))
}

func (h *AutomationHandler) TransitionTask(c *drift.Context) {
	ctx := context.Background()

	projectID, actorID, ok := h.actingUser(c, ctx)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	task, err := h.taskService.GetByID(ctx, taskID)
	if err != nil || task.ProjectID == nil || *task.ProjectID != projectID {
		c.NotFound("task not found")
		return
	}

	var req dto.TransitionTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Status == "" {
		c.BadRequest("status is required")
		return
	}

	updated, entries, err := h.taskService.Transition(ctx, taskID, req.Status, actorID, services.TransitionOptions{})
	if err != nil {
		respondServiceError(c, err, "failed to move task")
		return
	}

	_ = c.JSON(200, toTransitionResponse(updated, entries))
}
