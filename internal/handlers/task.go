package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/pkg/dto"
)

type TaskHandler struct {
	taskService TaskServiceInterface
}

func NewTaskHandler(taskService TaskServiceInterface) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func opts(c *drift.Context) services.TransitionOptions {
	return services.TransitionOptions{SessionID: middleware.GetSessionID(c)}
}

func (h *TaskHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
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

	task, err := h.taskService.Create(context.Background(), services.CreateTaskInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeIDs: req.AssigneeIDs,
	}, userID, opts(c))
	if err != nil {
		respondServiceError(c, err, "failed to create task")
		return
	}

	_ = c.JSON(201, toTaskResponse(task))
}

func (h *TaskHandler) Get(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	task, err := h.taskService.GetForViewer(context.Background(), taskID, userID)
	if err != nil {
		c.NotFound("task not found")
		return
	}

	_ = c.JSON(200, toTaskResponse(task))
}

// Personal lists the caller's project-less tasks.
func (h *TaskHandler) Personal(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	tasks, err := h.taskService.GetPersonal(context.Background(), userID)
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

func (h *TaskHandler) Update(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	task, _, err := h.taskService.Update(context.Background(), taskID, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}, userID, opts(c))
	if err != nil {
		respondServiceError(c, err, "failed to update task")
		return
	}

	_ = c.JSON(200, toTaskResponse(task))
}

// Transition moves the task to another workflow column.
func (h *TaskHandler) Transition(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
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

	task, entries, err := h.taskService.Transition(context.Background(), taskID, req.Status, userID, opts(c))
	if err != nil {
		respondServiceError(c, err, "failed to move task")
		return
	}

	_ = c.JSON(200, toTransitionResponse(task, entries))
}

func (h *TaskHandler) Assign(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	var req dto.AssignTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.UserID == uuid.Nil {
		c.BadRequest("user_id is required")
		return
	}

	if err := h.taskService.Assign(context.Background(), taskID, req.UserID, userID, opts(c)); err != nil {
		respondServiceError(c, err, "failed to assign task")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "task assigned"})
}

func (h *TaskHandler) Unassign(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}
	assigneeID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	if err := h.taskService.Unassign(context.Background(), taskID, assigneeID, userID, opts(c)); err != nil {
		respondServiceError(c, err, "failed to unassign task")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "task unassigned"})
}

// History returns the task's audit trail, oldest first.
func (h *TaskHandler) History(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	entries, err := h.taskService.History(context.Background(), taskID, userID)
	if err != nil {
		respondServiceError(c, err, "failed to get history")
		return
	}

	response := make([]dto.TaskHistoryResponse, len(entries))
	for i := range entries {
		response[i] = toHistoryResponse(&entries[i])
	}
	_ = c.JSON(200, response)
}

// AssignablePersonal lists who the caller may assign personal tasks to.
func (h *TaskHandler) AssignablePersonal(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	users, err := h.taskService.AssignableUsers(context.Background(), userID, nil)
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

func (h *TaskHandler) Archive(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	if err := h.taskService.Archive(context.Background(), taskID, userID, opts(c)); err != nil {
		respondServiceError(c, err, "failed to archive task")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "task archived"})
}

func (h *TaskHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	if err := h.taskService.Delete(context.Background(), taskID, userID); err != nil {
		respondServiceError(c, err, "failed to delete task")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "task deleted"})
}
