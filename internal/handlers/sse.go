package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/permissions"
	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/services"
)

type SSEHandler struct {
	hub            *realtime.Hub
	projectService *services.ProjectService
	userService    UserServiceInterface
}

func NewSSEHandler(hub *realtime.Hub, projectService *services.ProjectService, userService UserServiceInterface) *SSEHandler {
	return &SSEHandler{
		hub:            hub,
		projectService: projectService,
		userService:    userService,
	}
}

// Connect opens the event stream. The client receives a session id on
// connect and sends it back on mutating requests so fan-out skips this
// stream. Every session starts subscribed to its own user channel.
func (h *SSEHandler) Connect(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	user, err := h.userService.GetByID(context.Background(), userID)
	if err != nil {
		c.Unauthorized("not authenticated")
		return
	}

	sseCtx := c.SSE()

	sessionID := uuid.New().String()
	client := &realtime.Client{
		ID:        sessionID,
		UserID:    userID,
		UserName:  user.Name,
		AvatarURL: user.AvatarURL,
		Channels:  map[string]bool{realtime.UserChannel(userID): true},
		Send:      make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":       "connected",
		"session_id": sessionID,
	}, "system", ""); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		<-c.Request.Context().Done()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// Subscribe adds the session to a project's broadcast channel after
// checking the caller can see the board.
func (h *SSEHandler) Subscribe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.BadRequest("session id is required")
		return
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	ctx := context.Background()

	project, err := h.projectService.GetByID(ctx, projectID)
	if err != nil {
		c.NotFound("project not found")
		return
	}
	actor, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("not authenticated")
		return
	}
	if !permissions.CanViewTask(actor, nil, project) {
		c.NotFound("project not found")
		return
	}

	h.hub.Subscribe(sessionID, realtime.ProjectChannel(projectID))

	_ = c.JSON(200, map[string]string{"message": "subscribed"})
}

func (h *SSEHandler) Unsubscribe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.BadRequest("session id is required")
		return
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	h.hub.Unsubscribe(sessionID, realtime.ProjectChannel(projectID))

	_ = c.JSON(200, map[string]string{"message": "unsubscribed"})
}
