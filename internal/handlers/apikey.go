package handlers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/permissions"
	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/pkg/dto"
)

type APIKeyHandler struct {
	apiKeyService  *services.APIKeyService
	projectService *services.ProjectService
	userService    UserServiceInterface
}

func NewAPIKeyHandler(apiKeyService *services.APIKeyService, projectService *services.ProjectService, userService UserServiceInterface) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyService:  apiKeyService,
		projectService: projectService,
		userService:    userService,
	}
}

// canManageKeys restricts key management to callers who can administer the
// project board.
func (h *APIKeyHandler) canManageKeys(c *drift.Context, projectID uuid.UUID) (*models.Project, bool) {
	ctx := context.Background()

	project, err := h.projectService.GetByID(ctx, projectID)
	if err != nil {
		c.NotFound("project not found")
		return nil, false
	}
	actor, err := h.userService.GetByID(ctx, middleware.GetUserID(c))
	if err != nil {
		c.Unauthorized("not authenticated")
		return nil, false
	}
	if !permissions.CanEditTask(actor, nil, project) {
		c.Forbidden("you do not have permission to manage api keys")
		return nil, false
	}
	return project, true
}

func (h *APIKeyHandler) Create(c *drift.Context) {
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

	if _, ok := h.canManageKeys(c, projectID); !ok {
		return
	}

	var req dto.CreateAPIKeyRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.BadRequest("name is required")
		return
	}

	apiKey, plainKey, err := h.apiKeyService.Create(context.Background(), projectID, req.Name, userID, req.ExpiresAt)
	if err != nil {
		c.InternalServerError("failed to create api key")
		return
	}

	_ = c.JSON(201, dto.APIKeyCreatedResponse{
		ID:        apiKey.ID,
		Name:      apiKey.Name,
		Key:       plainKey,
		KeyPrefix: apiKey.KeyPrefix,
		ExpiresAt: timeStringPtr(apiKey.ExpiresAt),
		CreatedAt: timeString(apiKey.CreatedAt),
	})
}

func (h *APIKeyHandler) List(c *drift.Context) {
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

	if _, ok := h.canManageKeys(c, projectID); !ok {
		return
	}

	keys, err := h.apiKeyService.List(context.Background(), projectID)
	if err != nil {
		c.InternalServerError("failed to list api keys")
		return
	}

	response := make([]dto.APIKeyResponse, len(keys))
	for i, k := range keys {
		response[i] = dto.APIKeyResponse{
			ID:         k.ID,
			Name:       k.Name,
			KeyPrefix:  k.KeyPrefix,
			ExpiresAt:  timeStringPtr(k.ExpiresAt),
			LastUsedAt: timeStringPtr(k.LastUsedAt),
			CreatedAt:  timeString(k.CreatedAt),
		}
	}
	_ = c.JSON(200, response)
}

func (h *APIKeyHandler) Revoke(c *drift.Context) {
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
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return
	}

	if _, ok := h.canManageKeys(c, projectID); !ok {
		return
	}

	if err := h.apiKeyService.Revoke(context.Background(), keyID, projectID); err != nil {
		c.NotFound("api key not found")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "api key revoked"})
}
