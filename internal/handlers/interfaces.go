package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/oauth"
	"github.com/taskhive/taskhive-api/internal/services"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error)
	SetRole(ctx context.Context, id uuid.UUID, role string) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email, role string) (*services.TokenPair, error)
	ValidateRefreshToken(tokenString string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// TaskServiceInterface defines the methods used by handlers from TaskService
type TaskServiceInterface interface {
	Create(ctx context.Context, input services.CreateTaskInput, actorID uuid.UUID, opts services.TransitionOptions) (*models.Task, error)
	GetByID(ctx context.Context, taskID uuid.UUID) (*models.Task, error)
	GetForViewer(ctx context.Context, taskID, actorID uuid.UUID) (*models.Task, error)
	GetForProject(ctx context.Context, projectID uuid.UUID) ([]models.Task, error)
	GetPersonal(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	Update(ctx context.Context, taskID uuid.UUID, patch services.UpdateTaskInput, actorID uuid.UUID, opts services.TransitionOptions) (*models.Task, []models.TaskHistoryEntry, error)
	Transition(ctx context.Context, taskID uuid.UUID, newStatus string, actorID uuid.UUID, opts services.TransitionOptions) (*models.Task, []models.TaskHistoryEntry, error)
	Assign(ctx context.Context, taskID, userID, actorID uuid.UUID, opts services.TransitionOptions) error
	Unassign(ctx context.Context, taskID, userID, actorID uuid.UUID, opts services.TransitionOptions) error
	AssignableUsers(ctx context.Context, actorID uuid.UUID, projectID *uuid.UUID) ([]models.User, error)
	History(ctx context.Context, taskID, actorID uuid.UUID) ([]models.TaskHistoryEntry, error)
	Archive(ctx context.Context, taskID, actorID uuid.UUID, opts services.TransitionOptions) error
	Delete(ctx context.Context, taskID, actorID uuid.UUID) error
}
