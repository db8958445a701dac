package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/tests/testutil"
)

func setupSSETest(t *testing.T) (*SSEHandler, pgxmock.PgxPoolIface, *testutil.MockUserService) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mockPool.Close() })

	db := &database.DB{Pool: mockPool}
	hub := realtime.NewHub()
	go hub.Run()

	mockUserService := new(testutil.MockUserService)
	users := services.NewUserService(db)
	projects := services.NewProjectService(db, users, hub)
	handler := NewSSEHandler(hub, projects, mockUserService)
	return handler, mockPool, mockUserService
}

func newSSEClient(t *testing.T, handler *SSEHandler) *testutil.HTTPTestClient {
	t.Helper()
	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestJWTService()))
	app.Post("/sse/:sessionId/subscribe/:projectId", handler.Subscribe)
	app.Post("/sse/:sessionId/unsubscribe/:projectId", handler.Unsubscribe)
	return testutil.NewHTTPTestClient(t, app)
}

func expectProjectRow(mockPool pgxmock.PgxPoolIface, project *models.Project) {
	columnsJSON, _ := json.Marshal(project.Columns)
	mockPool.ExpectQuery(`SELECT id, name, organization_id, team_id, visibility, created_by, columns, version`).
		WithArgs(project.ID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "organization_id", "team_id", "visibility", "created_by",
			"columns", "version", "archived_at", "created_at", "updated_at",
		}).AddRow(
			project.ID, project.Name, project.OrganizationID, project.TeamID,
			project.Visibility, project.CreatedBy, columnsJSON, project.Version,
			project.ArchivedAt, project.CreatedAt, project.UpdatedAt,
		))
	mockPool.ExpectQuery(`SELECT id, project_id, user_id, role, added_by, added_at`).
		WithArgs(project.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "project_id", "user_id", "role", "added_by", "added_at"}))
}

func TestSSEHandler_Subscribe_Success(t *testing.T) {
	handler, mockPool, mockUserService := setupSSETest(t)

	userID := uuid.New()
	projectID := uuid.New()
	project := &models.Project{
		ID:         projectID,
		Name:       "Apollo",
		Visibility: models.VisibilityPrivate,
		CreatedBy:  userID,
		Version:    1,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	actor := &models.User{
		ID:     userID,
		Email:  "test@example.com",
		Name:   "Test User",
		Role:   models.RoleMember,
		Status: models.StatusActive,
	}

	expectProjectRow(mockPool, project)
	mockUserService.On("GetByID", mock.Anything, userID).Return(actor, nil)

	client := newSSEClient(t, handler)
	token := testutil.GenerateTestToken(t, userID, "test@example.com", models.RoleMember)
	rec := client.POST("/sse/sess-1/subscribe/"+projectID.String(), nil,
		map[string]string{"Authorization": testutil.AuthHeader(token)})

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "subscribed")
	assert.NoError(t, mockPool.ExpectationsWereMet())
	mockUserService.AssertExpectations(t)
}

func TestSSEHandler_Subscribe_DeniedLooksLikeNotFound(t *testing.T) {
	handler, mockPool, mockUserService := setupSSETest(t)

	userID := uuid.New()
	projectID := uuid.New()
	project := &models.Project{
		ID:         projectID,
		Name:       "Apollo",
		Visibility: models.VisibilityPrivate,
		CreatedBy:  uuid.New(),
		Version:    1,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	outsider := &models.User{
		ID:     userID,
		Email:  "outsider@example.com",
		Name:   "Outsider",
		Role:   models.RoleMember,
		Status: models.StatusActive,
	}

	expectProjectRow(mockPool, project)
	mockUserService.On("GetByID", mock.Anything, userID).Return(outsider, nil)

	client := newSSEClient(t, handler)
	token := testutil.GenerateTestToken(t, userID, "outsider@example.com", models.RoleMember)
	rec := client.POST("/sse/sess-1/subscribe/"+projectID.String(), nil,
		map[string]string{"Authorization": testutil.AuthHeader(token)})

	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestSSEHandler_Subscribe_InvalidProjectID(t *testing.T) {
	handler, _, _ := setupSSETest(t)

	client := newSSEClient(t, handler)
	token := testutil.GenerateTestToken(t, uuid.New(), "test@example.com", models.RoleMember)
	rec := client.POST("/sse/sess-1/subscribe/not-a-uuid", nil,
		map[string]string{"Authorization": testutil.AuthHeader(token)})

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestSSEHandler_Subscribe_NotAuthenticated(t *testing.T) {
	handler, _, _ := setupSSETest(t)

	client := newSSEClient(t, handler)
	rec := client.POST("/sse/sess-1/subscribe/"+uuid.New().String(), nil, nil)

	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestSSEHandler_Unsubscribe_Success(t *testing.T) {
	handler, _, _ := setupSSETest(t)

	client := newSSEClient(t, handler)
	token := testutil.GenerateTestToken(t, uuid.New(), "test@example.com", models.RoleMember)
	rec := client.POST("/sse/sess-1/unsubscribe/"+uuid.New().String(), nil,
		map[string]string{"Authorization": testutil.AuthHeader(token)})

	// Unsubscribing an unknown session is a safe no-op.
	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "unsubscribed")
}
