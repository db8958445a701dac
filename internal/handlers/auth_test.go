package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/config"
	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/oauth"
	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/pkg/dto"
	"github.com/taskhive/taskhive-api/tests/testutil"
)

func setupAuthTest(t *testing.T) (*testutil.MockUserService, *testutil.MockTokenService, *testutil.MockJWTService, *AuthHandler) {
	t.Helper()
	mockUserService := new(testutil.MockUserService)
	mockTokenService := new(testutil.MockTokenService)
	mockJWTService := new(testutil.MockJWTService)

	cfg := &config.Config{
		FrontendCallbackURL: "http://localhost:3000/auth/callback",
	}

	handler := &AuthHandler{
		cfg:          cfg,
		providers:    make(oauth.Registry),
		userService:  mockUserService,
		tokenService: mockTokenService,
		jwtService:   mockJWTService,
	}

	return mockUserService, mockTokenService, mockJWTService, handler
}

func TestAuthHandler_ExchangeCode_Success(t *testing.T) {
	mockUserService, mockTokenService, mockJWTService, handler := setupAuthTest(t)

	userID := uuid.New()
	user := &models.User{
		ID:       userID,
		Email:    "test@example.com",
		Name:     "Test User",
		Provider: "github",
		Role:     models.RoleMember,
		Status:   models.StatusActive,
	}

	tokenPair := &services.TokenPair{
		AccessToken:  "access-token-123",
		RefreshToken: "refresh-token-456",
		ExpiresIn:    3600,
	}

	authCode := "test-auth-code"
	handler.authCodes.Store(authCode, authCodeData{
		userID:    userID,
		expiresAt: time.Now().Add(30 * time.Second),
	})

	mockUserService.On("GetByID", mock.Anything, userID).Return(user, nil)
	mockJWTService.On("GenerateTokenPair", userID, "test@example.com", models.RoleMember).Return(tokenPair, nil)
	mockJWTService.On("RefreshExpiry").Return(7 * 24 * time.Hour)
	mockTokenService.On("StoreRefreshToken", mock.Anything, userID, mock.Anything, mock.Anything).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", handler.ExchangeCode)

	body, _ := json.Marshal(dto.ExchangeCodeRequest{Code: authCode})
	req := httptest.NewRequest(http.MethodPost, "/auth/exchange", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.TokenResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "access-token-123", response.AccessToken)
	assert.Equal(t, "refresh-token-456", response.RefreshToken)
	assert.Equal(t, int64(3600), response.ExpiresIn)

	mockUserService.AssertExpectations(t)
	mockJWTService.AssertExpectations(t)
	mockTokenService.AssertExpectations(t)
}

func TestAuthHandler_ExchangeCode_InvalidCode(t *testing.T) {
	_, _, _, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", handler.ExchangeCode)

	body, _ := json.Marshal(dto.ExchangeCodeRequest{Code: "invalid-code"})
	req := httptest.NewRequest(http.MethodPost, "/auth/exchange", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired code")
}

func TestAuthHandler_ExchangeCode_ExpiredCode(t *testing.T) {
	_, _, _, handler := setupAuthTest(t)

	authCode := "expired-auth-code"
	handler.authCodes.Store(authCode, authCodeData{
		userID:    uuid.New(),
		expiresAt: time.Now().Add(-1 * time.Second),
	})

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", handler.ExchangeCode)

	body, _ := json.Marshal(dto.ExchangeCodeRequest{Code: authCode})
	req := httptest.NewRequest(http.MethodPost, "/auth/exchange", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "code expired")
}

func TestAuthHandler_ExchangeCode_MissingCode(t *testing.T) {
	_, _, _, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", handler.ExchangeCode)

	body, _ := json.Marshal(dto.ExchangeCodeRequest{Code: ""})
	req := httptest.NewRequest(http.MethodPost, "/auth/exchange", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "code is required")
}

func TestAuthHandler_RefreshToken_Success(t *testing.T) {
	mockUserService, mockTokenService, mockJWTService, handler := setupAuthTest(t)

	userID := uuid.New()
	user := &models.User{
		ID:       userID,
		Email:    "test@example.com",
		Name:     "Test User",
		Provider: "github",
		Role:     models.RoleOrgAdmin,
		Status:   models.StatusActive,
	}

	oldRefreshToken := "old-refresh-token"
	newTokenPair := &services.TokenPair{
		AccessToken:  "new-access-token",
		RefreshToken: "new-refresh-token",
		ExpiresIn:    3600,
	}

	mockJWTService.On("ValidateRefreshToken", oldRefreshToken).Return(userID, nil)
	mockTokenService.On("ValidateRefreshToken", mock.Anything, services.HashToken(oldRefreshToken)).Return(userID, nil)
	mockUserService.On("GetByID", mock.Anything, userID).Return(user, nil)
	mockTokenService.On("RevokeRefreshToken", mock.Anything, services.HashToken(oldRefreshToken)).Return(nil)
	mockJWTService.On("GenerateTokenPair", userID, "test@example.com", models.RoleOrgAdmin).Return(newTokenPair, nil)
	mockJWTService.On("RefreshExpiry").Return(7 * 24 * time.Hour)
	mockTokenService.On("StoreRefreshToken", mock.Anything, userID, mock.Anything, mock.Anything).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", handler.RefreshToken)

	body, _ := json.Marshal(dto.RefreshTokenRequest{RefreshToken: oldRefreshToken})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.TokenResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "new-access-token", response.AccessToken)
	assert.Equal(t, "new-refresh-token", response.RefreshToken)

	mockUserService.AssertExpectations(t)
	mockJWTService.AssertExpectations(t)
	mockTokenService.AssertExpectations(t)
}

func TestAuthHandler_RefreshToken_InvalidToken(t *testing.T) {
	_, _, mockJWTService, handler := setupAuthTest(t)

	mockJWTService.On("ValidateRefreshToken", "invalid-token").Return(uuid.Nil, errors.New("invalid token"))

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", handler.RefreshToken)

	body, _ := json.Marshal(dto.RefreshTokenRequest{RefreshToken: "invalid-token"})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid refresh token")

	mockJWTService.AssertExpectations(t)
}

func TestAuthHandler_RefreshToken_StolenTokenMismatchedUser(t *testing.T) {
	_, mockTokenService, mockJWTService, handler := setupAuthTest(t)

	tokenUserID := uuid.New()
	storedUserID := uuid.New()

	mockJWTService.On("ValidateRefreshToken", "stolen-token").Return(tokenUserID, nil)
	mockTokenService.On("ValidateRefreshToken", mock.Anything, mock.Anything).Return(storedUserID, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", handler.RefreshToken)

	body, _ := json.Marshal(dto.RefreshTokenRequest{RefreshToken: "stolen-token"})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "refresh token not found or expired")

	mockJWTService.AssertExpectations(t)
	mockTokenService.AssertExpectations(t)
}

func TestAuthHandler_RefreshToken_MissingToken(t *testing.T) {
	_, _, _, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", handler.RefreshToken)

	body, _ := json.Marshal(dto.RefreshTokenRequest{RefreshToken: ""})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "refresh_token is required")
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	_, mockTokenService, _, handler := setupAuthTest(t)

	mockTokenService.On("RevokeRefreshToken", mock.Anything, mock.Anything).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/logout", handler.Logout)

	body, _ := json.Marshal(dto.RefreshTokenRequest{RefreshToken: "some-refresh-token"})
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "logged out")

	mockTokenService.AssertExpectations(t)
}

func TestAuthHandler_Logout_EmptyToken(t *testing.T) {
	_, mockTokenService, _, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/logout", handler.Logout)

	body, _ := json.Marshal(dto.RefreshTokenRequest{RefreshToken: ""})
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	// Logout with nothing to revoke still succeeds.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "logged out")
	mockTokenService.AssertNotCalled(t, "RevokeRefreshToken")
}

func TestAuthHandler_LogoutAll_Success(t *testing.T) {
	_, mockTokenService, _, handler := setupAuthTest(t)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	mockTokenService.On("RevokeAllUserTokens", mock.Anything, userID).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/auth/logout-all", handler.LogoutAll)

	token := generateTestToken(t, jwtSvc, userID, "test@example.com", models.RoleMember)
	req := httptest.NewRequest(http.MethodPost, "/auth/logout-all", bytes.NewReader([]byte("{}")))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "all sessions logged out")

	mockTokenService.AssertExpectations(t)
}

func TestAuthHandler_GetConsentURL_UnsupportedProvider(t *testing.T) {
	_, _, _, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Get("/auth/:provider", handler.GetConsentURL)

	req := httptest.NewRequest(http.MethodGet, "/auth/bitbucket", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported provider")
}
