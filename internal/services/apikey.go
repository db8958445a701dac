package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
)

var (
	ErrAPIKeyNotFound = errors.New("api key not found")
	ErrAPIKeyRevoked  = errors.New("api key has been revoked")
	ErrAPIKeyExpired  = errors.New("api key has expired")
	ErrAPIKeyInvalid  = errors.New("invalid api key")
)

const (
	apiKeyPrefix    = "thv_"
	apiKeyRandomLen = 32
)

type APIKeyService struct {
	db *database.DB
}

func NewAPIKeyService(db *database.DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// GenerateAPIKey produces a key of the form thv_<project_prefix>_<random hex>.
// Only the hash is stored; the plaintext is shown once at creation.
func (s *APIKeyService) GenerateAPIKey(projectID uuid.UUID) (plainKey, keyHash, keyPrefix string) {
	projectPrefix := projectID.String()[:8]

	randomBytes := make([]byte, apiKeyRandomLen)
	_, _ = rand.Read(randomBytes)
	randomPart := hex.EncodeToString(randomBytes)

	plainKey = apiKeyPrefix + projectPrefix + "_" + randomPart
	keyPrefix = apiKeyPrefix + projectPrefix + "..."

	hash := sha256.Sum256([]byte(plainKey))
	keyHash = hex.EncodeToString(hash[:])

	return plainKey, keyHash, keyPrefix
}

// Create issues a new API key for a project. Returns the stored record and
// the plaintext key.
func (s *APIKeyService) Create(ctx context.Context, projectID uuid.UUID, name string, createdBy uuid.UUID, expiresAt *time.Time) (*models.ProjectAPIKey, string, error) {
	plainKey, keyHash, keyPrefix := s.GenerateAPIKey(projectID)

	var apiKey models.ProjectAPIKey
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO project_api_keys (project_id, name, key_hash, key_prefix, created_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, project_id, name, key_hash, key_prefix, created_by, expires_at, revoked_at, last_used_at, created_at
	`, projectID, name, keyHash, keyPrefix, createdBy, expiresAt).Scan(
		&apiKey.ID, &apiKey.ProjectID, &apiKey.Name, &apiKey.KeyHash,
		&apiKey.KeyPrefix, &apiKey.CreatedBy, &apiKey.ExpiresAt,
		&apiKey.RevokedAt, &apiKey.LastUsedAt, &apiKey.CreatedAt,
	)
	if err != nil {
		return nil, "", err
	}

	return &apiKey, plainKey, nil
}

// ValidateAndGetProject checks a presented key and returns the project it
// is scoped to.
func (s *APIKeyService) ValidateAndGetProject(ctx context.Context, key string) (uuid.UUID, error) {
	hash := sha256.Sum256([]byte(key))
	keyHash := hex.EncodeToString(hash[:])

	var apiKey models.ProjectAPIKey
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, project_id, expires_at, revoked_at
		FROM project_api_keys
		WHERE key_hash = $1
	`, keyHash).Scan(&apiKey.ID, &apiKey.ProjectID, &apiKey.ExpiresAt, &apiKey.RevokedAt)
	if err != nil {
		return uuid.Nil, ErrAPIKeyInvalid
	}

	if apiKey.RevokedAt != nil {
		return uuid.Nil, ErrAPIKeyRevoked
	}
	if apiKey.ExpiresAt != nil && apiKey.ExpiresAt.Before(time.Now()) {
		return uuid.Nil, ErrAPIKeyExpired
	}

	// Update last_used_at off the request path.
	go func() {
		_, _ = s.db.Pool.Exec(context.Background(), `
			UPDATE project_api_keys SET last_used_at = NOW() WHERE id = $1
		`, apiKey.ID)
	}()

	return apiKey.ProjectID, nil
}

// List returns the project's live keys, newest first.
func (s *APIKeyService) List(ctx context.Context, projectID uuid.UUID) ([]models.ProjectAPIKey, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, project_id, name, key_hash, key_prefix, created_by, expires_at, revoked_at, last_used_at, created_at
		FROM project_api_keys
		WHERE project_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.ProjectAPIKey
	for rows.Next() {
		var k models.ProjectAPIKey
		if err := rows.Scan(
			&k.ID, &k.ProjectID, &k.Name, &k.KeyHash, &k.KeyPrefix,
			&k.CreatedBy, &k.ExpiresAt, &k.RevokedAt, &k.LastUsedAt, &k.CreatedAt,
		); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *APIKeyService) Revoke(ctx context.Context, keyID, projectID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE project_api_keys
		SET revoked_at = NOW()
		WHERE id = $1 AND project_id = $2 AND revoked_at IS NULL
	`, keyID, projectID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// CleanupExpired prunes expired keys and keys revoked more than 30 days ago.
func (s *APIKeyService) CleanupExpired(ctx context.Context) error {
	_, err := s.db.Pool.Exec(ctx, `
		DELETE FROM project_api_keys
		WHERE expires_at < NOW() OR revoked_at IS NOT NULL AND revoked_at < NOW() - INTERVAL '30 days'
	`)
	return err
}
