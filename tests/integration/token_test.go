package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/tests/testutil"
)

func TestTokenService_Integration_StoreAndValidate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTokenService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)
	tokenHash := services.HashToken("my-refresh-token")
	expiresAt := time.Now().Add(24 * time.Hour)

	err := svc.StoreRefreshToken(ctx, user.ID, tokenHash, expiresAt)
	require.NoError(t, err)

	userID, err := svc.ValidateRefreshToken(ctx, tokenHash)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestTokenService_Integration_ValidateExpired(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTokenService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)
	tokenHash := services.HashToken("expired-token")
	expiresAt := time.Now().Add(-1 * time.Hour)

	err := svc.StoreRefreshToken(ctx, user.ID, tokenHash, expiresAt)
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(ctx, tokenHash)
	assert.Error(t, err)
}

func TestTokenService_Integration_Revoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTokenService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)
	tokenHash := services.HashToken("revoked-token")

	err := svc.StoreRefreshToken(ctx, user.ID, tokenHash, time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	err = svc.RevokeRefreshToken(ctx, tokenHash)
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(ctx, tokenHash)
	assert.Error(t, err)
}

func TestTokenService_Integration_RevokeAllUserTokens(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTokenService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)
	other := fixtures.CreateUser(t)

	hash1 := services.HashToken("token-one")
	hash2 := services.HashToken("token-two")
	otherHash := services.HashToken("other-token")
	expiresAt := time.Now().Add(24 * time.Hour)

	require.NoError(t, svc.StoreRefreshToken(ctx, user.ID, hash1, expiresAt))
	require.NoError(t, svc.StoreRefreshToken(ctx, user.ID, hash2, expiresAt))
	require.NoError(t, svc.StoreRefreshToken(ctx, other.ID, otherHash, expiresAt))

	require.NoError(t, svc.RevokeAllUserTokens(ctx, user.ID))

	_, err := svc.ValidateRefreshToken(ctx, hash1)
	assert.Error(t, err)
	_, err = svc.ValidateRefreshToken(ctx, hash2)
	assert.Error(t, err)

	// Other users keep their sessions.
	userID, err := svc.ValidateRefreshToken(ctx, otherHash)
	require.NoError(t, err)
	assert.Equal(t, other.ID, userID)
}

func TestTokenService_Integration_CleanupExpired(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTokenService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)
	liveHash := services.HashToken("live-token")
	deadHash := services.HashToken("dead-token")

	require.NoError(t, svc.StoreRefreshToken(ctx, user.ID, liveHash, time.Now().Add(24*time.Hour)))
	require.NoError(t, svc.StoreRefreshToken(ctx, user.ID, deadHash, time.Now().Add(-24*time.Hour)))

	require.NoError(t, svc.CleanupExpired(ctx))

	userID, err := svc.ValidateRefreshToken(ctx, liveHash)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	var count int
	err = tdb.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM refresh_tokens WHERE token_hash = $1`, deadHash).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
