package middleware

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	APIKeyProjectIDKey = "api_key_project_id"
)

// APIKeyValidator is the slice of the API key service the middleware needs.
type APIKeyValidator interface {
	ValidateAndGetProject(ctx context.Context, key string) (uuid.UUID, error)
}

// APIKeyAuth authenticates automation requests with a project-scoped key.
func APIKeyAuth(apiKeys APIKeyValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Unauthorized("invalid authorization header format")
			return
		}

		token := parts[1]
		if !strings.HasPrefix(token, "thv_") {
			c.Unauthorized("invalid api key format")
			return
		}

		projectID, err := apiKeys.ValidateAndGetProject(context.Background(), token)
		if err != nil {
			c.Unauthorized("invalid or expired api key")
			return
		}

		c.Set(APIKeyProjectIDKey, projectID)
		c.Next()
	}
}

func GetAPIKeyProjectID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(APIKeyProjectIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}
