package handlers

import (
	"errors"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/taskhive/taskhive-api/internal/services"
)

// respondServiceError translates service-layer sentinels into HTTP
// responses. Authorization failures are 403 so a denied caller can tell
// "no" apart from "gone"; invalid workflow targets are 422; lost races and
// occupied columns are 409; persistence pushback is 429.
func respondServiceError(c *drift.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		c.Forbidden("you do not have permission to perform this action")
	case errors.Is(err, services.ErrInvalidTransition):
		_ = c.JSON(422, map[string]any{
			"code":    "INVALID_TRANSITION",
			"message": "target column does not exist in this board's workflow",
		})
	case errors.Is(err, services.ErrVersionConflict):
		_ = c.JSON(409, map[string]any{
			"code":    "VERSION_CONFLICT",
			"message": "the record was modified concurrently, retry with fresh state",
		})
	case errors.Is(err, services.ErrColumnInUse):
		_ = c.JSON(409, map[string]any{
			"code":    "COLUMN_IN_USE",
			"message": "column still contains tasks",
		})
	case errors.Is(err, services.ErrRateLimited):
		_ = c.JSON(429, map[string]any{
			"code":    "RATE_LIMITED",
			"message": "too many writes, slow down and retry",
		})
	case errors.Is(err, services.ErrNotAssignable):
		_ = c.JSON(422, map[string]any{
			"code":    "NOT_ASSIGNABLE",
			"message": "user cannot be assigned tasks in this scope",
		})
	case errors.Is(err, services.ErrTaskNotFound):
		c.NotFound("task not found")
	case errors.Is(err, services.ErrProjectNotFound):
		c.NotFound("project not found")
	case errors.Is(err, services.ErrOrgNotFound):
		c.NotFound("organization not found")
	case errors.Is(err, services.ErrTeamNotFound):
		c.NotFound("team not found")
	case errors.Is(err, services.ErrUserNotFound):
		c.NotFound("user not found")
	case errors.Is(err, services.ErrInviteNotFound):
		c.NotFound("invite not found")
	case errors.Is(err, services.ErrAccountNotUsable):
		c.Forbidden("account is not active")
	default:
		c.InternalServerError(fallback)
	}
}
