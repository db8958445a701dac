package services

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Conditional writes retry from a fresh read on version conflicts and store
// rate limiting; everything else surfaces immediately.
const maxWriteAttempts = 4

const (
	backoffBase = 10 * time.Millisecond
	backoffCap  = 200 * time.Millisecond
)

// backoffDelay is the exponential wait before retry attempt n (1-based).
func backoffDelay(attempt int) time.Duration {
	d := backoffBase << (attempt - 1)
	if d > backoffCap {
		return backoffCap
	}
	return d
}

// isRetryable reports whether a failed conditional write should be retried
// from a fresh read.
func isRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict) || isRateLimited(err)
}

// isRateLimited reports whether the store rejected a write for resource
// pressure (SQLSTATE class 53) rather than a logical failure.
func isRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "53"
}
