// internal/storage/redis/errors.go
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Error taxonomy surfaced to callers. The transport layer maps these to
// status codes; nothing below ever collapses them into a generic failure.
var (
	// ErrUnavailable covers transport and authentication failures.
	ErrUnavailable = errors.New("todostore: redis unavailable")
	// ErrTimeout is returned when the per-operation deadline expires.
	ErrTimeout = errors.New("todostore: operation timed out")
	// ErrNotFound means the targeted document is absent from the expected index.
	ErrNotFound = errors.New("todostore: todo not found")
	// ErrForbidden means the record exists but belongs to another user.
	ErrForbidden = errors.New("todostore: todo belongs to another user")
	// ErrBadRecord means a stored record could not be decoded.
	ErrBadRecord = errors.New("todostore: malformed todo record")
	// ErrCreateIncomplete means a write step of Add failed after the ID
	// counter was already incremented.
	ErrCreateIncomplete = errors.New("todostore: create left partial state")
)

var domainErrors = []error{
	ErrNotFound,
	ErrForbidden,
	ErrBadRecord,
	ErrCreateIncomplete,
	ErrTimeout,
	ErrUnavailable,
}

// classify maps a raw command failure to the most specific error kind.
// Already-classified errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range domainErrors {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, redis.Nil):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
