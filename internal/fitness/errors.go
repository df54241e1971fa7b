package fitness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// QueryTimeout is the deadline imposed on every single storage round trip.
const QueryTimeout = 10 * time.Second

var (
	// ErrNotConfigured is returned by every store operation when the
	// service was started without a database connection. It is surfaced
	// explicitly, never coalesced into an empty result.
	ErrNotConfigured = errors.New("fitness: storage not configured")

	// ErrStorageTimeout means the round trip exceeded QueryTimeout.
	ErrStorageTimeout = errors.New("fitness: storage deadline exceeded")

	// ErrStorageUnavailable means a connection-level failure from postgres.
	ErrStorageUnavailable = errors.New("fitness: storage unavailable")
)

// ValidationError is reported to the caller before any storage round trip.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// WithQueryTimeout derives the per-operation context used by all repos.
func WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, QueryTimeout)
}

// MapStorageError converts low-level driver failures into the store
// error kinds. Errors that are none of those pass through unchanged.
func MapStorageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrStorageTimeout, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %s", ErrStorageUnavailable, err)
	}
	return err
}
