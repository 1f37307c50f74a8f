// Package retry re-runs operations that fail with transient errors, such as
// a database that is still starting up.
package retry

import (
	"context"
	"errors"
	"time"
)

// Defaults used by [Backoff].
const (
	DefaultAttempts = 3
	DefaultDelay    = 500 * time.Millisecond
)

// TransientError marks an error as worth retrying.
// Wrap failures that may succeed on a later attempt (refused connections,
// timeouts) so that [Do] tries again; everything else is returned at once.
type TransientError struct{ Err error }

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a [TransientError]. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Do runs fn up to attempts times, doubling delay after each transient
// failure. It returns the last error once attempts are exhausted, or
// ctx.Err() if ctx ends while waiting. The returned error keeps the
// TransientError wrapper; use errors.Is/As to inspect the cause.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isTransient(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// Backoff is [Do] with [DefaultAttempts] and [DefaultDelay].
func Backoff(ctx context.Context, fn func() error) error {
	return Do(ctx, DefaultAttempts, DefaultDelay, fn)
}

func isTransient(err error) bool {
	return errors.As(err, new(*TransientError))
}
