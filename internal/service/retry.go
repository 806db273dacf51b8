package service

import (
	"context"
	"errors"
	"time"
)

const retryBaseDelay = 20 * time.Millisecond

// RetryOnConflict runs fn up to attempts times while it fails with a
// ConcurrencyConflictError. Any other error is returned immediately.
func RetryOnConflict(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var conflict *ConcurrencyConflictError
	for i := 1; ; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.As(err, &conflict) {
			return err
		}
		if i >= attempts {
			return &ConcurrencyConflictError{Attempts: i, Err: conflict.Err}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i) * retryBaseDelay):
		}
	}
}
