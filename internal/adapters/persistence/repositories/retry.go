package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	retryAttempts = 3
	retryBaseWait = 100 * time.Millisecond
)

// withRetry runs a read-only query with bounded retry and linear backoff.
// Business outcomes (not-found, duplicate key) are returned immediately;
// only transport-level failures are retried. Write paths are excluded,
// a retried insert is not idempotent.
func withRetry(ctx context.Context, query func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBaseWait):
			}
		}

		err = query()
		if err == nil || !isTransient(err) {
			return err
		}
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
