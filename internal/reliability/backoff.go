// Package reliability holds small deterministic retry helpers used by the
// persistence path.
package reliability

import (
	"context"
	"errors"
	"time"
)

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}

// IsRetryablePersistError classifies snapshot-store failures worth another
// attempt. Context cancellation means the caller gave up; everything else
// (timeouts, transient connection errors) is retried.
func IsRetryablePersistError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
