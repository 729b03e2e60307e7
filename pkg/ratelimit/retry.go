package ratelimit

import (
	"context"
	"time"
)

// Retry invokes op up to maxAttempts times, sleeping between failures and
// doubling the delay each time. The first success returns immediately; after
// maxAttempts failures the last error is returned. Delay growth is unbounded
// here; callers needing a cap compose one externally.
func Retry(ctx context.Context, maxAttempts int, initialDelay time.Duration, op func() error) error {
	delay := initialDelay

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if attempt+1 >= maxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return lastErr
}
