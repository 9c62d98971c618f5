package ai

import (
	"context"
	"fmt"
	"time"
)

const (
	// defaultMaxRetries is the default number of attempts per Generate call
	defaultMaxRetries = 3
)

// sleep waits for d or until ctx is done. Tests replace it to skip backoff.
var sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryWithBackoff runs fn up to maxAttempts times, waiting between attempts
// according to getBackoffDuration. It returns the first successful result and
// the number of attempts made. Permanent errors and context cancellation stop
// the loop early; running out of attempts wraps ErrRetryExhausted.
func retryWithBackoff[T any](ctx context.Context, maxAttempts int, fn func() (T, error)) (T, int, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, attempt, ctx.Err()
		}
		if isPermanentError(err) {
			return zero, attempt, err
		}

		if attempt < maxAttempts {
			if err := sleep(ctx, getBackoffDuration(err, attempt)); err != nil {
				return zero, attempt, err
			}
		}
	}

	if maxAttempts == 1 {
		return zero, 1, lastErr
	}
	return zero, maxAttempts, fmt.Errorf("%w: %w", ErrRetryExhausted, lastErr)
}
