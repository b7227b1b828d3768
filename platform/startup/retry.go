// Package startup holds helpers shared by the process entrypoints.
package startup

import (
	"context"
	"fmt"
	"time"

	"claims_backend/platform/logger"

	"github.com/cenkalti/backoff/v4"
)

// Retry calls fn up to attempts times with exponential backoff starting at
// baseDelay. It gives up early when ctx is cancelled.
func Retry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = baseDelay
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0
	exp.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		return fn()
	}, policy, func(err error, next time.Duration) {
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err, "next_in", next)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
