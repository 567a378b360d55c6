package persistence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// retryPolicy bounds how long startup waits for a backing store.
type retryPolicy struct {
	attempts   int
	base       time.Duration
	maxBackoff time.Duration
}

var startupRetry = retryPolicy{attempts: 5, base: time.Second, maxBackoff: 10 * time.Second}

// backoff doubles from 2*base and caps at maxBackoff.
func (p retryPolicy) backoff(attempt int) time.Duration {
	if attempt >= 4 {
		return p.maxBackoff
	}
	return min(p.base<<attempt, p.maxBackoff)
}

// do calls connect until it succeeds, the attempts run out or ctx is done.
func (p retryPolicy) do(ctx context.Context, logger *zap.Logger, store string, connect func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if lastErr = connect(ctx); lastErr == nil {
			return nil
		}
		logger.Warn("connection attempt failed",
			zap.String("store", store),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.attempts),
			zap.Error(lastErr),
		)
		if attempt == p.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff(attempt)):
		}
	}
	return fmt.Errorf("%s connection failed after %d attempts: %w", store, p.attempts, lastErr)
}
