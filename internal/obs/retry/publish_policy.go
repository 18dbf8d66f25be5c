package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultPublishPolicy is used by the outbox for broker publishes.
func DefaultPublishPolicy(log *zap.Logger, attempts int, base, max time.Duration) Policy {
	if attempts <= 0 {
		attempts = 6
	}
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	return Policy{
		Attempts: attempts,
		Backoff:  ExpoJitter{Base: base, Max: max, Jitter: 0.2},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("publish retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("publish retries exhausted", zap.Error(err))
			}
		},
	}
}
