package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DBConnectPolicy keeps a booting process alive while the database is
// still coming up. Cancellation is the only non-retryable condition.
func DBConnectPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "db-connect",
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 500 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("db connect retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("db connect retries exhausted", zap.Error(err))
			}
		},
	}
}
