package checker

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Runner drives cycles off a recurring ticker. At most one cycle runs
// at a time; a tick that lands while one is in flight is dropped, not
// queued.
type Runner struct {
	log      *zap.Logger
	uc       *Usecase
	interval time.Duration

	inFlight atomic.Bool
}

func NewRunner(log *zap.Logger, uc *Usecase, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{log: log, uc: uc, interval: interval}
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.trigger(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			go r.trigger(ctx)
		}
	}
}

// trigger runs one cycle unless another is already running.
func (r *Runner) trigger(ctx context.Context) {
	if !r.inFlight.CompareAndSwap(false, true) {
		mCoalesced.Inc()
		r.log.Debug("cycle in flight, tick skipped")
		return
	}
	defer r.inFlight.Store(false)

	start := time.Now()
	results, err := r.uc.RunCycle(ctx, nil)
	if err != nil {
		r.log.Warn("check cycle", zap.Error(err))
		return
	}
	mCycles.Inc()
	mCycleDur.Observe(time.Since(start).Seconds())
	r.log.Debug("cycle complete",
		zap.Int("servers", len(results)),
		zap.Duration("took", time.Since(start)))
}
