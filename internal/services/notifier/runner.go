package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/event"
	"github.com/pulseguard/pulseguard/internal/services/checker"
)

// Runner decouples alert delivery from the check cycle: notable
// transitions land in a bounded queue and a single worker drains it, so
// a slow SMTP relay never stalls probes.
type Runner struct {
	log *zap.Logger
	d   *Dispatcher
	ch  chan event.Transition
}

var _ checker.AlertSink = (*Runner)(nil)

func NewRunner(l *zap.Logger, d *Dispatcher, buf int) *Runner {
	if buf <= 0 {
		buf = 256
	}
	return &Runner{
		log: l.With(zap.String("component", "notifier.runner")),
		d:   d,
		ch:  make(chan event.Transition, buf),
	}
}

// Enqueue is best-effort: when the queue is full the transition is
// dropped and counted, never blocked on.
func (r *Runner) Enqueue(ev event.Transition) {
	select {
	case r.ch <- ev:
	default:
		mQueueDropped.Inc()
		r.log.Warn("alert queue full, transition dropped",
			zap.Int64("server_id", ev.Server.ID))
	}
}

func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("alert worker started", zap.Int("queue", cap(r.ch)))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.ch:
			r.d.Notify(ctx, ev)
		}
	}
}
