package checker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/domain/ping"
	"github.com/pulseguard/pulseguard/internal/domain/server"
	"github.com/pulseguard/pulseguard/internal/domain/status"
	"github.com/pulseguard/pulseguard/internal/event"
	"github.com/pulseguard/pulseguard/internal/obs"
	"github.com/pulseguard/pulseguard/internal/probe"
	pg "github.com/pulseguard/pulseguard/internal/repository/postgres"
)

// Prober runs one protocol-appropriate check.
type Prober interface {
	Probe(ctx context.Context, srv *server.Server) probe.Outcome
}

// Publisher pushes every transition to live fan-out consumers.
type Publisher interface {
	Publish(ev event.Transition)
}

// AlertSink receives notable transitions for notification dispatch.
// Implementations must not block the check pipeline.
type AlertSink interface {
	Enqueue(ev event.Transition)
}

// CycleResult is the per-server outcome a cycle reports back, both to
// the admin trigger and to the CLI.
type CycleResult struct {
	ServerID int64       `json:"server_id"`
	Status   ping.Status `json:"status"`
}

// Usecase walks servers through probe, persist, reduce, persist, emit.
// Probe failures are the expected signal and never abort a cycle; only
// persistence trouble skips a server, and only that server.
type Usecase struct {
	Servers  server.Repo
	Pings    ping.Repo
	Statuses status.Repo
	Prober   Prober
	Events   Publisher
	Alerts   AlertSink
	Log      *zap.Logger

	// Tx wraps the history insert and the status upsert of one check
	// into a single transaction; nil runs them unwrapped.
	Tx pg.Transactor

	// Workers bounds cross-server parallelism inside one cycle.
	Workers int
	// Now is the clock seam; nil means time.Now.
	Now func() time.Time
}

func (u *Usecase) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u *Usecase) inTx(ctx context.Context, fn func(context.Context) error) error {
	if u.Tx == nil {
		return fn(ctx)
	}
	return u.Tx.WithTx(ctx, fn)
}

// RunCycle checks every requested server (all active ones when ids is
// empty) and returns per-server outcomes in input order.
func (u *Usecase) RunCycle(ctx context.Context, ids []int64) ([]CycleResult, error) {
	tr := otel.Tracer("checker.uc")
	ctx, span := tr.Start(ctx, "checker.cycle")
	defer span.End()

	var (
		servers []*server.Server
		err     error
	)
	if len(ids) == 0 {
		servers, err = u.Servers.ListActive(ctx)
	} else {
		servers, err = u.Servers.List(ctx, server.Filter{IDs: ids})
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load servers: %w", err)
	}
	span.SetAttributes(attribute.Int("cycle.servers", len(servers)))

	workers := u.Workers
	if workers <= 0 {
		workers = 8
	}

	// One worker per server keeps the per-server pipeline ordered
	// while slow probes overlap across servers.
	results := make([]CycleResult, len(servers))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, srv := range servers {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, srv *server.Server) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = u.checkOne(ctx, srv)
		}(i, srv)
	}
	wg.Wait()

	return results, nil
}

func (u *Usecase) checkOne(ctx context.Context, srv *server.Server) CycleResult {
	tr := otel.Tracer("checker.uc")
	ctx, span := tr.Start(ctx, "checker.server",
		trace.WithAttributes(
			attribute.Int64("server.id", srv.ID),
			attribute.String("server.protocol", string(srv.Protocol)),
		),
	)
	defer span.End()

	l := obs.WithTrace(ctx, u.Log)

	out := u.Prober.Probe(ctx, srv)
	mProbes.WithLabelValues(string(out.Status)).Inc()
	span.SetAttributes(attribute.String("probe.status", string(out.Status)))

	now := u.now()
	res := out.Result(srv.ID, now)
	res.ServerName = srv.Name

	var (
		before status.Status
		st     *status.ServerStatus
	)
	err := u.inTx(ctx, func(ctx context.Context) error {
		if err := u.Pings.Insert(ctx, res); err != nil {
			return fmt.Errorf("insert ping result: %w", err)
		}
		var err error
		st, err = u.Statuses.GetOrCreate(ctx, srv.ID)
		if err != nil {
			return fmt.Errorf("load server status: %w", err)
		}
		before = st.Status
		advance(st, res, now)
		if err := u.Statuses.Update(ctx, st); err != nil {
			return fmt.Errorf("update server status: %w", err)
		}
		return nil
	})
	if err != nil {
		mCheckErr.Inc()
		span.RecordError(err)
		l.Error("persist check", zap.Int64("server_id", srv.ID), zap.Error(err))
		return CycleResult{ServerID: srv.ID, Status: out.Status}
	}

	ev := event.Transition{Server: srv, Ping: res, Before: before, Status: st}
	if u.Events != nil {
		u.Events.Publish(ev)
	}
	if ev.Notable() && u.Alerts != nil {
		u.Alerts.Enqueue(ev)
	}

	l.Debug("server checked",
		zap.Int64("server_id", srv.ID),
		zap.String("outcome", string(res.Status)),
		zap.String("status", string(st.Status)),
		zap.Int("consecutive_failures", st.ConsecutiveFailures))

	return CycleResult{ServerID: srv.ID, Status: res.Status}
}
