package notifier

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/domain/account"
	"github.com/pulseguard/pulseguard/internal/domain/notification"
	"github.com/pulseguard/pulseguard/internal/domain/status"
	"github.com/pulseguard/pulseguard/internal/event"
	"github.com/pulseguard/pulseguard/internal/obs"
	pg "github.com/pulseguard/pulseguard/internal/repository/postgres"
)

// Sender delivers one message for one notification config. Implementations
// own their channel's payload format.
type Sender interface {
	Send(ctx context.Context, ev event.Transition, cfg *notification.Config, recovery bool) error
}

type direction int

const (
	directionNone direction = iota
	directionFailure
	directionRecovery
)

func alerting(s status.Status) bool {
	return s == status.Down || s == status.Degraded
}

// classify decides whether a transition is alert-worthy: entering a bad
// status from a good one raises a failure alert, and returning to up
// from a bad one raises a recovery. Moves inside the bad set
// (degraded -> down) stay silent.
func classify(before, after status.Status) direction {
	switch {
	case before == after:
		return directionNone
	case alerting(after) && !alerting(before):
		return directionFailure
	case alerting(before) && after == status.Up:
		return directionRecovery
	default:
		return directionNone
	}
}

// Dispatcher fans one status transition out to every enabled notification
// config of the server, honoring per-config cooldowns and the account's
// credit balance for metered channels.
type Dispatcher struct {
	Configs  notification.Repo
	Accounts account.Repo
	Senders  map[notification.Channel]Sender
	Log      *zap.Logger
	Now      func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Notify processes a single transition. Errors never propagate: one
// recipient failing must not cost the others their alert.
func (d *Dispatcher) Notify(ctx context.Context, ev event.Transition) {
	if ev.Server == nil || ev.Status == nil {
		return
	}
	dir := classify(ev.Before, ev.Status.Status)
	if dir == directionNone {
		return
	}

	tr := otel.Tracer("notifier")
	ctx, span := tr.Start(ctx, "notifier.dispatch")
	span.SetAttributes(
		attribute.Int64("server.id", ev.Server.ID),
		attribute.String("status.before", string(ev.Before)),
		attribute.String("status.after", string(ev.Status.Status)),
	)
	defer span.End()

	configs, err := d.Configs.ListEnabledByServer(ctx, ev.Server.ID)
	if err != nil {
		span.RecordError(err)
		obs.WithTrace(ctx, d.Log).Error("list notification configs",
			zap.Int64("server_id", ev.Server.ID), zap.Error(err))
		return
	}

	for _, cfg := range configs {
		switch dir {
		case directionFailure:
			if !cfg.NotifyOnFailure {
				continue
			}
		case directionRecovery:
			if !cfg.NotifyOnRecovery {
				continue
			}
		}
		d.sendOne(ctx, ev, cfg, dir)
	}
}

func (d *Dispatcher) sendOne(ctx context.Context, ev event.Transition, cfg *notification.Config, dir direction) {
	ch := string(cfg.Channel)
	now := d.now()
	l := obs.WithTrace(ctx, d.Log)

	if now.Sub(cfg.LastSentAt()) < cfg.MinInterval {
		mNotifications.WithLabelValues(ch, resultSkippedCooldown).Inc()
		l.Info("notification suppressed by cooldown",
			zap.Int64("config_id", cfg.ID),
			zap.String("channel", ch),
			zap.Duration("min_interval", cfg.MinInterval))
		return
	}

	sender, ok := d.Senders[cfg.Channel]
	if !ok {
		mNotifications.WithLabelValues(ch, resultSkippedChannel).Inc()
		l.Warn("no sender registered for channel", zap.String("channel", ch))
		return
	}

	var acct *account.Account
	if cfg.Channel.Metered() {
		var err error
		acct, err = d.lookupAccount(ctx, ev)
		if err != nil {
			mNotifications.WithLabelValues(ch, resultFailed).Inc()
			l.Error("resolve credit account",
				zap.Int64("server_id", ev.Server.ID), zap.Error(err))
			return
		}
		if acct != nil && acct.Credits(creditKind(cfg.Channel)) <= 0 {
			mNotifications.WithLabelValues(ch, resultSkippedCredits).Inc()
			l.Warn("notification skipped, no credits left",
				zap.Int64("account_id", acct.ID),
				zap.String("channel", ch),
				zap.String("server", ev.Server.Name))
			return
		}
	}

	if err := sender.Send(ctx, ev, cfg, dir == directionRecovery); err != nil {
		mNotifications.WithLabelValues(ch, resultFailed).Inc()
		l.Error("send notification",
			zap.Int64("config_id", cfg.ID),
			zap.String("channel", ch),
			zap.String("recipient", cfg.Recipient),
			zap.Error(err))
		return
	}
	mNotifications.WithLabelValues(ch, resultSent).Inc()

	if acct != nil {
		ok, err := d.Accounts.Consume(ctx, acct.ID, creditKind(cfg.Channel))
		switch {
		case err != nil:
			l.Error("consume credit",
				zap.Int64("account_id", acct.ID), zap.Error(err))
		case !ok:
			l.Warn("credit balance hit zero before consume",
				zap.Int64("account_id", acct.ID), zap.String("channel", ch))
		}
	}

	if err := d.Configs.StampSent(ctx, cfg.ID, now); err != nil {
		l.Error("stamp notification config",
			zap.Int64("config_id", cfg.ID), zap.Error(err))
	}

	l.Info("notification sent",
		zap.Int64("server_id", ev.Server.ID),
		zap.String("channel", ch),
		zap.String("recipient", cfg.Recipient),
		zap.String("status", string(ev.Status.Status)))
}

// lookupAccount resolves the billing account for a server: the org account
// wins over the owner's personal one. No account at all means the send is
// not metered.
func (d *Dispatcher) lookupAccount(ctx context.Context, ev event.Transition) (*account.Account, error) {
	if ev.Server.OrgID != nil {
		acct, err := d.Accounts.GetByOrg(ctx, *ev.Server.OrgID)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, pg.ErrNotFound) {
			return nil, err
		}
	}
	if ev.Server.OwnerID != nil {
		acct, err := d.Accounts.GetByOwner(ctx, *ev.Server.OwnerID)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, pg.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func creditKind(c notification.Channel) account.CreditKind {
	if c == notification.ChannelSMS {
		return account.CreditSMS
	}
	return account.CreditEmail
}
