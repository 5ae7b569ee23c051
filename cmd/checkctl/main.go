package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	config "github.com/pulseguard/pulseguard/internal/config/checkctl"
	"github.com/pulseguard/pulseguard/internal/domain/notification"
	"github.com/pulseguard/pulseguard/internal/event"
	"github.com/pulseguard/pulseguard/internal/obs"
	"github.com/pulseguard/pulseguard/internal/probe"
	pg "github.com/pulseguard/pulseguard/internal/repository/postgres"
	"github.com/pulseguard/pulseguard/internal/services/checker"
	"github.com/pulseguard/pulseguard/internal/services/notifier"
)

// syncSink dispatches inline; the one-shot command has no worker to hand
// off to.
type syncSink struct {
	ctx context.Context
	d   *notifier.Dispatcher
}

func (s syncSink) Enqueue(ev event.Transition) { s.d.Notify(s.ctx, ev) }

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		cfgPath   = flag.String("config", "config/checkctl.yaml", "path to config file")
		serverCSV = flag.String("servers", "", "comma-separated server ids (default: all active)")
		noNotify  = flag.Bool("no-notify", false, "skip notification dispatch")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	l, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = l.Sync() }()

	ids, err := parseIDs(*serverCSV)
	if err != nil {
		l.Fatal("parse -servers", zap.Error(err))
	}

	db, err := pg.New(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	servers := pg.NewServerRepo(db)
	pings := pg.NewPingRepo(db)
	statuses := pg.NewStatusRepo(db)

	uc := &checker.Usecase{
		Servers:  servers,
		Pings:    pings,
		Statuses: statuses,
		Prober:   probe.New(cfg.AsProbeConfig()),
		Tx:       pg.NewTransactor(db, l),
		Log:      l,
		Workers:  cfg.Workers,
	}

	if !*noNotify {
		senders := make(map[notification.Channel]notifier.Sender)
		if cfg.Notify.SMTP.Enabled {
			senders[notification.ChannelEmail] = &notifier.EmailSender{
				Mailer: notifier.NewMailer(cfg.AsSMTPConfig(), l),
			}
		}
		if cfg.Notify.SMS.Enabled {
			senders[notification.ChannelSMS] = notifier.NewSMSSender(cfg.AsSMSConfig(), l)
		}
		if cfg.Notify.Webhook.Enabled {
			senders[notification.ChannelWebhook] = notifier.NewWebhookSender(cfg.Notify.Webhook.Timeout)
		}
		uc.Alerts = syncSink{ctx: rootCtx, d: &notifier.Dispatcher{
			Configs:  pg.NewNotificationRepo(db),
			Accounts: pg.NewAccountRepo(db),
			Senders:  senders,
			Log:      l,
		}}
	}

	results, err := uc.RunCycle(rootCtx, ids)
	if err != nil {
		l.Fatal("run cycle", zap.Error(err))
	}

	fmt.Printf("ran %d checks\n", len(results))
	for _, r := range results {
		fmt.Printf("server %d: %s\n", r.ServerID, r.Status)
	}
}

func parseIDs(csv string) ([]int64, error) {
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad server id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
