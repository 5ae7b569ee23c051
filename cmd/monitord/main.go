package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/pulseguard/pulseguard/internal/config/monitord"
	"github.com/pulseguard/pulseguard/internal/domain/notification"
	"github.com/pulseguard/pulseguard/internal/event"
	"github.com/pulseguard/pulseguard/internal/obs"
	"github.com/pulseguard/pulseguard/internal/obs/retry"
	"github.com/pulseguard/pulseguard/internal/probe"
	pg "github.com/pulseguard/pulseguard/internal/repository/postgres"
	"github.com/pulseguard/pulseguard/internal/services/checker"
	"github.com/pulseguard/pulseguard/internal/services/gateway"
	"github.com/pulseguard/pulseguard/internal/services/notifier"
	"github.com/pulseguard/pulseguard/internal/services/stats"
	"github.com/pulseguard/pulseguard/internal/services/stream"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := flag.String("config", "config/monitord.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	l, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		panic(err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting monitord", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	ot, err := obs.SetupOTel(rootCtx, cfg.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = ot.Shutdown(rootCtx) }()

	var db *pg.DB
	err = retry.Do(rootCtx, func() error {
		var derr error
		db, derr = pg.New(rootCtx, cfg.DB)
		return derr
	}, retry.DBConnectPolicy(l))
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	servers := pg.NewServerRepo(db)
	pings := pg.NewPingRepo(db)
	statuses := pg.NewStatusRepo(db)
	notifConfigs := pg.NewNotificationRepo(db)
	accounts := pg.NewAccountRepo(db)

	bus := event.NewBus(l)
	defer bus.Close()

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
	dispatcher := &notifier.Dispatcher{
		Configs:  notifConfigs,
		Accounts: accounts,
		Senders:  senders,
		Log:      l,
	}
	alerts := notifier.NewRunner(l, dispatcher, cfg.Notify.QueueSize)

	hub := stream.NewHub(l, servers, statuses, pings, cfg.Stream.AllowedOrigins)
	feed := bus.Subscribe("stream-hub", cfg.Stream.BusBuffer)

	uc := &checker.Usecase{
		Servers:  servers,
		Pings:    pings,
		Statuses: statuses,
		Prober:   probe.New(cfg.AsProbeConfig()),
		Events:   bus,
		Alerts:   alerts,
		Log:      l,
		Workers:  cfg.Sched.Workers,
		Tx:       pg.NewTransactor(db, l),
	}
	runner := checker.NewRunner(l, uc, cfg.Sched.Interval)

	statsHandler := &stats.Handler{
		UC:  &stats.Usecase{Servers: servers, Pings: pings, Statuses: statuses, Log: l},
		Log: l,
	}
	gw := gateway.New(gateway.Config{
		Addr:            cfg.HTTP.Addr,
		GracefulTimeout: cfg.HTTP.GracefulTimeout,
		AuthSecret:      []byte(cfg.Auth.Secret),
		TriggerKeyHash:  cfg.Auth.TriggerKeyHash,
	}, gateway.Deps{
		Log:     l,
		Checker: uc,
		Emitter: stream.NewEmitter(l, statuses, pings),
		Hub:     hub,
		Stats:   statsHandler,
	})

	ms := obs.BootstrapMetricsServer(cfg.HTTP.MetricsAddr, db.Pool.Ping, l)

	errCh := make(chan error, 4)
	go func() { errCh <- runner.Run(rootCtx) }()
	go func() { errCh <- alerts.Run(rootCtx) }()
	go func() { errCh <- hub.Run(rootCtx, feed) }()
	go func() { errCh <- gw.Run() }()

	select {
	case <-rootCtx.Done():
		l.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runtime error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.GracefulTimeout)
	defer cancel()
	_ = gw.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)

	time.Sleep(100 * time.Millisecond)
	l.Info("bye")
}
