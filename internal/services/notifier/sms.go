package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/domain/notification"
	"github.com/pulseguard/pulseguard/internal/event"
)

// SMSConfig holds the credentials for a Twilio-compatible REST gateway.
type SMSConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	Timeout    time.Duration
}

// SMSSender posts one-line status summaries to the gateway. Missing
// credentials fail closed: Send errors instead of silently dropping.
type SMSSender struct {
	base  string
	sid   string
	token string
	from  string

	client *http.Client
	log    *zap.Logger
}

var _ Sender = (*SMSSender)(nil)

func NewSMSSender(cfg SMSConfig, l *zap.Logger) *SMSSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMSSender{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		sid:   cfg.AccountSID,
		token: cfg.AuthToken,
		from:  cfg.From,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: l.With(zap.String("component", "notifier.sms")),
	}
}

func (s *SMSSender) Send(ctx context.Context, ev event.Transition, cfg *notification.Config, recovery bool) error {
	if s.sid == "" || s.token == "" || s.from == "" {
		return errors.New("sms gateway credentials missing")
	}

	prefix := "ALERT"
	if recovery {
		prefix = "RECOVERED"
	}
	text := fmt.Sprintf("%s: %s is %s. Uptime: %.1f%%",
		prefix, ev.Server.Name, strings.ToUpper(string(ev.Status.Status)), ev.Status.UptimePercentage)

	form := url.Values{
		"To":   {cfg.Recipient},
		"From": {s.from},
		"Body": {text},
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.base, s.sid)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.SetBasicAuth(s.sid, s.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post sms: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}
	s.log.Debug("sms accepted", zap.String("to", cfg.Recipient))
	return nil
}
