package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pulseguard/pulseguard/internal/domain/notification"
	"github.com/pulseguard/pulseguard/internal/domain/status"
	"github.com/pulseguard/pulseguard/internal/event"
)

// webhookPayload is the wire contract consumers integrate against; field
// names are stable.
type webhookPayload struct {
	Event               string        `json:"event"`
	ServerName          string        `json:"server_name"`
	ServerURL           string        `json:"server_url"`
	NewStatus           status.Status `json:"new_status"`
	OldStatus           status.Status `json:"old_status"`
	UptimePercentage    float64       `json:"uptime_percentage"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	Message             string        `json:"message"`
	LastCheck           *time.Time    `json:"last_check"`
	Timestamp           time.Time     `json:"timestamp"`
}

// WebhookSender POSTs the transition as JSON to the config's recipient
// URL. A non-2xx answer counts as a failed delivery; there are no
// retries.
type WebhookSender struct {
	client *http.Client
	now    func() time.Time
}

var _ Sender = (*WebhookSender)(nil)

func NewWebhookSender(timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
}

func (s *WebhookSender) Send(ctx context.Context, ev event.Transition, cfg *notification.Config, recovery bool) error {
	kind := "failure"
	if recovery {
		kind = "recovery"
	}
	payload := webhookPayload{
		Event:               kind,
		ServerName:          ev.Server.Name,
		ServerURL:           ev.Server.URL(),
		NewStatus:           ev.Status.Status,
		OldStatus:           ev.Before,
		UptimePercentage:    ev.Status.UptimePercentage,
		ConsecutiveFailures: ev.Status.ConsecutiveFailures,
		Message:             ev.Status.Message,
		LastCheck:           ev.Status.LastCheck,
		Timestamp:           s.now().UTC(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Recipient, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
