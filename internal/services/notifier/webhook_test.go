package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pulseguard/pulseguard/internal/domain/notification"
	"github.com/pulseguard/pulseguard/internal/domain/status"
)

func TestWebhookSender_PostsFailurePayload(t *testing.T) {
	var (
		gotBody []byte
		gotCT   string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ev := transition(status.Up, status.Down)
	ev.Status.Message = "HTTP 503"
	ev.Status.UptimePercentage = 97.25

	s := NewWebhookSender(2 * time.Second)
	s.now = func() time.Time { return testNow }

	cfg := notifConfig(1, notification.ChannelWebhook)
	cfg.Recipient = ts.URL

	require.NoError(t, s.Send(context.Background(), ev, cfg, false))
	require.Equal(t, "application/json", gotCT)

	var p webhookPayload
	require.NoError(t, json.Unmarshal(gotBody, &p))
	require.Equal(t, "failure", p.Event)
	require.Equal(t, "api", p.ServerName)
	require.Equal(t, "https://example.com:443/", p.ServerURL)
	require.Equal(t, status.Down, p.NewStatus)
	require.Equal(t, status.Up, p.OldStatus)
	require.Equal(t, 3, p.ConsecutiveFailures)
	require.Equal(t, "HTTP 503", p.Message)
	require.Equal(t, testNow, p.Timestamp)
}

func TestWebhookSender_RecoveryKind(t *testing.T) {
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	s := NewWebhookSender(2 * time.Second)
	cfg := notifConfig(1, notification.ChannelWebhook)
	cfg.Recipient = ts.URL

	require.NoError(t, s.Send(context.Background(), transition(status.Down, status.Up), cfg, true))

	var p webhookPayload
	require.NoError(t, json.Unmarshal(gotBody, &p))
	require.Equal(t, "recovery", p.Event)
	require.Equal(t, status.Up, p.NewStatus)
}

func TestWebhookSender_Non2xxIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer ts.Close()

	s := NewWebhookSender(2 * time.Second)
	cfg := notifConfig(1, notification.ChannelWebhook)
	cfg.Recipient = ts.URL

	err := s.Send(context.Background(), transition(status.Up, status.Down), cfg, false)
	require.ErrorContains(t, err, "webhook returned 502")
}

func TestWebhookSender_ConnectFailureIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	s := NewWebhookSender(time.Second)
	cfg := notifConfig(1, notification.ChannelWebhook)
	cfg.Recipient = url

	err := s.Send(context.Background(), transition(status.Up, status.Down), cfg, false)
	require.Error(t, err)
}
