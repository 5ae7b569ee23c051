package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/domain/notification"
	"github.com/pulseguard/pulseguard/internal/domain/status"
)

func TestSMSSender_MissingCredentialsFailClosed(t *testing.T) {
	s := NewSMSSender(SMSConfig{BaseURL: "https://api.twilio.com"}, zap.NewNop())

	err := s.Send(context.Background(), transition(status.Up, status.Down),
		notifConfig(1, notification.ChannelSMS), false)
	require.EqualError(t, err, "sms gateway credentials missing")
}

func TestSMSSender_PostsForm(t *testing.T) {
	var (
		gotPath string
		gotUser string
		gotPass string
		gotForm map[string]string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"To":   r.PostForm.Get("To"),
			"From": r.PostForm.Get("From"),
			"Body": r.PostForm.Get("Body"),
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	s := NewSMSSender(SMSConfig{
		BaseURL:    ts.URL,
		AccountSID: "AC123",
		AuthToken:  "tok",
		From:       "+15550100",
		Timeout:    2 * time.Second,
	}, zap.NewNop())

	ev := transition(status.Up, status.Down)
	ev.Status.UptimePercentage = 98.04

	cfg := notifConfig(1, notification.ChannelSMS)
	cfg.Recipient = "+15550123"

	require.NoError(t, s.Send(context.Background(), ev, cfg, false))

	require.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	require.Equal(t, "AC123", gotUser)
	require.Equal(t, "tok", gotPass)
	require.Equal(t, "+15550123", gotForm["To"])
	require.Equal(t, "+15550100", gotForm["From"])
	require.Equal(t, "ALERT: api is DOWN. Uptime: 98.0%", gotForm["Body"])
}

func TestSMSSender_GatewayRejectionIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad number", http.StatusBadRequest)
	}))
	defer ts.Close()

	s := NewSMSSender(SMSConfig{
		BaseURL: ts.URL, AccountSID: "AC123", AuthToken: "tok", From: "+15550100",
	}, zap.NewNop())

	err := s.Send(context.Background(), transition(status.Up, status.Down),
		notifConfig(1, notification.ChannelSMS), false)
	require.ErrorContains(t, err, "sms gateway returned 400")
}

func TestSMSSender_RecoveryText(t *testing.T) {
	var body string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		body = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	s := NewSMSSender(SMSConfig{
		BaseURL: ts.URL, AccountSID: "AC123", AuthToken: "tok", From: "+15550100",
	}, zap.NewNop())

	ev := transition(status.Down, status.Up)
	ev.Status.UptimePercentage = 100

	require.NoError(t, s.Send(context.Background(), ev,
		notifConfig(1, notification.ChannelSMS), true))
	require.Equal(t, "RECOVERED: api is UP. Uptime: 100.0%", body)
}
