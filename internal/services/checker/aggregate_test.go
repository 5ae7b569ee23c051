package checker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pulseguard/pulseguard/internal/domain/ping"
	"github.com/pulseguard/pulseguard/internal/domain/status"
)

func failRes(st ping.Status, msg string) *ping.Result {
	return &ping.Result{Status: st, ErrorMessage: msg}
}

func okRes() *ping.Result {
	code := 200
	return &ping.Result{Status: ping.StatusSuccess, StatusCode: &code}
}

func TestAdvance_SuccessResetsStreak(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st := &status.ServerStatus{
		Status:              status.Degraded,
		ConsecutiveFailures: 2,
		FailureThreshold:    3,
	}

	advance(st, okRes(), now)

	require.Equal(t, status.Up, st.Status)
	require.Equal(t, 0, st.ConsecutiveFailures)
	require.Equal(t, "OK", st.Message)
	require.NotNil(t, st.LastCheck)
	require.Equal(t, now, *st.LastCheck)
	require.NotNil(t, st.LastUp)
	require.Equal(t, now, *st.LastUp)
}

func TestAdvance_FailuresDegradeThenDrop(t *testing.T) {
	now := time.Now().UTC()
	st := &status.ServerStatus{Status: status.Up, FailureThreshold: 3}

	advance(st, failRes(ping.StatusFailure, "HTTP 503"), now)
	require.Equal(t, status.Degraded, st.Status)
	require.Equal(t, 1, st.ConsecutiveFailures)
	require.Equal(t, "HTTP 503", st.Message)

	advance(st, failRes(ping.StatusTimeout, ""), now.Add(time.Minute))
	require.Equal(t, status.Degraded, st.Status)
	require.Equal(t, 2, st.ConsecutiveFailures)
	require.Equal(t, "timeout", st.Message)

	advance(st, failRes(ping.StatusError, "dial refused"), now.Add(2*time.Minute))
	require.Equal(t, status.Down, st.Status)
	require.Equal(t, 3, st.ConsecutiveFailures)
	require.NotNil(t, st.LastDown)
}

func TestAdvance_StreakKeepsGrowingPastThreshold(t *testing.T) {
	now := time.Now().UTC()
	st := &status.ServerStatus{Status: status.Down, ConsecutiveFailures: 3, FailureThreshold: 3}

	for i := 0; i < 4; i++ {
		advance(st, failRes(ping.StatusFailure, "still broken"), now.Add(time.Duration(i)*time.Minute))
	}

	require.Equal(t, status.Down, st.Status)
	require.Equal(t, 7, st.ConsecutiveFailures)
}

func TestAdvance_ThresholdOneDropsImmediately(t *testing.T) {
	st := &status.ServerStatus{Status: status.Up, FailureThreshold: 1}

	advance(st, failRes(ping.StatusFailure, ""), time.Now())

	require.Equal(t, status.Down, st.Status)
	require.Equal(t, 1, st.ConsecutiveFailures)
}

func TestAdvance_ZeroThresholdUsesDefault(t *testing.T) {
	st := &status.ServerStatus{Status: status.Unknown}

	now := time.Now()
	advance(st, failRes(ping.StatusFailure, ""), now)
	advance(st, failRes(ping.StatusFailure, ""), now)
	require.Equal(t, status.Degraded, st.Status)

	advance(st, failRes(ping.StatusFailure, ""), now)
	require.Equal(t, status.Down, st.Status)
	require.Equal(t, status.DefaultFailureThreshold, st.ConsecutiveFailures)
}

func TestAdvance_RecoveryFromDown(t *testing.T) {
	now := time.Now().UTC()
	st := &status.ServerStatus{
		Status:              status.Down,
		ConsecutiveFailures: 9,
		FailureThreshold:    3,
		Message:             "dial refused",
	}

	advance(st, okRes(), now)

	require.Equal(t, status.Up, st.Status)
	require.Equal(t, 0, st.ConsecutiveFailures)
	require.Equal(t, "OK", st.Message)
}

func TestAdvance_ThresholdNeverMutated(t *testing.T) {
	st := &status.ServerStatus{Status: status.Up, FailureThreshold: 5}
	now := time.Now()

	for i := 0; i < 8; i++ {
		advance(st, failRes(ping.StatusFailure, ""), now)
	}
	advance(st, okRes(), now)

	require.Equal(t, 5, st.FailureThreshold)
}
