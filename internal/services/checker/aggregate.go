package checker

import (
	"time"

	"github.com/pulseguard/pulseguard/internal/domain/ping"
	"github.com/pulseguard/pulseguard/internal/domain/status"
)

// advance applies one probe result to a status row, in place. Success
// clears the failure streak; anything else grows it, and the row flips
// to down only once the streak reaches the server's threshold. The
// threshold itself is never changed here.
func advance(st *status.ServerStatus, res *ping.Result, now time.Time) {
	st.LastCheck = &now

	if res.Status.OK() {
		st.ConsecutiveFailures = 0
		st.Status = status.Up
		st.LastUp = &now
		st.Message = "OK"
		return
	}

	st.ConsecutiveFailures++
	st.LastDown = &now
	st.Message = res.Reason()
	if st.ConsecutiveFailures >= st.Threshold() {
		st.Status = status.Down
	} else {
		st.Status = status.Degraded
	}
}
