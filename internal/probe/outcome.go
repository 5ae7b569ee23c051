package probe

import (
	"time"

	"github.com/pulseguard/pulseguard/internal/domain/ping"
)

// Outcome is the normalized result of one probe. Non-success statuses
// are expected data, not errors; the caller persists them like any
// other result.
type Outcome struct {
	Status       ping.Status
	StatusCode   *int
	ResponseTime *float64
	ErrorMessage string
}

// Result materializes the outcome as a history row for one server.
func (o Outcome) Result(serverID int64, at time.Time) *ping.Result {
	return &ping.Result{
		ServerID:     serverID,
		Status:       o.Status,
		ResponseTime: o.ResponseTime,
		StatusCode:   o.StatusCode,
		ErrorMessage: o.ErrorMessage,
		CheckedAt:    at,
	}
}
