package status

import "time"

// Status is the hysteresis-derived live state of a server.
type Status string

const (
	Up       Status = "up"
	Down     Status = "down"
	Degraded Status = "degraded"
	Unknown  Status = "unknown"
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	switch s {
	case Up, Down, Degraded, Unknown:
		return true
	}
	return false
}

// DefaultFailureThreshold is how many consecutive failures flip a
// server to down when the row does not configure its own.
const DefaultFailureThreshold = 3

// ServerStatus is the single mutable row per server. Invariants held
// by the reducer: down implies ConsecutiveFailures >= FailureThreshold,
// degraded implies 0 < ConsecutiveFailures < FailureThreshold, up
// implies ConsecutiveFailures == 0.
type ServerStatus struct {
	ID                  int64      `json:"id"`
	ServerID            int64      `json:"server"`
	ServerName          string     `json:"server_name,omitempty"`
	Status              Status     `json:"status"`
	UptimePercentage    float64    `json:"uptime_percentage"`
	LastCheck           *time.Time `json:"last_check"`
	LastUp              *time.Time `json:"last_up"`
	LastDown            *time.Time `json:"last_down"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	FailureThreshold    int        `json:"failure_threshold"`
	Message             string     `json:"message"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Threshold returns the effective failure threshold for the row.
func (s *ServerStatus) Threshold() int {
	if s.FailureThreshold > 0 {
		return s.FailureThreshold
	}
	return DefaultFailureThreshold
}
