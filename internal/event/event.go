package event

import (
	"github.com/pulseguard/pulseguard/internal/domain/ping"
	"github.com/pulseguard/pulseguard/internal/domain/server"
	"github.com/pulseguard/pulseguard/internal/domain/status"
)

// Transition is emitted once per completed check, after the ping row
// and the status row are persisted. Persistence is the durability
// boundary; everything downstream of a Transition is best-effort.
type Transition struct {
	Server *server.Server       `json:"server"`
	Ping   *ping.Result         `json:"ping"`
	Before status.Status        `json:"status_before"`
	Status *status.ServerStatus `json:"status_after"`
}

// Notable reports whether the status string actually changed. Only
// notable transitions are worth alerting on; fan-out consumers get
// every transition regardless.
func (t Transition) Notable() bool {
	return t.Before != t.Status.Status
}
