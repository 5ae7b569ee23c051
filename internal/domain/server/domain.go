package server

import (
	"fmt"
	"time"
)

// Protocol selects the probe strategy for a server. The set is closed;
// the probe executor keeps one handler per value.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolTCP   Protocol = "tcp"
	ProtocolICMP  Protocol = "icmp"
)

// State is the operator-facing lifecycle of a server. Only active
// servers are picked up by the check cycle.
type State string

const (
	StateActive      State = "active"
	StateInactive    State = "inactive"
	StateMaintenance State = "maintenance"
)

type Server struct {
	ID            int64         `json:"id"`
	OwnerID       *int64        `json:"owner_id"`
	OrgID         *int64        `json:"organization_id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Protocol      Protocol      `json:"protocol"`
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	Path          string        `json:"path"`
	CheckInterval time.Duration `json:"check_interval"`
	Timeout       time.Duration `json:"timeout"`
	State         State         `json:"state"`
	Tags          string        `json:"tags"`
	NotifyOnDown  bool          `json:"notify_on_failure"`
	NotifyOnUp    bool          `json:"notify_recovery"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// URL composes the address an HTTP probe hits. The port is always
// explicit and the path is stored with its leading slash.
func (s *Server) URL() string {
	return fmt.Sprintf("%s://%s:%d%s", s.Protocol, s.Host, s.Port, s.Path)
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
