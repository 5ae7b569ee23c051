package ping

import "time"

// Status is the normalized outcome of a single probe. Failures are
// data here, not errors; they flow into storage like successes.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
)

func (s Status) OK() bool { return s == StatusSuccess }

// Result is one appended row of probe history. Rows are never mutated;
// CheckedAt descending is the per-server ordering key.
type Result struct {
	ID           int64     `json:"id"`
	ServerID     int64     `json:"server"`
	ServerName   string    `json:"server_name,omitempty"`
	Status       Status    `json:"status"`
	ResponseTime *float64  `json:"response_time"`
	StatusCode   *int      `json:"status_code"`
	ErrorMessage string    `json:"error_message"`
	CheckedAt    time.Time `json:"check_timestamp"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Reason is what the status reducer records as the human-readable
// message for a non-success result.
func (r *Result) Reason() string {
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	return string(r.Status)
}
