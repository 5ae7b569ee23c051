package ping

import (
	"context"
	"time"
)

// Filter narrows ListRecent. Limit <= 0 falls back to the repo default.
type Filter struct {
	ServerIDs []int64
	Since     *time.Time
	Limit     int
}

// UptimeAgg is the per-server success ratio source for a window.
type UptimeAgg struct {
	ServerID   int64
	Total      int64
	Successful int64
}

// LatencyAgg summarizes recorded response times of successful probes.
type LatencyAgg struct {
	Avg   float64
	Min   float64
	Max   float64
	Count int64
}

type ServerLatency struct {
	ServerID   int64
	ServerName string
	Avg        float64
	Count      int64
}

type FailureCount struct {
	ServerID   int64
	ServerName string
	Count      int64
}

type Repo interface {
	Insert(ctx context.Context, p *Result) error
	ListRecent(ctx context.Context, f Filter) ([]*Result, error)

	CountByStatus(ctx context.Context, since time.Time) (map[Status]int64, error)
	UptimeByServer(ctx context.Context, since time.Time) ([]UptimeAgg, error)
	LatencyOverall(ctx context.Context, since time.Time) (*LatencyAgg, error)
	LatencyByServer(ctx context.Context, since time.Time) ([]ServerLatency, error)
	RecentFailures(ctx context.Context, since time.Time, limit int) ([]*Result, error)
	TopFailing(ctx context.Context, since time.Time, limit int) ([]FailureCount, error)
}
