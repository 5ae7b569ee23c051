package stats

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/domain/ping"
	"github.com/pulseguard/pulseguard/internal/domain/server"
	"github.com/pulseguard/pulseguard/internal/domain/status"
)

// Usecase computes read-only aggregates over the ping history and the
// current status rows.
type Usecase struct {
	Servers  server.Repo
	Pings    ping.Repo
	Statuses status.Repo
	Log      *zap.Logger
	Now      func() time.Time
}

type ServersOverview struct {
	Total           int64            `json:"total"`
	Active          int64            `json:"active"`
	Inactive        int64            `json:"inactive"`
	StatusBreakdown map[string]int64 `json:"status_breakdown"`
}

type ChecksOverview struct {
	Total       int64   `json:"total"`
	Successful  int64   `json:"successful"`
	Failed      int64   `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

type Performance struct {
	AvgResponseTimeMS *float64 `json:"avg_response_time_ms"`
}

type Overview struct {
	PeriodDays  int             `json:"period_days"`
	Servers     ServersOverview `json:"servers"`
	Checks      ChecksOverview  `json:"checks"`
	Performance Performance     `json:"performance"`
}

type ServerUptime struct {
	ServerID         int64      `json:"server_id"`
	ServerName       string     `json:"server_name"`
	URL              string     `json:"url"`
	UptimePercentage float64    `json:"uptime_percentage"`
	TotalChecks      int64      `json:"total_checks"`
	SuccessfulChecks int64      `json:"successful_checks"`
	CurrentStatus    string     `json:"current_status"`
	LastCheck        *time.Time `json:"last_check"`
}

type UptimeReport struct {
	PeriodDays int            `json:"period_days"`
	Servers    []ServerUptime `json:"servers"`
}

type LatencyOverall struct {
	AvgMS       *float64 `json:"avg_ms"`
	MinMS       *float64 `json:"min_ms"`
	MaxMS       *float64 `json:"max_ms"`
	TotalChecks int64    `json:"total_checks"`
}

type ServerLatency struct {
	ServerID   int64   `json:"server_id"`
	ServerName string  `json:"server_name"`
	AvgMS      float64 `json:"avg_ms"`
	CheckCount int64   `json:"check_count"`
}

type LatencyReport struct {
	PeriodDays int             `json:"period_days"`
	Overall    LatencyOverall  `json:"overall"`
	ByServer   []ServerLatency `json:"by_server"`
}

type TopFailingServer struct {
	ServerID   int64  `json:"server_id"`
	ServerName string `json:"server_name"`
	Failures   int64  `json:"failures"`
}

type FailureReport struct {
	PeriodDays        int                `json:"period_days"`
	TotalFailures     int64              `json:"total_failures"`
	ByType            map[string]int64   `json:"by_type"`
	RecentFailures    []*ping.Result     `json:"recent_failures"`
	TopFailingServers []TopFailingServer `json:"top_failing_servers"`
}

func (u *Usecase) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u *Usecase) windowStart(days int) time.Time {
	return u.now().Add(-time.Duration(days) * 24 * time.Hour)
}

func (u *Usecase) Overview(ctx context.Context, days int) (*Overview, error) {
	tr := otel.Tracer("stats")
	ctx, span := tr.Start(ctx, "stats.overview")
	span.SetAttributes(attribute.Int("window.days", days))
	defer span.End()

	total, active, err := u.Servers.Counts(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := u.Statuses.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	since := u.windowStart(days)
	checks, err := u.Pings.CountByStatus(ctx, since)
	if err != nil {
		return nil, err
	}
	lat, err := u.Pings.LatencyOverall(ctx, since)
	if err != nil {
		return nil, err
	}

	var totalChecks int64
	for _, n := range checks {
		totalChecks += n
	}
	successful := checks[ping.StatusSuccess]
	rate := 0.0
	if totalChecks > 0 {
		rate = round2(float64(successful) / float64(totalChecks) * 100)
	}

	var avg *float64
	if lat.Count > 0 {
		v := round2(lat.Avg)
		avg = &v
	}

	return &Overview{
		PeriodDays: days,
		Servers: ServersOverview{
			Total:    total,
			Active:   active,
			Inactive: total - active,
			StatusBreakdown: map[string]int64{
				string(status.Up):       byStatus[status.Up],
				string(status.Down):     byStatus[status.Down],
				string(status.Degraded): byStatus[status.Degraded],
				string(status.Unknown):  byStatus[status.Unknown],
			},
		},
		Checks: ChecksOverview{
			Total:       totalChecks,
			Successful:  successful,
			Failed:      totalChecks - successful,
			SuccessRate: rate,
		},
		Performance: Performance{AvgResponseTimeMS: avg},
	}, nil
}

func (u *Usecase) Uptime(ctx context.Context, days int) (*UptimeReport, error) {
	tr := otel.Tracer("stats")
	ctx, span := tr.Start(ctx, "stats.uptime")
	span.SetAttributes(attribute.Int("window.days", days))
	defer span.End()

	servers, err := u.Servers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	aggs, err := u.Pings.UptimeByServer(ctx, u.windowStart(days))
	if err != nil {
		return nil, err
	}
	byServer := make(map[int64]ping.UptimeAgg, len(aggs))
	for _, a := range aggs {
		byServer[a.ServerID] = a
	}
	statuses, err := u.Statuses.List(ctx, status.Filter{})
	if err != nil {
		return nil, err
	}
	statusByServer := make(map[int64]*status.ServerStatus, len(statuses))
	for _, st := range statuses {
		statusByServer[st.ServerID] = st
	}

	out := make([]ServerUptime, 0, len(servers))
	for _, s := range servers {
		agg := byServer[s.ID]
		pct := 0.0
		if agg.Total > 0 {
			pct = round2(float64(agg.Successful) / float64(agg.Total) * 100)
		}
		row := ServerUptime{
			ServerID:         s.ID,
			ServerName:       s.Name,
			URL:              s.URL(),
			UptimePercentage: pct,
			TotalChecks:      agg.Total,
			SuccessfulChecks: agg.Successful,
			CurrentStatus:    string(status.Unknown),
		}
		if st, ok := statusByServer[s.ID]; ok {
			row.CurrentStatus = string(st.Status)
			row.LastCheck = st.LastCheck
		}
		out = append(out, row)
	}
	return &UptimeReport{PeriodDays: days, Servers: out}, nil
}

func (u *Usecase) ResponseTimes(ctx context.Context, days int) (*LatencyReport, error) {
	tr := otel.Tracer("stats")
	ctx, span := tr.Start(ctx, "stats.response_times")
	span.SetAttributes(attribute.Int("window.days", days))
	defer span.End()

	since := u.windowStart(days)
	overall, err := u.Pings.LatencyOverall(ctx, since)
	if err != nil {
		return nil, err
	}
	perServer, err := u.Pings.LatencyByServer(ctx, since)
	if err != nil {
		return nil, err
	}

	report := &LatencyReport{
		PeriodDays: days,
		Overall:    LatencyOverall{TotalChecks: overall.Count},
		ByServer:   make([]ServerLatency, 0, len(perServer)),
	}
	if overall.Count > 0 {
		avg, min, max := round2(overall.Avg), round2(overall.Min), round2(overall.Max)
		report.Overall.AvgMS, report.Overall.MinMS, report.Overall.MaxMS = &avg, &min, &max
	}
	for _, s := range perServer {
		report.ByServer = append(report.ByServer, ServerLatency{
			ServerID:   s.ServerID,
			ServerName: s.ServerName,
			AvgMS:      round2(s.Avg),
			CheckCount: s.Count,
		})
	}
	return report, nil
}

func (u *Usecase) Failures(ctx context.Context, days int) (*FailureReport, error) {
	tr := otel.Tracer("stats")
	ctx, span := tr.Start(ctx, "stats.failures")
	span.SetAttributes(attribute.Int("window.days", days))
	defer span.End()

	since := u.windowStart(days)
	counts, err := u.Pings.CountByStatus(ctx, since)
	if err != nil {
		return nil, err
	}
	recent, err := u.Pings.RecentFailures(ctx, since, 0)
	if err != nil {
		return nil, err
	}
	top, err := u.Pings.TopFailing(ctx, since, 0)
	if err != nil {
		return nil, err
	}

	byType := map[string]int64{
		string(ping.StatusFailure): counts[ping.StatusFailure],
		string(ping.StatusTimeout): counts[ping.StatusTimeout],
		string(ping.StatusError):   counts[ping.StatusError],
	}
	var totalFailures int64
	for _, n := range byType {
		totalFailures += n
	}

	report := &FailureReport{
		PeriodDays:        days,
		TotalFailures:     totalFailures,
		ByType:            byType,
		RecentFailures:    recent,
		TopFailingServers: make([]TopFailingServer, 0, len(top)),
	}
	if report.RecentFailures == nil {
		report.RecentFailures = []*ping.Result{}
	}
	for _, t := range top {
		report.TopFailingServers = append(report.TopFailingServers, TopFailingServer{
			ServerID:   t.ServerID,
			ServerName: t.ServerName,
			Failures:   t.Count,
		})
	}
	return report, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
