package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pulseguard/pulseguard/internal/domain/ping"
)

var _ ping.Repo = (*PingRepoImpl)(nil)

type PingRepoImpl struct{ db *DB }

func NewPingRepo(db *DB) *PingRepoImpl { return &PingRepoImpl{db: db} }

const (
	qPingInsert = `
INSERT INTO ping_results (server_id, status, response_time_ms, status_code, error_message, checked_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at;
`

	qPingSelect = `
SELECT p.id, p.server_id, s.name, p.status, p.response_time_ms, p.status_code,
       p.error_message, p.checked_at, p.created_at, p.updated_at
FROM ping_results p
JOIN servers s ON s.id = p.server_id
`

	qPingCountByStatus = `
SELECT status, COUNT(*)
FROM ping_results
WHERE checked_at >= $1
GROUP BY status;
`

	qPingUptimeByServer = `
SELECT server_id, COUNT(*), COUNT(*) FILTER (WHERE status = 'success')
FROM ping_results
WHERE checked_at >= $1
GROUP BY server_id;
`

	qPingLatencyOverall = `
SELECT COALESCE(AVG(response_time_ms), 0), COALESCE(MIN(response_time_ms), 0),
       COALESCE(MAX(response_time_ms), 0), COUNT(*)
FROM ping_results
WHERE checked_at >= $1 AND status = 'success' AND response_time_ms IS NOT NULL;
`

	qPingLatencyByServer = `
SELECT p.server_id, s.name, AVG(p.response_time_ms), COUNT(*)
FROM ping_results p
JOIN servers s ON s.id = p.server_id
WHERE p.checked_at >= $1 AND p.status = 'success' AND p.response_time_ms IS NOT NULL
GROUP BY p.server_id, s.name
ORDER BY s.name;
`

	qPingRecentFailures = qPingSelect + `
WHERE p.checked_at >= $1 AND p.status <> 'success'
ORDER BY p.checked_at DESC
LIMIT $2;
`

	qPingTopFailing = `
SELECT p.server_id, s.name, COUNT(*) AS failures
FROM ping_results p
JOIN servers s ON s.id = p.server_id
WHERE p.checked_at >= $1 AND p.status <> 'success'
GROUP BY p.server_id, s.name
ORDER BY failures DESC
LIMIT $2;
`
)

func scanPing(row pgx.Row, p *ping.Result) error {
	if err := row.Scan(
		&p.ID,
		&p.ServerID,
		&p.ServerName,
		&p.Status,
		&p.ResponseTime,
		&p.StatusCode,
		&p.ErrorMessage,
		&p.CheckedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("scan ping result: %w", err)
	}
	return nil
}

func (r *PingRepoImpl) Insert(ctx context.Context, p *ping.Result) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	if err := eq.QueryRow(ctx, qPingInsert,
		p.ServerID,
		p.Status,
		p.ResponseTime,
		p.StatusCode,
		p.ErrorMessage,
		p.CheckedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert ping result: %w", err)
	}
	return nil
}

func (r *PingRepoImpl) ListRecent(ctx context.Context, f ping.Filter) ([]*ping.Result, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	q := qPingSelect
	var (
		where []string
		args  []any
	)
	if len(f.ServerIDs) > 0 {
		args = append(args, f.ServerIDs)
		where = append(where, fmt.Sprintf("p.server_id = ANY($%d)", len(args)))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		where = append(where, fmt.Sprintf("p.checked_at > $%d", len(args)))
	}
	if len(where) > 0 {
		q += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	args = append(args, limit)
	q += fmt.Sprintf("ORDER BY p.checked_at DESC\nLIMIT $%d;", len(args))

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query ping results: %w", err)
	}
	defer rows.Close()
	return collectPings(rows, limit)
}

func (r *PingRepoImpl) CountByStatus(ctx context.Context, since time.Time) (map[ping.Status]int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qPingCountByStatus, since)
	if err != nil {
		return nil, fmt.Errorf("count pings: %w", err)
	}
	defer rows.Close()

	out := make(map[ping.Status]int64)
	for rows.Next() {
		var (
			st ping.Status
			n  int64
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan ping count: %w", err)
		}
		out[st] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PingRepoImpl) UptimeByServer(ctx context.Context, since time.Time) ([]ping.UptimeAgg, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qPingUptimeByServer, since)
	if err != nil {
		return nil, fmt.Errorf("query uptime: %w", err)
	}
	defer rows.Close()

	var out []ping.UptimeAgg
	for rows.Next() {
		var a ping.UptimeAgg
		if err := rows.Scan(&a.ServerID, &a.Total, &a.Successful); err != nil {
			return nil, fmt.Errorf("scan uptime: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PingRepoImpl) LatencyOverall(ctx context.Context, since time.Time) (*ping.LatencyAgg, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var a ping.LatencyAgg
	if err := r.db.Pool.QueryRow(ctx, qPingLatencyOverall, since).
		Scan(&a.Avg, &a.Min, &a.Max, &a.Count); err != nil {
		return nil, fmt.Errorf("query latency: %w", err)
	}
	return &a, nil
}

func (r *PingRepoImpl) LatencyByServer(ctx context.Context, since time.Time) ([]ping.ServerLatency, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qPingLatencyByServer, since)
	if err != nil {
		return nil, fmt.Errorf("query server latency: %w", err)
	}
	defer rows.Close()

	var out []ping.ServerLatency
	for rows.Next() {
		var l ping.ServerLatency
		if err := rows.Scan(&l.ServerID, &l.ServerName, &l.Avg, &l.Count); err != nil {
			return nil, fmt.Errorf("scan server latency: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PingRepoImpl) RecentFailures(ctx context.Context, since time.Time, limit int) ([]*ping.Result, error) {
	if limit <= 0 {
		limit = 10
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qPingRecentFailures, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()
	return collectPings(rows, limit)
}

func (r *PingRepoImpl) TopFailing(ctx context.Context, since time.Time, limit int) ([]ping.FailureCount, error) {
	if limit <= 0 {
		limit = 5
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qPingTopFailing, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query top failing: %w", err)
	}
	defer rows.Close()

	var out []ping.FailureCount
	for rows.Next() {
		var f ping.FailureCount
		if err := rows.Scan(&f.ServerID, &f.ServerName, &f.Count); err != nil {
			return nil, fmt.Errorf("scan top failing: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func collectPings(rows pgx.Rows, limit int) ([]*ping.Result, error) {
	out := make([]*ping.Result, 0, limit)
	for rows.Next() {
		var p ping.Result
		if err := scanPing(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
