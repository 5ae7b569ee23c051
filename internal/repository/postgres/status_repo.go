package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pulseguard/pulseguard/internal/domain/status"
)

var _ status.Repo = (*StatusRepoImpl)(nil)

type StatusRepoImpl struct{ db *DB }

func NewStatusRepo(db *DB) *StatusRepoImpl { return &StatusRepoImpl{db: db} }

const (
	qStatusEnsure = `
INSERT INTO server_statuses (server_id)
VALUES ($1)
ON CONFLICT (server_id) DO NOTHING;
`

	qStatusSelect = `
SELECT st.id, st.server_id, s.name, st.status, st.uptime_percentage, st.last_check,
       st.last_up, st.last_down, st.consecutive_failures, st.failure_threshold,
       st.message, st.created_at, st.updated_at
FROM server_statuses st
JOIN servers s ON s.id = st.server_id
`

	qStatusByServer = qStatusSelect + `WHERE st.server_id = $1;`

	qStatusUpdate = `
UPDATE server_statuses
SET status = $2, uptime_percentage = $3, last_check = $4, last_up = $5, last_down = $6,
    consecutive_failures = $7, message = $8, updated_at = NOW()
WHERE server_id = $1
RETURNING id, updated_at;
`

	qStatusCounts = `
SELECT status, COUNT(*)
FROM server_statuses
GROUP BY status;
`
)

func scanStatus(row pgx.Row, st *status.ServerStatus) error {
	if err := row.Scan(
		&st.ID,
		&st.ServerID,
		&st.ServerName,
		&st.Status,
		&st.UptimePercentage,
		&st.LastCheck,
		&st.LastUp,
		&st.LastDown,
		&st.ConsecutiveFailures,
		&st.FailureThreshold,
		&st.Message,
		&st.CreatedAt,
		&st.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan server status: %w", err)
	}
	return nil
}

func (r *StatusRepoImpl) GetOrCreate(ctx context.Context, serverID int64) (*status.ServerStatus, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	if _, err := eq.Exec(ctx, qStatusEnsure, serverID); err != nil {
		return nil, fmt.Errorf("ensure status row: %w", err)
	}
	var st status.ServerStatus
	if err := scanStatus(eq.QueryRow(ctx, qStatusByServer, serverID), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *StatusRepoImpl) Update(ctx context.Context, st *status.ServerStatus) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	if err := eq.QueryRow(ctx, qStatusUpdate,
		st.ServerID,
		st.Status,
		st.UptimePercentage,
		st.LastCheck,
		st.LastUp,
		st.LastDown,
		st.ConsecutiveFailures,
		st.Message,
	).Scan(&st.ID, &st.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update server status: %w", err)
	}
	return nil
}

func (r *StatusRepoImpl) List(ctx context.Context, f status.Filter) ([]*status.ServerStatus, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	q := qStatusSelect
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("st.status = $%d", len(args)))
	}
	if len(f.ServerIDs) > 0 {
		args = append(args, f.ServerIDs)
		where = append(where, fmt.Sprintf("st.server_id = ANY($%d)", len(args)))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		where = append(where, fmt.Sprintf("st.updated_at > $%d", len(args)))
	}
	if len(where) > 0 {
		q += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	q += "ORDER BY s.name;"

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query server statuses: %w", err)
	}
	defer rows.Close()

	var out []*status.ServerStatus
	for rows.Next() {
		var st status.ServerStatus
		if err := scanStatus(rows, &st); err != nil {
			return nil, err
		}
		out = append(out, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *StatusRepoImpl) CountByStatus(ctx context.Context) (map[status.Status]int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qStatusCounts)
	if err != nil {
		return nil, fmt.Errorf("count statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[status.Status]int64)
	for rows.Next() {
		var (
			st status.Status
			n  int64
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out[st] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
