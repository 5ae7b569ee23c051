package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pulseguard/pulseguard/internal/domain/server"
)

var _ server.Repo = (*ServerRepoImpl)(nil)

type ServerRepoImpl struct{ db *DB }

func NewServerRepo(db *DB) *ServerRepoImpl { return &ServerRepoImpl{db: db} }

const (
	qServerSelect = `
SELECT id, owner_id, organization_id, name, description, protocol, host, port, path,
       check_interval_sec, timeout_sec, state, tags, notify_on_failure, notify_recovery,
       created_at, updated_at
FROM servers
`

	qServerByID = qServerSelect + `WHERE id = $1;`

	qServersActive = qServerSelect + `
WHERE state = 'active'
ORDER BY name;
`

	qServerCounts = `
SELECT COUNT(*), COUNT(*) FILTER (WHERE state = 'active')
FROM servers;
`
)

func scanServer(row pgx.Row, s *server.Server) error {
	var intervalSec, timeoutSec int
	if err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.OrgID,
		&s.Name,
		&s.Description,
		&s.Protocol,
		&s.Host,
		&s.Port,
		&s.Path,
		&intervalSec,
		&timeoutSec,
		&s.State,
		&s.Tags,
		&s.NotifyOnDown,
		&s.NotifyOnUp,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan server: %w", err)
	}
	s.CheckInterval = time.Duration(intervalSec) * time.Second
	s.Timeout = time.Duration(timeoutSec) * time.Second
	return nil
}

func (r *ServerRepoImpl) GetByID(ctx context.Context, id int64) (*server.Server, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var s server.Server
	if err := scanServer(r.db.Pool.QueryRow(ctx, qServerByID, id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServerRepoImpl) ListActive(ctx context.Context) ([]*server.Server, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qServersActive)
	if err != nil {
		return nil, fmt.Errorf("query active servers: %w", err)
	}
	defer rows.Close()
	return collectServers(rows)
}

func (r *ServerRepoImpl) List(ctx context.Context, f server.Filter) ([]*server.Server, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	q := qServerSelect
	var (
		where []string
		args  []any
	)
	if len(f.IDs) > 0 {
		args = append(args, f.IDs)
		where = append(where, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if f.NameQuery != "" {
		args = append(args, "%"+f.NameQuery+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(where) > 0 {
		q += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	q += "ORDER BY name;"

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query servers: %w", err)
	}
	defer rows.Close()
	return collectServers(rows)
}

func (r *ServerRepoImpl) Counts(ctx context.Context) (int64, int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var total, active int64
	if err := r.db.Pool.QueryRow(ctx, qServerCounts).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("count servers: %w", err)
	}
	return total, active, nil
}

func collectServers(rows pgx.Rows) ([]*server.Server, error) {
	var out []*server.Server
	for rows.Next() {
		var s server.Server
		if err := scanServer(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
