package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/pulseguard/pulseguard/internal/domain/notification"
)

var _ notification.Repo = (*NotificationRepoImpl)(nil)

type NotificationRepoImpl struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepoImpl { return &NotificationRepoImpl{db: db} }

const (
	qNotifEnabledByServer = `
SELECT id, server_id, notification_type, recipient, enabled, notify_on_failure,
       notify_on_recovery, min_interval_sec, created_at, updated_at
FROM notification_configs
WHERE server_id = $1 AND enabled = TRUE
ORDER BY notification_type, recipient;
`

	qNotifStampSent = `
UPDATE notification_configs
SET updated_at = $2
WHERE id = $1;
`
)

func (r *NotificationRepoImpl) ListEnabledByServer(ctx context.Context, serverID int64) ([]*notification.Config, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qNotifEnabledByServer, serverID)
	if err != nil {
		return nil, fmt.Errorf("query notification configs: %w", err)
	}
	defer rows.Close()

	var out []*notification.Config
	for rows.Next() {
		var (
			c           notification.Config
			intervalSec int
		)
		if err := rows.Scan(
			&c.ID,
			&c.ServerID,
			&c.Channel,
			&c.Recipient,
			&c.Enabled,
			&c.NotifyOnFailure,
			&c.NotifyOnRecovery,
			&intervalSec,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification config: %w", err)
		}
		c.MinInterval = time.Duration(intervalSec) * time.Second
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *NotificationRepoImpl) StampSent(ctx context.Context, id int64, at time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qNotifStampSent, id, at)
	if err != nil {
		return fmt.Errorf("stamp notification config: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
