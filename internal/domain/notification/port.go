package notification

import (
	"context"
	"time"
)

type Repo interface {
	ListEnabledByServer(ctx context.Context, serverID int64) ([]*Config, error)
	// StampSent moves the cooldown cursor after a successful send.
	StampSent(ctx context.Context, id int64, at time.Time) error
}
