package status

import (
	"context"
	"time"
)

// Filter narrows List; Since compares against the row's updated_at,
// strictly newer.
type Filter struct {
	ServerIDs []int64
	Status    Status
	Since     *time.Time
}

type Repo interface {
	// GetOrCreate returns the row for a server, creating the unknown
	// baseline row on first contact.
	GetOrCreate(ctx context.Context, serverID int64) (*ServerStatus, error)
	Update(ctx context.Context, st *ServerStatus) error
	List(ctx context.Context, f Filter) ([]*ServerStatus, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}
