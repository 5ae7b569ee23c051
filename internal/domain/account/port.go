package account

import "context"

type Repo interface {
	GetByOrg(ctx context.Context, orgID int64) (*Account, error)
	GetByOwner(ctx context.Context, ownerID int64) (*Account, error)
	// Consume decrements one credit of the given kind iff the counter
	// is still positive, atomically per row. Returns false when the
	// counter was already exhausted.
	Consume(ctx context.Context, id int64, kind CreditKind) (bool, error)
}
