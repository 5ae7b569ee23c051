package server

import "context"

// Filter narrows List; zero value means every server.
type Filter struct {
	IDs       []int64
	NameQuery string
}

type Repo interface {
	GetByID(ctx context.Context, id int64) (*Server, error)
	ListActive(ctx context.Context) ([]*Server, error)
	List(ctx context.Context, f Filter) ([]*Server, error)
	Counts(ctx context.Context) (total, active int64, err error)
}
