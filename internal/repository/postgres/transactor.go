package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Transactor runs a function with a pgx transaction bound to the
// context. Repos on the same *DB pick the transaction up through
// execQueryer, so every write inside fn commits or rolls back as one.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ Transactor = (*transactorImpl)(nil)

type transactorImpl struct {
	db  *DB
	log *zap.Logger
}

func NewTransactor(db *DB, l *zap.Logger) *transactorImpl {
	return &transactorImpl{db: db, log: l}
}

func (t *transactorImpl) WithTx(ctx context.Context, fn func(ctx context.Context) error) (txErr error) {
	// A transaction already on the context is owned by an outer WithTx;
	// join it and leave commit and rollback to the owner.
	if _, ok := extractTx(ctx); ok {
		return fn(ctx)
	}

	tx, err := t.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)

	defer func() {
		if txErr != nil {
			if err := tx.Rollback(txCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
				t.log.Error("rollback", zap.Error(err))
			}
			return
		}
		if err := tx.Commit(txCtx); err != nil {
			t.log.Error("commit", zap.Error(err))
			txErr = err
		}
	}()

	return fn(txCtx)
}

type txKey struct{}

func extractTx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

type execQueryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// execQueryer returns the bound transaction when one is on the context
// and the pool otherwise.
func (db *DB) execQueryer(ctx context.Context) execQueryer {
	if tx, ok := extractTx(ctx); ok {
		return tx
	}
	return db.Pool
}
