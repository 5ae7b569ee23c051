package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pulseguard/pulseguard/internal/domain/account"
)

var _ account.Repo = (*AccountRepoImpl)(nil)

type AccountRepoImpl struct{ db *DB }

func NewAccountRepo(db *DB) *AccountRepoImpl { return &AccountRepoImpl{db: db} }

const (
	qAccountSelect = `
SELECT id, user_id, organization_id, plan_id, sms_credits, email_credits, created_at, updated_at
FROM user_accounts
`

	qAccountByOrg   = qAccountSelect + `WHERE organization_id = $1;`
	qAccountByOwner = qAccountSelect + `WHERE user_id = $1;`

	// Guarded decrements keep the ledger row non-negative under
	// concurrent sends; zero rows affected means the counter was
	// already exhausted.
	qConsumeEmail = `
UPDATE user_accounts
SET email_credits = email_credits - 1, updated_at = NOW()
WHERE id = $1 AND email_credits > 0;
`

	qConsumeSMS = `
UPDATE user_accounts
SET sms_credits = sms_credits - 1, updated_at = NOW()
WHERE id = $1 AND sms_credits > 0;
`
)

func scanAccount(row pgx.Row, a *account.Account) error {
	if err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.OrgID,
		&a.PlanID,
		&a.SMSCredits,
		&a.EmailCredits,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan account: %w", err)
	}
	return nil
}

func (r *AccountRepoImpl) GetByOrg(ctx context.Context, orgID int64) (*account.Account, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var a account.Account
	if err := scanAccount(r.db.Pool.QueryRow(ctx, qAccountByOrg, orgID), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) GetByOwner(ctx context.Context, ownerID int64) (*account.Account, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var a account.Account
	if err := scanAccount(r.db.Pool.QueryRow(ctx, qAccountByOwner, ownerID), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) Consume(ctx context.Context, id int64, kind account.CreditKind) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	q := qConsumeEmail
	if kind == account.CreditSMS {
		q = qConsumeSMS
	}
	eq := r.db.execQueryer(ctx)
	cmd, err := eq.Exec(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("consume %s credit: %w", kind, err)
	}
	return cmd.RowsAffected() == 1, nil
}
