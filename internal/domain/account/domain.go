package account

import "time"

// Account is a consumable-credit ledger scoped to an organization or,
// absent that, an individual owner. Plan is informational only here;
// purchase and plan CRUD live in the billing layer.
type Account struct {
	ID           int64     `json:"id"`
	OwnerID      *int64    `json:"user"`
	OrgID        *int64    `json:"organization"`
	PlanID       *int64    `json:"plan"`
	SMSCredits   int       `json:"sms_credits"`
	EmailCredits int       `json:"email_credits"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Credits returns the counter backing the named kind.
func (a *Account) Credits(kind CreditKind) int {
	if kind == CreditSMS {
		return a.SMSCredits
	}
	return a.EmailCredits
}

// CreditKind names one of the two metered counters.
type CreditKind string

const (
	CreditEmail CreditKind = "email"
	CreditSMS   CreditKind = "sms"
)
