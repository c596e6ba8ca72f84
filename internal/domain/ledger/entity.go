package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind identifies which side of the marketplace an account belongs to.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindProvider Kind = "provider"
)

// Reason classifies a ledger entry. Entries are the sole source of truth for
// balances, so the reason set doubles as the audit vocabulary.
type Reason string

const (
	ReasonJobAccept                 Reason = "JOB_ACCEPT"
	ReasonEmergencyAcceptCustomer   Reason = "EMERGENCY_ACCEPT_CUSTOMER"
	ReasonEmergencyProviderEarning  Reason = "EMERGENCY_ACCEPT_PROVIDER_EARNING"
	ReasonContactReveal             Reason = "CONTACT_REVEAL"
	ReasonMessageSend               Reason = "MESSAGE_SEND"
	ReasonPurchase                  Reason = "PURCHASE"
	ReasonRedemption                Reason = "REDEMPTION"
)

// Account holds credits for a customer or provider. Balance is a materialized
// running total, updated in the same transaction as every entry append; the
// entries remain authoritative.
type Account struct {
	ID        uuid.UUID       `db:"id"`
	Kind      Kind            `db:"kind"`
	Balance   decimal.Decimal `db:"balance"`
	CreatedAt time.Time       `db:"created_at"`
}

// Entry is one immutable signed balance change. Never edited or deleted after
// commit. Seq gives the per-account commit order.
type Entry struct {
	Seq          int64           `db:"seq"`
	ID           uuid.UUID       `db:"id"`
	AccountID    uuid.UUID       `db:"account_id"`
	Delta        decimal.Decimal `db:"delta"`
	Reason       Reason          `db:"reason"`
	RelatedJobID uuid.NullUUID   `db:"related_job_id"`
	BalanceAfter decimal.Decimal `db:"balance_after"`
	CreatedAt    time.Time       `db:"created_at"`
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}
