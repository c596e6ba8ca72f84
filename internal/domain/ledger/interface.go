package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service defines the credit ledger operations exposed to other domains.
type Service interface {
	// Balance returns the current credit balance for an account
	Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)

	// GetAccount returns the account record
	GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error)

	// TryDebit atomically deducts credits.
	// Returns *InsufficientCreditsError if the balance is too low.
	TryDebit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error)

	// Credit atomically adds credits
	Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error)

	// DebitAndCredit debits one account and credits another as one atomic
	// unit. If the debit fails the credit never happens.
	DebitAndCredit(ctx context.Context, debitAccountID, creditAccountID uuid.UUID, debitAmount, creditAmount decimal.Decimal, debitReason, creditReason Reason, relatedJobID uuid.NullUUID) (*Entry, *Entry, error)

	// ListEntries returns paginated entry history for an account
	ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Entry, int, error)
}
