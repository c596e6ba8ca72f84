package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// service implements the Service interface
type service struct {
	repo Repository
}

// NewService creates a new ledger service
func NewService(db *sqlx.DB) Service {
	return &service{repo: NewRepository(db)}
}

// NewServiceWithRepository creates a ledger service over an explicit repository
func NewServiceWithRepository(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	return s.repo.Balance(ctx, accountID)
}

func (s *service) GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	return s.repo.GetAccount(ctx, accountID)
}

func (s *service) TryDebit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	return s.repo.TryDebit(ctx, accountID, amount, reason, relatedJobID)
}

func (s *service) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	return s.repo.Credit(ctx, accountID, amount, reason, relatedJobID)
}

func (s *service) DebitAndCredit(ctx context.Context, debitAccountID, creditAccountID uuid.UUID, debitAmount, creditAmount decimal.Decimal, debitReason, creditReason Reason, relatedJobID uuid.NullUUID) (*Entry, *Entry, error) {
	if debitAmount.LessThanOrEqual(decimal.Zero) || creditAmount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrInvalidAmount
	}
	return s.repo.DebitAndCredit(ctx, debitAccountID, creditAccountID, debitAmount, creditAmount, debitReason, creditReason, relatedJobID)
}

func (s *service) ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Entry, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListEntries(ctx, accountID, Pagination{Limit: limit, Offset: offset})
}
