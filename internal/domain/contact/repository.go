package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/fixline/fixline-api/internal/domain/ledger"
)

const (
	queryTimeout            = 3 * time.Second
	sqlStateUniqueViolation = "23505"
)

type Repository interface {
	Get(ctx context.Context, customerID, providerID uuid.UUID) (*Reveal, error)

	// CreateCharged inserts the reveal row and debits the customer in one
	// transaction. A duplicate pair returns ErrAlreadyRevealed without
	// touching the balance; a shortfall rolls the row back.
	CreateCharged(ctx context.Context, customerID, providerID uuid.UUID, cost decimal.Decimal) (*Reveal, error)
}

type ContactRepository struct {
	db     *sqlx.DB
	ledger ledger.Repository
}

func NewRepository(db *sqlx.DB, ledgerRepo ledger.Repository) *ContactRepository {
	return &ContactRepository{db: db, ledger: ledgerRepo}
}

func (r *ContactRepository) Get(ctx context.Context, customerID, providerID uuid.UUID) (*Reveal, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rev Reveal
	err := r.db.GetContext(ctx, &rev,
		`SELECT customer_id, provider_id, cost, created_at FROM contact_reveals WHERE customer_id = $1 AND provider_id = $2`,
		customerID, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reveal: %w", err)
	}
	return &rev, nil
}

func (r *ContactRepository) CreateCharged(ctx context.Context, customerID, providerID uuid.UUID, cost decimal.Decimal) (*Reveal, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rev := Reveal{CustomerID: customerID, ProviderID: providerID, Cost: cost}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO contact_reveals (customer_id, provider_id, cost)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, customerID, providerID, cost).Scan(&rev.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == sqlStateUniqueViolation {
			return nil, ErrAlreadyRevealed
		}
		return nil, fmt.Errorf("insert reveal: %w", err)
	}

	if _, err := r.ledger.TryDebitTx(ctx, tx, customerID, cost, ledger.ReasonContactReveal, uuid.NullUUID{}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &rev, nil
}
