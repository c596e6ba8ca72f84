package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const queryTimeout = 3 * time.Second

// Repository provides ledger and balance operations. The Tx variants compose
// with another domain's write inside one transaction; they neither commit nor
// roll back, the caller owns the transaction.
type Repository interface {
	GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error)
	Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	TryDebit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error)
	TryDebitTx(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error)
	Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error)
	CreditTx(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error)
	DebitAndCredit(ctx context.Context, debitAccountID, creditAccountID uuid.UUID, debitAmount, creditAmount decimal.Decimal, debitReason, creditReason Reason, relatedJobID uuid.NullUUID) (*Entry, *Entry, error)
	ListEntries(ctx context.Context, accountID uuid.UUID, pagination Pagination) ([]Entry, int, error)
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
}

// LedgerRepository implements Repository against Postgres.
type LedgerRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var acc Account
	err := r.db.GetContext(ctx2, &acc, `SELECT id, kind, balance, created_at FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: get account", ErrInternal)
	}

	return &acc, nil
}

func (r *LedgerRepository) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	acc, err := r.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance, nil
}

// TryDebit atomically appends a negative entry, failing if the balance would
// go below zero. The balance guard is the conditional UPDATE itself: zero
// affected rows means either a missing account or not enough credits.
func (r *LedgerRepository) TryDebit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	entry, err := r.TryDebitTx(ctx2, tx, accountID, amount, reason, relatedJobID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return entry, nil
}

// TryDebitTx is TryDebit inside an external transaction, for operations that
// must commit a debit together with another write (claim fee, contact reveal,
// message send).
func (r *LedgerRepository) TryDebitTx(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	var balanceAfter decimal.Decimal
	err := tx.QueryRowContext(ctx, `
		UPDATE accounts
		SET balance = balance - $2
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`, accountID, amount).Scan(&balanceAfter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing account from a balance shortfall.
			var available decimal.Decimal
			err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&available)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, ErrAccountNotFound
				}
				return nil, fmt.Errorf("%w: read balance", ErrInternal)
			}
			return nil, &InsufficientCreditsError{Required: amount, Available: available}
		}
		return nil, fmt.Errorf("%w: debit account", ErrInternal)
	}

	return r.insertEntry(ctx, tx, accountID, amount.Neg(), reason, relatedJobID, balanceAfter)
}

// Credit atomically appends a positive entry. Always succeeds for an
// existing account.
func (r *LedgerRepository) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	entry, err := r.CreditTx(ctx2, tx, accountID, amount, reason, relatedJobID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return entry, nil
}

// CreditTx is Credit inside an external transaction.
func (r *LedgerRepository) CreditTx(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, amount decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID) (*Entry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	var balanceAfter decimal.Decimal
	err := tx.QueryRowContext(ctx, `
		UPDATE accounts
		SET balance = balance + $2
		WHERE id = $1
		RETURNING balance
	`, accountID, amount).Scan(&balanceAfter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: credit account", ErrInternal)
	}

	return r.insertEntry(ctx, tx, accountID, amount, reason, relatedJobID, balanceAfter)
}

// DebitAndCredit appends a debit to one account and a credit to another in a
// single transaction. If the debit fails the credit never happens. The two
// entries are independent (not a transfer row): the amounts may differ.
func (r *LedgerRepository) DebitAndCredit(ctx context.Context, debitAccountID, creditAccountID uuid.UUID, debitAmount, creditAmount decimal.Decimal, debitReason, creditReason Reason, relatedJobID uuid.NullUUID) (*Entry, *Entry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	debitEntry, err := r.TryDebitTx(ctx2, tx, debitAccountID, debitAmount, debitReason, relatedJobID)
	if err != nil {
		return nil, nil, err
	}

	creditEntry, err := r.CreditTx(ctx2, tx, creditAccountID, creditAmount, creditReason, relatedJobID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return debitEntry, creditEntry, nil
}

func (r *LedgerRepository) ListEntries(ctx context.Context, accountID uuid.UUID, pagination Pagination) ([]Entry, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	if err := r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID); err != nil {
		return nil, 0, fmt.Errorf("%w: count entries", ErrInternal)
	}

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	entries := make([]Entry, 0)
	err := r.db.SelectContext(ctx2, &entries, `
		SELECT seq, id, account_id, delta, reason, related_job_id, balance_after, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY seq DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, pagination.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list entries", ErrInternal)
	}

	return entries, total, nil
}

func (r *LedgerRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

func (r *LedgerRepository) insertEntry(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, delta decimal.Decimal, reason Reason, relatedJobID uuid.NullUUID, balanceAfter decimal.Decimal) (*Entry, error) {
	entry := Entry{
		ID:           uuid.New(),
		AccountID:    accountID,
		Delta:        delta,
		Reason:       reason,
		RelatedJobID: relatedJobID,
		BalanceAfter: balanceAfter,
	}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO ledger_entries (id, account_id, delta, reason, related_job_id, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq, created_at
	`, entry.ID, entry.AccountID, entry.Delta, entry.Reason, entry.RelatedJobID, entry.BalanceAfter).Scan(&entry.Seq, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert entry", ErrInternal)
	}

	return &entry, nil
}
