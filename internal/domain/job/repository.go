package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	Create(ctx context.Context, j *Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)
	ListOpen(ctx context.Context, category string, limit, offset int) ([]*Job, int, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Job, int, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Job, int, error)

	// TryClaim atomically moves an OPEN job to ACCEPTED for the given
	// provider. Exactly one concurrent caller wins; losers get
	// ErrAlreadyClaimed (or ErrNotFound when no such job exists).
	TryClaim(ctx context.Context, jobID, providerID uuid.UUID) (*Job, error)

	// Release reverts a claim made by TryClaim, putting the job back to
	// OPEN so another provider can take it.
	Release(ctx context.Context, jobID, providerID uuid.UUID) error

	UpdateStatus(ctx context.Context, jobID uuid.UUID, from, to Status) error
}

type JobRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, j *Job) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO jobs (id, customer_id, category, description, price, is_emergency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		j.ID, j.CustomerID, j.Category, j.Description, j.Price, j.IsEmergency, j.Status,
	).Scan(&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var j Job
	err := r.db.GetContext(ctx, &j, `SELECT * FROM jobs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

func (r *JobRepository) ListOpen(ctx context.Context, category string, limit, offset int) ([]*Job, int, error) {
	where := `WHERE status = 'OPEN' AND is_emergency = FALSE`
	args := []interface{}{}
	if category != "" {
		where += ` AND category = $1`
		args = append(args, category)
	}
	return r.list(ctx, where, args, limit, offset)
}

func (r *JobRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Job, int, error) {
	return r.list(ctx, `WHERE customer_id = $1`, []interface{}{customerID}, limit, offset)
}

func (r *JobRepository) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Job, int, error) {
	return r.list(ctx, `WHERE provider_id = $1`, []interface{}{providerID}, limit, offset)
}

func (r *JobRepository) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Job, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM jobs `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	query := fmt.Sprintf(`SELECT * FROM jobs %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	jobs := []*Job{}
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, total, nil
}

func (r *JobRepository) TryClaim(ctx context.Context, jobID, providerID uuid.UUID) (*Job, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE jobs
		SET status = 'ACCEPTED', provider_id = $2, accepted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'OPEN'
		RETURNING *`

	var j Job
	err := r.db.GetContext(ctx, &j, query, jobID, providerID)
	if err == nil {
		return &j, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim job: %w", err)
	}

	// Zero rows: distinguish a lost race from a missing job.
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, jobID); err != nil {
		return nil, fmt.Errorf("check job exists: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrAlreadyClaimed
}

func (r *JobRepository) Release(ctx context.Context, jobID, providerID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE jobs
		SET status = 'OPEN', provider_id = NULL, accepted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND provider_id = $2 AND status = 'ACCEPTED'`

	result, err := r.db.ExecContext(ctx, query, jobID, providerID)
	if err != nil {
		return fmt.Errorf("release job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("release job rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, jobID uuid.UUID, from, to Status) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `UPDATE jobs SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	if to == StatusCompleted {
		query = `UPDATE jobs SET status = $3, completed_at = NOW(), updated_at = NOW() WHERE id = $1 AND status = $2`
	}

	result, err := r.db.ExecContext(ctx, query, jobID, from, to)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job status rows: %w", err)
	}
	if rows == 0 {
		return ErrInvalidTransition
	}
	return nil
}
