package provider

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

// Repository defines provider profile data access
type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	// ListEmergencyEligible returns providers matching the category with the
	// emergency toggle on. General availability is intentionally ignored:
	// emergency broadcasts reach providers who opted in, whether or not they
	// are taking board work right now.
	ListEmergencyEligible(ctx context.Context, category string) ([]*Profile, error)
	SetAvailability(ctx context.Context, userID uuid.UUID, isAvailable bool) error
	SetEmergencyActive(ctx context.Context, userID uuid.UUID, emergencyActive bool) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new provider repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Profile
	err := r.db.GetContext(ctx2, &p, `
		SELECT user_id, name, phone, category, rating_avg, is_available, emergency_active, created_at, updated_at
		FROM provider_profiles
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: get provider profile", ErrInternal)
	}

	return &p, nil
}

func (r *repository) ListEmergencyEligible(ctx context.Context, category string) ([]*Profile, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	profiles := make([]*Profile, 0)
	err := r.db.SelectContext(ctx2, &profiles, `
		SELECT user_id, name, phone, category, rating_avg, is_available, emergency_active, created_at, updated_at
		FROM provider_profiles
		WHERE category = $1 AND emergency_active = TRUE
	`, category)
	if err != nil {
		return nil, fmt.Errorf("%w: list emergency eligible", ErrInternal)
	}

	return profiles, nil
}

func (r *repository) SetAvailability(ctx context.Context, userID uuid.UUID, isAvailable bool) error {
	return r.setToggle(ctx, `UPDATE provider_profiles SET is_available = $2, updated_at = NOW() WHERE user_id = $1`, userID, isAvailable)
}

func (r *repository) SetEmergencyActive(ctx context.Context, userID uuid.UUID, emergencyActive bool) error {
	return r.setToggle(ctx, `UPDATE provider_profiles SET emergency_active = $2, updated_at = NOW() WHERE user_id = $1`, userID, emergencyActive)
}

func (r *repository) setToggle(ctx context.Context, query string, userID uuid.UUID, value bool) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, query, userID, value)
	if err != nil {
		return fmt.Errorf("%w: update provider toggle", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrProfileNotFound
	}

	return nil
}
