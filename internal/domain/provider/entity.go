package provider

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile is the provider read model consumed by tariffs and eligibility
// checks. The record is owned by the provider-management service; this API
// only reads it and flips the two availability toggles.
type Profile struct {
	UserID          uuid.UUID           `db:"user_id"`
	Name            string              `db:"name"`
	Phone           string              `db:"phone"`
	Category        string              `db:"category"`
	RatingAvg       decimal.NullDecimal `db:"rating_avg"`
	IsAvailable     bool                `db:"is_available"`
	EmergencyActive bool                `db:"emergency_active"`
	CreatedAt       time.Time           `db:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at"`
}

// Rating returns the average rating as a pointer, nil when the provider has
// no ratings yet. Zero is treated as unrated by the tariff calculator.
func (p *Profile) Rating() *decimal.Decimal {
	if !p.RatingAvg.Valid {
		return nil
	}
	r := p.RatingAvg.Decimal
	return &r
}
