package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is the outcome of a successful claim. It is derived from the
// accepted job rather than stored separately: the job row is the single
// source of truth for who holds the work.
type Booking struct {
	JobID      uuid.UUID
	CustomerID uuid.UUID
	ProviderID uuid.UUID
	Price      decimal.Decimal
	Fee        decimal.Decimal
	AcceptedAt time.Time
}
