package contact

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reveal records that a customer paid to see a provider's phone number.
// The (customer, provider) pair is unique: a second reveal is free.
type Reveal struct {
	CustomerID uuid.UUID       `db:"customer_id"`
	ProviderID uuid.UUID       `db:"provider_id"`
	Cost       decimal.Decimal `db:"cost"`
	CreatedAt  time.Time       `db:"created_at"`
}
