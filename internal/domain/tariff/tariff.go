package tariff

import (
	"github.com/shopspring/decimal"

	"github.com/fixline/fixline-api/internal/config"
)

// Calculator maps provider ratings and job prices to credit costs. All
// methods are pure; costs come from configuration, never from literals.
type Calculator struct {
	cfg config.TariffConfig
}

// NewCalculator creates a tariff calculator from config
func NewCalculator(cfg config.TariffConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// ContactRevealCost returns the credit cost for a customer to reveal a
// provider's phone number. A nil or zero rating charges the unrated price.
// Buckets are evaluated highest-first with inclusive lower bounds.
func (c *Calculator) ContactRevealCost(rating *decimal.Decimal) decimal.Decimal {
	if rating == nil || rating.IsZero() {
		return c.cfg.RevealUnrated
	}
	switch {
	case rating.GreaterThanOrEqual(c.cfg.RatingTop):
		return c.cfg.RevealTop
	case rating.GreaterThanOrEqual(c.cfg.RatingHigh):
		return c.cfg.RevealHigh
	case rating.GreaterThanOrEqual(c.cfg.RatingMid):
		return c.cfg.RevealMid
	default:
		return c.cfg.RevealLow
	}
}

// MessageCost returns the credit cost of one customer-authored chat message.
// Provider-authored messages are free and never reach this calculation.
func (c *Calculator) MessageCost(rating *decimal.Decimal) decimal.Decimal {
	if rating == nil || rating.IsZero() {
		return c.cfg.MessageUnrated
	}
	switch {
	case rating.GreaterThanOrEqual(c.cfg.RatingTop):
		return c.cfg.MessageTop
	case rating.GreaterThanOrEqual(c.cfg.RatingHigh):
		return c.cfg.MessageHigh
	case rating.GreaterThanOrEqual(c.cfg.RatingMid):
		return c.cfg.MessageMid
	default:
		return c.cfg.MessageLow
	}
}

// JobAcceptCost returns the fee charged to a provider for accepting an
// ordinary job from the board.
func (c *Calculator) JobAcceptCost(price decimal.Decimal) decimal.Decimal {
	return price.Mul(c.cfg.PricePercent)
}

// EmergencyCustomerCost returns the charge applied to the customer when an
// emergency job is accepted.
func (c *Calculator) EmergencyCustomerCost(price decimal.Decimal) decimal.Decimal {
	return price.Mul(c.cfg.PricePercent)
}

// EmergencyProviderEarning returns the credit granted to the provider who
// accepts an emergency job. Funded from a separate pool: this is not a
// transfer of the customer's charge.
func (c *Calculator) EmergencyProviderEarning(price decimal.Decimal) decimal.Decimal {
	return price.Mul(c.cfg.PricePercent)
}
