package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceResponse is the wire shape of GET /credits/balance
type BalanceResponse struct {
	AccountID uuid.UUID       `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// EntryResponse is the wire shape of one ledger entry
type EntryResponse struct {
	ID           uuid.UUID       `json:"id"`
	Delta        decimal.Decimal `json:"delta"`
	Reason       Reason          `json:"reason"`
	RelatedJobID *uuid.UUID      `json:"related_job_id,omitempty"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TopUpRequest credits purchased credits to the caller's account. The
// payment itself is handled by an external provider; this endpoint is called
// by its confirmation webhook relay.
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// RedeemRequest converts provider earnings back to money (handled externally);
// here it is just a debit.
type RedeemRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// EntryResponseFromEntity converts an Entry to its wire shape
func EntryResponseFromEntity(e *Entry) *EntryResponse {
	resp := &EntryResponse{
		ID:           e.ID,
		Delta:        e.Delta,
		Reason:       e.Reason,
		BalanceAfter: e.BalanceAfter,
		CreatedAt:    e.CreatedAt,
	}
	if e.RelatedJobID.Valid {
		jobID := e.RelatedJobID.UUID
		resp.RelatedJobID = &jobID
	}
	return resp
}
