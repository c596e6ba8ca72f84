package contact

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RevealResponse struct {
	ProviderID      uuid.UUID       `json:"provider_id"`
	Phone           string          `json:"phone"`
	Cost            decimal.Decimal `json:"cost"`
	AlreadyRevealed bool            `json:"already_revealed"`
}

func RevealResponseFromResult(r *RevealResult) *RevealResponse {
	return &RevealResponse{
		ProviderID:      r.ProviderID,
		Phone:           r.Phone,
		Cost:            r.Cost,
		AlreadyRevealed: r.AlreadyRevealed,
	}
}
