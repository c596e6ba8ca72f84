package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingResponse struct {
	JobID      uuid.UUID       `json:"job_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	ProviderID uuid.UUID       `json:"provider_id"`
	Price      decimal.Decimal `json:"price"`
	Fee        decimal.Decimal `json:"fee"`
	AcceptedAt time.Time       `json:"accepted_at"`
}

func BookingResponseFromEntity(b *Booking) *BookingResponse {
	return &BookingResponse{
		JobID:      b.JobID,
		CustomerID: b.CustomerID,
		ProviderID: b.ProviderID,
		Price:      b.Price,
		Fee:        b.Fee,
		AcceptedAt: b.AcceptedAt,
	}
}
