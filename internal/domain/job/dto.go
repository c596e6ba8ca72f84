package job

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateJobRequest struct {
	Category    string `json:"category" validate:"required,category"`
	Description string `json:"description" validate:"required,max=2000"`
	Price       string `json:"price" validate:"required"`
}

type ReportRequest struct {
	Reason string `json:"reason" validate:"required,report_reason"`
}

type JobResponse struct {
	ID          uuid.UUID       `json:"id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	ProviderID  *uuid.UUID      `json:"provider_id,omitempty"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsEmergency bool            `json:"is_emergency"`
	Status      Status          `json:"status"`
	AcceptedAt  *time.Time      `json:"accepted_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func JobResponseFromEntity(j *Job) *JobResponse {
	resp := &JobResponse{
		ID:          j.ID,
		CustomerID:  j.CustomerID,
		Category:    j.Category,
		Description: j.Description,
		Price:       j.Price,
		IsEmergency: j.IsEmergency,
		Status:      j.Status,
		AcceptedAt:  j.AcceptedAt,
		CompletedAt: j.CompletedAt,
		CreatedAt:   j.CreatedAt,
	}
	if j.ProviderID.Valid {
		id := j.ProviderID.UUID
		resp.ProviderID = &id
	}
	return resp
}

func JobResponsesFromEntities(jobs []*Job) []*JobResponse {
	out := make([]*JobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = JobResponseFromEntity(j)
	}
	return out
}
