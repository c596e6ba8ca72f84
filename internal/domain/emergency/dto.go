package emergency

import "github.com/fixline/fixline-api/internal/domain/job"

type CreateEmergencyRequest struct {
	Category    string `json:"category" validate:"required,category"`
	Description string `json:"description" validate:"required,max=2000"`
	Price       string `json:"price" validate:"required"`
}

type CreateEmergencyResponse struct {
	Job               *job.JobResponse `json:"job"`
	NotifiedProviders int              `json:"notified_providers"`
}
