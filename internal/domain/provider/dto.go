package provider

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProfileResponse is the wire shape of a provider profile. Phone is omitted:
// it is only released through the paid contact reveal flow.
type ProfileResponse struct {
	UserID          uuid.UUID        `json:"user_id"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	RatingAvg       *decimal.Decimal `json:"rating_avg,omitempty"`
	IsAvailable     bool             `json:"is_available"`
	EmergencyActive bool             `json:"emergency_active"`
}

// UpdateTogglesRequest flips availability switches on the caller's profile
type UpdateTogglesRequest struct {
	IsAvailable     *bool `json:"is_available"`
	EmergencyActive *bool `json:"emergency_active"`
}

// ProfileResponseFromEntity converts a Profile to its wire shape
func ProfileResponseFromEntity(p *Profile) *ProfileResponse {
	return &ProfileResponse{
		UserID:          p.UserID,
		Name:            p.Name,
		Category:        p.Category,
		RatingAvg:       p.Rating(),
		IsAvailable:     p.IsAvailable,
		EmergencyActive: p.EmergencyActive,
	}
}
