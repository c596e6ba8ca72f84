package emergency

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fixline/fixline-api/internal/domain/job"
	"github.com/fixline/fixline-api/internal/domain/ledger"
	"github.com/fixline/fixline-api/internal/domain/provider"
	"github.com/fixline/fixline-api/internal/domain/tariff"
	"github.com/fixline/fixline-api/internal/pkg/events"
)

// Service creates emergency jobs and broadcasts them to eligible providers.
// Accepting an emergency job goes through the booking coordinator.
type Service interface {
	CreateEmergency(ctx context.Context, customerID uuid.UUID, req *CreateEmergencyRequest) (*job.Job, int, error)
}

type service struct {
	jobs      job.Repository
	providers provider.Repository
	credits   ledger.Service
	tariffs   *tariff.Calculator
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewService(
	jobs job.Repository,
	providers provider.Repository,
	credits ledger.Service,
	tariffs *tariff.Calculator,
	publisher events.Publisher,
	logger zerolog.Logger,
) Service {
	return &service{
		jobs:      jobs,
		providers: providers,
		credits:   credits,
		tariffs:   tariffs,
		publisher: publisher,
		logger:    logger.With().Str("service", "emergency").Logger(),
	}
}

// CreateEmergency posts an emergency job and notifies every eligible
// provider. The customer must already hold enough credits to cover the
// acceptance charge; the check is advisory, the real debit happens at accept
// time and may still fail if the balance moved in between.
func (s *service) CreateEmergency(ctx context.Context, customerID uuid.UUID, req *CreateEmergencyRequest) (*job.Job, int, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || !price.IsPositive() {
		return nil, 0, job.ErrInvalidPrice
	}

	required := s.tariffs.EmergencyCustomerCost(price)
	available, err := s.credits.Balance(ctx, customerID)
	if err != nil {
		return nil, 0, err
	}
	if available.LessThan(required) {
		return nil, 0, &ledger.InsufficientCreditsError{Required: required, Available: available}
	}

	j := &job.Job{
		ID:          uuid.New(),
		CustomerID:  customerID,
		Category:    req.Category,
		Description: req.Description,
		Price:       price,
		IsEmergency: true,
		Status:      job.StatusOpen,
	}
	if err := s.jobs.Create(ctx, j); err != nil {
		return nil, 0, err
	}

	notified := s.broadcast(ctx, j)
	return j, notified, nil
}

func (s *service) broadcast(ctx context.Context, j *job.Job) int {
	profiles, err := s.providers.ListEmergencyEligible(ctx, j.Category)
	if err != nil {
		s.logger.Error().Err(err).
			Str("job_id", j.ID.String()).
			Str("category", j.Category).
			Msg("Failed to list eligible providers for broadcast")
		return 0
	}

	ids := make([]uuid.UUID, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}
	s.publisher.PublishToUsers(ctx, ids, events.New(events.TypeEmergencyJobCreated,
		events.EmergencyJobCreated{Job: events.JobSummary{
			JobID:        j.ID,
			CustomerID:   j.CustomerID,
			Category:     j.Category,
			OfferedPrice: j.Price,
			CreatedAt:    j.CreatedAt,
		}}))

	s.logger.Info().
		Str("job_id", j.ID.String()).
		Str("category", j.Category).
		Int("notified", len(ids)).
		Msg("Emergency job broadcast")
	return len(ids)
}
