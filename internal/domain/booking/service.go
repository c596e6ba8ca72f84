package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fixline/fixline-api/internal/domain/job"
	"github.com/fixline/fixline-api/internal/domain/ledger"
	"github.com/fixline/fixline-api/internal/domain/provider"
	"github.com/fixline/fixline-api/internal/domain/tariff"
	"github.com/fixline/fixline-api/internal/pkg/events"
)

// Service coordinates claiming a job with charging for it. The claim and the
// debit are separate atomic steps; a failed debit compensates by releasing
// the claim, so the job is immediately claimable by someone else.
type Service interface {
	AcceptJob(ctx context.Context, jobID, providerID uuid.UUID) (*Booking, error)
	AcceptEmergencyJob(ctx context.Context, jobID, providerID uuid.UUID) (*Booking, error)
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
		logger:    logger.With().Str("service", "booking").Logger(),
	}
}

func (s *service) AcceptJob(ctx context.Context, jobID, providerID uuid.UUID) (*Booking, error) {
	j, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.IsEmergency {
		return nil, ErrEmergencyJob
	}
	if !j.Price.IsPositive() {
		return nil, job.ErrInvalidPrice
	}

	p, err := s.providers.GetByUserID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !p.IsAvailable {
		return nil, ErrProviderNotAvailable
	}
	fee := s.tariffs.JobAcceptCost(j.Price)

	claimed, err := s.jobs.TryClaim(ctx, jobID, providerID)
	if err != nil {
		return nil, err
	}

	entry, err := s.credits.TryDebit(ctx, providerID, fee, ledger.ReasonJobAccept,
		uuid.NullUUID{UUID: jobID, Valid: true})
	if err != nil {
		s.release(ctx, jobID, providerID)
		s.notifyInsufficient(ctx, providerID, err)
		return nil, err
	}

	accepted := events.New(events.TypeJobAccepted,
		events.JobAccepted{JobID: jobID, ProviderID: providerID, RemainingCredits: entry.BalanceAfter})
	s.publisher.PublishToUser(ctx, j.CustomerID, accepted)
	s.publisher.PublishToUser(ctx, providerID, accepted)

	return bookingFromJob(claimed, fee), nil
}

func (s *service) AcceptEmergencyJob(ctx context.Context, jobID, providerID uuid.UUID) (*Booking, error) {
	j, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !j.IsEmergency {
		return nil, ErrNotEmergencyJob
	}
	if !j.Price.IsPositive() {
		return nil, job.ErrInvalidPrice
	}
	customerCost := s.tariffs.EmergencyCustomerCost(j.Price)
	providerEarning := s.tariffs.EmergencyProviderEarning(j.Price)

	claimed, err := s.jobs.TryClaim(ctx, jobID, providerID)
	if err != nil {
		return nil, err
	}

	_, creditEntry, err := s.credits.DebitAndCredit(ctx, j.CustomerID, providerID,
		customerCost, providerEarning,
		ledger.ReasonEmergencyAcceptCustomer, ledger.ReasonEmergencyProviderEarning,
		uuid.NullUUID{UUID: jobID, Valid: true})
	if err != nil {
		s.release(ctx, jobID, providerID)
		s.notifyInsufficient(ctx, j.CustomerID, err)
		return nil, err
	}

	s.publisher.PublishToUser(ctx, j.CustomerID, events.New(events.TypeEmergencyJobAccepted,
		events.EmergencyJobAccepted{JobID: jobID}))
	s.publisher.PublishToUser(ctx, providerID, events.New(events.TypeJobAccepted,
		events.JobAccepted{JobID: jobID, ProviderID: providerID, RemainingCredits: creditEntry.BalanceAfter}))
	s.notifyEligibleTaken(ctx, j, providerID)

	return bookingFromJob(claimed, customerCost), nil
}

// release compensates a claim whose charge failed. A release failure leaves
// the job stuck in ACCEPTED, so it is logged loudly.
func (s *service) release(ctx context.Context, jobID, providerID uuid.UUID) {
	if err := s.jobs.Release(ctx, jobID, providerID); err != nil {
		s.logger.Error().Err(err).
			Str("job_id", jobID.String()).
			Str("provider_id", providerID.String()).
			Msg("Failed to release claim after charge failure")
	}
}

func (s *service) notifyInsufficient(ctx context.Context, accountID uuid.UUID, err error) {
	var ice *ledger.InsufficientCreditsError
	if !errors.As(err, &ice) {
		return
	}
	s.publisher.PublishToUser(ctx, accountID, events.New(events.TypeInsufficientCredits,
		events.InsufficientCreditsNotice{
			AccountID: accountID,
			Available: ice.Available,
			Required:  ice.Required,
		}))
}

// notifyEligibleTaken tells the remaining eligible providers the emergency
// job is gone so their clients can drop it from view.
func (s *service) notifyEligibleTaken(ctx context.Context, j *job.Job, winnerID uuid.UUID) {
	profiles, err := s.providers.ListEmergencyEligible(ctx, j.Category)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", j.ID.String()).Msg("Failed to list eligible providers")
		return
	}
	ids := make([]uuid.UUID, 0, len(profiles))
	for _, p := range profiles {
		if p.UserID != winnerID {
			ids = append(ids, p.UserID)
		}
	}
	s.publisher.PublishToUsers(ctx, ids, events.New(events.TypeEmergencyJobAccepted,
		events.EmergencyJobAccepted{JobID: j.ID}))
}

func bookingFromJob(j *job.Job, fee decimal.Decimal) *Booking {
	b := &Booking{
		JobID:      j.ID,
		CustomerID: j.CustomerID,
		ProviderID: j.ProviderID.UUID,
		Price:      j.Price,
		Fee:        fee,
		AcceptedAt: time.Now(),
	}
	if j.AcceptedAt != nil {
		b.AcceptedAt = *j.AcceptedAt
	}
	return b
}
