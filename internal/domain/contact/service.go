package contact

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fixline/fixline-api/internal/domain/provider"
	"github.com/fixline/fixline-api/internal/domain/tariff"
)

// RevealResult is what a customer gets back from a reveal: the phone number,
// what it cost this time (zero on the repeat path), and whether this call
// actually charged.
type RevealResult struct {
	ProviderID      uuid.UUID
	Phone           string
	Cost            decimal.Decimal
	AlreadyRevealed bool
}

// Service meters access to provider phone numbers. The first reveal per
// (customer, provider) pair charges by the provider's rating bucket; every
// repeat is free.
type Service interface {
	RevealContact(ctx context.Context, customerID, providerID uuid.UUID) (*RevealResult, error)
}

type service struct {
	reveals   Repository
	providers provider.Repository
	tariffs   *tariff.Calculator
}

func NewService(reveals Repository, providers provider.Repository, tariffs *tariff.Calculator) Service {
	return &service{reveals: reveals, providers: providers, tariffs: tariffs}
}

func (s *service) RevealContact(ctx context.Context, customerID, providerID uuid.UUID) (*RevealResult, error) {
	profile, err := s.providers.GetByUserID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	cost := s.tariffs.ContactRevealCost(profile.Rating())
	rev, err := s.reveals.CreateCharged(ctx, customerID, providerID, cost)
	if err != nil {
		if errors.Is(err, ErrAlreadyRevealed) {
			return &RevealResult{
				ProviderID:      providerID,
				Phone:           profile.Phone,
				Cost:            decimal.Zero,
				AlreadyRevealed: true,
			}, nil
		}
		return nil, err
	}

	return &RevealResult{
		ProviderID: providerID,
		Phone:      profile.Phone,
		Cost:       rev.Cost,
	}, nil
}
