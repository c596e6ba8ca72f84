package provider

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Service exposes provider profile reads and availability toggles
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	ListEmergencyEligible(ctx context.Context, category string) ([]*Profile, error)
	UpdateToggles(ctx context.Context, userID uuid.UUID, req *UpdateTogglesRequest) (*Profile, error)
}

type service struct {
	repo Repository
}

func NewService(db *sqlx.DB) Service {
	return &service{repo: NewRepository(db)}
}

func NewServiceWithRepository(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *service) ListEmergencyEligible(ctx context.Context, category string) ([]*Profile, error) {
	return s.repo.ListEmergencyEligible(ctx, category)
}

func (s *service) UpdateToggles(ctx context.Context, userID uuid.UUID, req *UpdateTogglesRequest) (*Profile, error) {
	if req.IsAvailable != nil {
		if err := s.repo.SetAvailability(ctx, userID, *req.IsAvailable); err != nil {
			return nil, err
		}
	}
	if req.EmergencyActive != nil {
		if err := s.repo.SetEmergencyActive(ctx, userID, *req.EmergencyActive); err != nil {
			return nil, err
		}
	}
	return s.repo.GetByUserID(ctx, userID)
}
