package job

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Service covers posting and the non-monetary lifecycle of jobs. Claiming,
// which charges credits, lives in the booking coordinator.
type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, req *CreateJobRequest) (*Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)
	ListOpen(ctx context.Context, category string, limit, offset int) ([]*Job, int, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Job, int, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Job, int, error)

	Start(ctx context.Context, jobID, providerID uuid.UUID) (*Job, error)
	Complete(ctx context.Context, jobID, providerID uuid.UUID) (*Job, error)
	Report(ctx context.Context, jobID, providerID uuid.UUID, reason string) (*Job, error)
	Cancel(ctx context.Context, jobID, customerID uuid.UUID) (*Job, error)
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

func (s *service) Create(ctx context.Context, customerID uuid.UUID, req *CreateJobRequest) (*Job, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || !price.IsPositive() {
		return nil, ErrInvalidPrice
	}

	j := &Job{
		ID:          uuid.New(),
		CustomerID:  customerID,
		Category:    req.Category,
		Description: req.Description,
		Price:       price,
		Status:      StatusOpen,
	}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListOpen(ctx context.Context, category string, limit, offset int) ([]*Job, int, error) {
	return s.repo.ListOpen(ctx, category, limit, offset)
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Job, int, error) {
	return s.repo.ListByCustomer(ctx, customerID, limit, offset)
}

func (s *service) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Job, int, error) {
	return s.repo.ListByProvider(ctx, providerID, limit, offset)
}

func (s *service) Start(ctx context.Context, jobID, providerID uuid.UUID) (*Job, error) {
	return s.transition(ctx, jobID, providerID, byProvider, StatusInProgress)
}

// Complete works from ACCEPTED as well as IN_PROGRESS; starting is optional.
func (s *service) Complete(ctx context.Context, jobID, providerID uuid.UUID) (*Job, error) {
	return s.transition(ctx, jobID, providerID, byProvider, StatusCompleted)
}

func (s *service) Report(ctx context.Context, jobID, providerID uuid.UUID, reason string) (*Job, error) {
	return s.transition(ctx, jobID, providerID, byProvider, StatusReported)
}

func (s *service) Cancel(ctx context.Context, jobID, customerID uuid.UUID) (*Job, error) {
	j, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.CustomerID != customerID {
		return nil, ErrNotOwner
	}
	if !j.Status.CanTransitionTo(StatusCancelled) {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, jobID, j.Status, StatusCancelled); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, jobID)
}

type actorSide int

const (
	byProvider actorSide = iota
	byCustomer
)

func (s *service) transition(ctx context.Context, jobID, actorID uuid.UUID, side actorSide, to Status) (*Job, error) {
	j, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	switch side {
	case byProvider:
		if !j.ProviderID.Valid || j.ProviderID.UUID != actorID {
			return nil, ErrNotOwner
		}
	case byCustomer:
		if j.CustomerID != actorID {
			return nil, ErrNotOwner
		}
	}
	if !j.Status.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, jobID, j.Status, to); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, jobID)
}
