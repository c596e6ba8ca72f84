package emergency

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fixline/fixline-api/internal/config"
	"github.com/fixline/fixline-api/internal/domain/job"
	"github.com/fixline/fixline-api/internal/domain/ledger"
	"github.com/fixline/fixline-api/internal/domain/provider"
	"github.com/fixline/fixline-api/internal/domain/tariff"
	"github.com/fixline/fixline-api/internal/pkg/events"
)

type fakeJobRepo struct {
	mu      sync.Mutex
	created []*job.Job
}

func (f *fakeJobRepo) Create(ctx context.Context, j *job.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, j)
	return nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	return nil, job.ErrNotFound
}

func (f *fakeJobRepo) ListOpen(ctx context.Context, category string, limit, offset int) ([]*job.Job, int, error) {
	return nil, 0, nil
}

func (f *fakeJobRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*job.Job, int, error) {
	return nil, 0, nil
}

func (f *fakeJobRepo) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*job.Job, int, error) {
	return nil, 0, nil
}

func (f *fakeJobRepo) TryClaim(ctx context.Context, jobID, providerID uuid.UUID) (*job.Job, error) {
	return nil, job.ErrNotFound
}

func (f *fakeJobRepo) Release(ctx context.Context, jobID, providerID uuid.UUID) error {
	return nil
}

func (f *fakeJobRepo) UpdateStatus(ctx context.Context, jobID uuid.UUID, from, to job.Status) error {
	return nil
}

type fakeProviderRepo struct {
	eligible map[string][]*provider.Profile
}

func (f *fakeProviderRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*provider.Profile, error) {
	return nil, provider.ErrProfileNotFound
}

func (f *fakeProviderRepo) ListEmergencyEligible(ctx context.Context, category string) ([]*provider.Profile, error) {
	return f.eligible[category], nil
}

func (f *fakeProviderRepo) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error {
	return nil
}

func (f *fakeProviderRepo) SetEmergencyActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return nil
}

type fakeBalances struct {
	ledger.Service
	balances map[uuid.UUID]decimal.Decimal
}

func (f *fakeBalances) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	b, ok := f.balances[accountID]
	if !ok {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	return b, nil
}

// recordingSink captures per-user deliveries.
type recordingSink struct {
	mu        sync.Mutex
	delivered map[uuid.UUID][]interface{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{delivered: make(map[uuid.UUID][]interface{})}
}

func (s *recordingSink) SendToUserJSON(userID uuid.UUID, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered[userID] = append(s.delivered[userID], payload)
	return nil
}

func TestCreateEmergency(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	eligibleA := &provider.Profile{UserID: uuid.New(), Category: "plumbing", EmergencyActive: true}
	eligibleB := &provider.Profile{UserID: uuid.New(), Category: "plumbing", EmergencyActive: true}
	otherTrade := &provider.Profile{UserID: uuid.New(), Category: "electrical", EmergencyActive: true}

	providers := &fakeProviderRepo{eligible: map[string][]*provider.Profile{
		"plumbing":   {eligibleA, eligibleB},
		"electrical": {otherTrade},
	}}

	newService := func(jobs *fakeJobRepo, balance string, sink events.UserSink) Service {
		credits := &fakeBalances{balances: map[uuid.UUID]decimal.Decimal{
			customerID: decimal.RequireFromString(balance),
		}}
		var pub events.Publisher = events.Nop()
		if sink != nil {
			pub = events.NewPublisher(sink)
		}
		return NewService(jobs, providers, credits,
			tariff.NewCalculator(config.Load().Tariff), pub, zerolog.Nop())
	}

	t.Run("broadcasts to eligible providers in the category", func(t *testing.T) {
		jobs := &fakeJobRepo{}
		sink := newRecordingSink()
		svc := newService(jobs, "100", sink)

		j, notified, err := svc.CreateEmergency(ctx, customerID, &CreateEmergencyRequest{
			Category:    "plumbing",
			Description: "burst pipe flooding the kitchen",
			Price:       "200",
		})
		if err != nil {
			t.Fatalf("CreateEmergency() error = %v", err)
		}
		if !j.IsEmergency || j.Status != job.StatusOpen {
			t.Errorf("job = %+v, want open emergency", j)
		}
		if notified != 2 {
			t.Errorf("notified = %d, want 2", notified)
		}
		if len(sink.delivered[eligibleA.UserID]) != 1 || len(sink.delivered[eligibleB.UserID]) != 1 {
			t.Errorf("eligible providers not notified: %v", sink.delivered)
		}
		if len(sink.delivered[otherTrade.UserID]) != 0 {
			t.Errorf("provider in another category was notified")
		}
	})

	t.Run("rejects when balance cannot cover the acceptance charge", func(t *testing.T) {
		jobs := &fakeJobRepo{}
		svc := newService(jobs, "5", nil)

		_, _, err := svc.CreateEmergency(ctx, customerID, &CreateEmergencyRequest{
			Category:    "plumbing",
			Description: "burst pipe",
			Price:       "200",
		})
		var ice *ledger.InsufficientCreditsError
		if !errors.As(err, &ice) {
			t.Fatalf("CreateEmergency() error = %v, want InsufficientCreditsError", err)
		}
		if len(jobs.created) != 0 {
			t.Errorf("job was created despite shortfall")
		}
	})

	t.Run("rejects non-positive price", func(t *testing.T) {
		svc := newService(&fakeJobRepo{}, "100", nil)
		for _, price := range []string{"-10", "0"} {
			_, _, err := svc.CreateEmergency(ctx, customerID, &CreateEmergencyRequest{
				Category:    "plumbing",
				Description: "burst pipe",
				Price:       price,
			})
			if !errors.Is(err, job.ErrInvalidPrice) {
				t.Errorf("CreateEmergency(price=%s) error = %v, want ErrInvalidPrice", price, err)
			}
		}
	})
}
