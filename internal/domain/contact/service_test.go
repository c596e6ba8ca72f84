package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fixline/fixline-api/internal/config"
	"github.com/fixline/fixline-api/internal/domain/ledger"
	"github.com/fixline/fixline-api/internal/domain/provider"
	"github.com/fixline/fixline-api/internal/domain/tariff"
)

type pair struct{ customer, provider uuid.UUID }

// fakeRevealRepo mimics the unique-pair and balance semantics of the SQL
// repository.
type fakeRevealRepo struct {
	reveals map[pair]*Reveal
	balance decimal.Decimal
	charges []decimal.Decimal
}

func newFakeRevealRepo(balance string) *fakeRevealRepo {
	return &fakeRevealRepo{
		reveals: make(map[pair]*Reveal),
		balance: decimal.RequireFromString(balance),
	}
}

func (f *fakeRevealRepo) Get(ctx context.Context, customerID, providerID uuid.UUID) (*Reveal, error) {
	if rev, ok := f.reveals[pair{customerID, providerID}]; ok {
		return rev, nil
	}
	return nil, ErrNotFound
}

func (f *fakeRevealRepo) CreateCharged(ctx context.Context, customerID, providerID uuid.UUID, cost decimal.Decimal) (*Reveal, error) {
	key := pair{customerID, providerID}
	if _, ok := f.reveals[key]; ok {
		return nil, ErrAlreadyRevealed
	}
	if f.balance.LessThan(cost) {
		return nil, &ledger.InsufficientCreditsError{Required: cost, Available: f.balance}
	}
	f.balance = f.balance.Sub(cost)
	f.charges = append(f.charges, cost)
	rev := &Reveal{CustomerID: customerID, ProviderID: providerID, Cost: cost, CreatedAt: time.Now()}
	f.reveals[key] = rev
	return rev, nil
}

type fakeProviderRepo struct {
	profiles map[uuid.UUID]*provider.Profile
}

func (f *fakeProviderRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*provider.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, provider.ErrProfileNotFound
}

func (f *fakeProviderRepo) ListEmergencyEligible(ctx context.Context, category string) ([]*provider.Profile, error) {
	return nil, nil
}

func (f *fakeProviderRepo) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error {
	return nil
}

func (f *fakeProviderRepo) SetEmergencyActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return nil
}

func ratedProfile(rating string) *provider.Profile {
	p := &provider.Profile{UserID: uuid.New(), Name: "Aset", Phone: "+77010000001", Category: "plumbing"}
	if rating != "" {
		p.RatingAvg = decimal.NewNullDecimal(decimal.RequireFromString(rating))
	}
	return p
}

func TestRevealContact(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	calc := tariff.NewCalculator(config.Load().Tariff)

	tests := []struct {
		name     string
		rating   string
		wantCost string
	}{
		{name: "top rated", rating: "4.8", wantCost: "20"},
		{name: "high rated", rating: "4.2", wantCost: "15"},
		{name: "mid rated", rating: "3.5", wantCost: "9"},
		{name: "low rated", rating: "2.1", wantCost: "5"},
		{name: "unrated", rating: "", wantCost: "20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := ratedProfile(tt.rating)
			reveals := newFakeRevealRepo("100")
			providers := &fakeProviderRepo{profiles: map[uuid.UUID]*provider.Profile{profile.UserID: profile}}

			result, err := NewService(reveals, providers, calc).RevealContact(ctx, customerID, profile.UserID)
			if err != nil {
				t.Fatalf("RevealContact() error = %v", err)
			}
			if result.Phone != profile.Phone {
				t.Errorf("phone = %q, want %q", result.Phone, profile.Phone)
			}
			if !result.Cost.Equal(decimal.RequireFromString(tt.wantCost)) {
				t.Errorf("cost = %s, want %s", result.Cost, tt.wantCost)
			}
			if result.AlreadyRevealed {
				t.Error("first reveal flagged as repeat")
			}
		})
	}

	t.Run("repeat reveal is free", func(t *testing.T) {
		profile := ratedProfile("4.8")
		reveals := newFakeRevealRepo("100")
		providers := &fakeProviderRepo{profiles: map[uuid.UUID]*provider.Profile{profile.UserID: profile}}
		svc := NewService(reveals, providers, calc)

		if _, err := svc.RevealContact(ctx, customerID, profile.UserID); err != nil {
			t.Fatalf("first RevealContact() error = %v", err)
		}
		result, err := svc.RevealContact(ctx, customerID, profile.UserID)
		if err != nil {
			t.Fatalf("second RevealContact() error = %v", err)
		}
		if !result.AlreadyRevealed {
			t.Error("second reveal not flagged as repeat")
		}
		if !result.Cost.IsZero() {
			t.Errorf("second reveal cost = %s, want 0", result.Cost)
		}
		if result.Phone != profile.Phone {
			t.Errorf("phone = %q, want %q", result.Phone, profile.Phone)
		}
		if len(reveals.charges) != 1 {
			t.Errorf("charges = %d, want 1", len(reveals.charges))
		}
	})

	t.Run("insufficient credits", func(t *testing.T) {
		profile := ratedProfile("4.8")
		reveals := newFakeRevealRepo("3")
		providers := &fakeProviderRepo{profiles: map[uuid.UUID]*provider.Profile{profile.UserID: profile}}

		_, err := NewService(reveals, providers, calc).RevealContact(ctx, customerID, profile.UserID)
		var ice *ledger.InsufficientCreditsError
		if !errors.As(err, &ice) {
			t.Fatalf("RevealContact() error = %v, want InsufficientCreditsError", err)
		}
		if len(reveals.reveals) != 0 {
			t.Error("reveal row persisted despite shortfall")
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		reveals := newFakeRevealRepo("100")
		providers := &fakeProviderRepo{profiles: map[uuid.UUID]*provider.Profile{}}

		_, err := NewService(reveals, providers, calc).RevealContact(ctx, customerID, uuid.New())
		if !errors.Is(err, provider.ErrProfileNotFound) {
			t.Errorf("RevealContact() error = %v, want ErrProfileNotFound", err)
		}
	})
}
