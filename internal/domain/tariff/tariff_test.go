package tariff_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fixline/fixline-api/internal/config"
	"github.com/fixline/fixline-api/internal/domain/tariff"
)

func newCalculator() *tariff.Calculator {
	return tariff.NewCalculator(config.Load().Tariff)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	d := dec(t, s)
	return &d
}

func TestContactRevealCostBuckets(t *testing.T) {
	calc := newCalculator()

	tests := []struct {
		name   string
		rating *decimal.Decimal
		want   string
	}{
		{"nil rating", nil, "20"},
		{"zero rating", decPtr(t, "0"), "20"},
		{"top boundary inclusive", decPtr(t, "4.5"), "20"},
		{"just below top", decPtr(t, "4.4999"), "15"},
		{"high boundary inclusive", decPtr(t, "4.0"), "15"},
		{"mid bucket", decPtr(t, "3.7"), "9"},
		{"mid boundary inclusive", decPtr(t, "3.0"), "9"},
		{"low bucket", decPtr(t, "2.99"), "5"},
		{"perfect rating", decPtr(t, "5"), "20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.ContactRevealCost(tt.rating)
			if !got.Equal(dec(t, tt.want)) {
				t.Fatalf("ContactRevealCost(%v) = %s, want %s", tt.rating, got, tt.want)
			}
		})
	}
}

func TestMessageCostBuckets(t *testing.T) {
	calc := newCalculator()

	tests := []struct {
		name   string
		rating *decimal.Decimal
		want   string
	}{
		{"nil rating", nil, "6"},
		{"zero rating", decPtr(t, "0"), "6"},
		{"top bucket", decPtr(t, "4.8"), "6"},
		{"high bucket", decPtr(t, "4.2"), "4"},
		{"mid bucket", decPtr(t, "3.0"), "2.5"},
		{"low bucket", decPtr(t, "1.5"), "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.MessageCost(tt.rating)
			if !got.Equal(dec(t, tt.want)) {
				t.Fatalf("MessageCost(%v) = %s, want %s", tt.rating, got, tt.want)
			}
		})
	}
}

func TestPriceDerivedCosts(t *testing.T) {
	calc := newCalculator()

	price := dec(t, "200")
	if got := calc.JobAcceptCost(price); !got.Equal(dec(t, "10")) {
		t.Fatalf("JobAcceptCost(200) = %s, want 10", got)
	}

	price = dec(t, "100")
	if got := calc.EmergencyCustomerCost(price); !got.Equal(dec(t, "5")) {
		t.Fatalf("EmergencyCustomerCost(100) = %s, want 5", got)
	}
	if got := calc.EmergencyProviderEarning(price); !got.Equal(dec(t, "5")) {
		t.Fatalf("EmergencyProviderEarning(100) = %s, want 5", got)
	}

	// Repeated percentage math must not drift.
	price = dec(t, "0.10")
	if got := calc.JobAcceptCost(price); !got.Equal(dec(t, "0.005")) {
		t.Fatalf("JobAcceptCost(0.10) = %s, want 0.005", got)
	}
}
