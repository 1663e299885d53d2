package validators

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cloud-ru/loan-servicing-go/internal/config"
)

func TestValidators(t *testing.T) {
	cfg := &config.Config{MaxPrincipal: 1e9, MaxInstallments: 600, MaxRate: 100}

	tests := []struct {
		name      string
		validate  func() error
		wantError bool
	}{
		{
			name:      "valid principal",
			validate:  func() error { return CheckPrincipal(cfg, decimal.NewFromInt(1000000)) },
			wantError: false,
		},
		{
			name:      "invalid principal zero",
			validate:  func() error { return CheckPrincipal(cfg, decimal.Zero) },
			wantError: true,
		},
		{
			name:      "invalid principal negative",
			validate:  func() error { return CheckPrincipal(cfg, decimal.NewFromInt(-1000)) },
			wantError: true,
		},
		{
			name:      "principal above limit",
			validate:  func() error { return CheckPrincipal(cfg, decimal.NewFromFloat(2e9)) },
			wantError: true,
		},
		{
			name:      "valid rate",
			validate:  func() error { return CheckRatePercent(cfg, "rate", decimal.NewFromInt(12)) },
			wantError: false,
		},
		{
			name:      "zero rate",
			validate:  func() error { return CheckRatePercent(cfg, "rate", decimal.Zero) },
			wantError: false,
		},
		{
			name:      "invalid rate negative",
			validate:  func() error { return CheckRatePercent(cfg, "rate", decimal.NewFromInt(-1)) },
			wantError: true,
		},
		{
			name:      "valid installments",
			validate:  func() error { return CheckInstallments(cfg, 12) },
			wantError: false,
		},
		{
			name:      "invalid installments zero",
			validate:  func() error { return CheckInstallments(cfg, 0) },
			wantError: true,
		},
		{
			name:      "installments above limit",
			validate:  func() error { return CheckInstallments(cfg, 601) },
			wantError: true,
		},
		{
			name:      "valid paid amount",
			validate:  func() error { return CheckAmount(cfg, "paid_amount", decimal.RequireFromString("367.21")) },
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate()
			if tt.wantError {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckScale(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		places    int32
		wantError bool
	}{
		{name: "cents", value: "100.01", places: AmountPlaces},
		{name: "integer", value: "100", places: AmountPlaces},
		{name: "trailing zeros", value: "1.500", places: AmountPlaces},
		{name: "fraction of a cent", value: "100.005", places: AmountPlaces, wantError: true},
		{name: "commission rate", value: "1.9525", places: RatePercentPlaces},
		{name: "commission rate too fine", value: "1.95251", places: RatePercentPlaces, wantError: true},
		{name: "periodic rate", value: "0.04166667", places: PeriodicRatePlaces},
		{name: "periodic rate too fine", value: "0.041666666667", places: PeriodicRatePlaces, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckScale("value", decimal.RequireFromString(tt.value), tt.places)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
