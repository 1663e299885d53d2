package calculations

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleInvariants(t *testing.T) {
	cases := []struct {
		principal string
		rate      string
		n         int
	}{
		{"1000", "0.05", 3},
		{"900", "0.03", 3},
		{"12345.67", "0.0299", 24},
		{"0.15", "0.01", 9},
		{"250000", "0", 7},
		{"999999.99", "0.12", 1},
		{"50000", "0.015", 360},
	}

	for _, method := range Methods {
		for _, c := range cases {
			name := fmt.Sprintf("%s/%s@%s/%d", method, c.principal, c.rate, c.n)
			t.Run(name, func(t *testing.T) {
				principal := dec(c.principal)
				rows, err := Simulate(LoanTerms{
					Method:           method,
					Principal:        principal,
					InstallmentCount: c.n,
					PeriodicRate:     dec(c.rate),
				})
				require.NoError(t, err)
				require.Len(t, rows, c.n)

				sumPrincipal := decimal.Zero
				previous := principal
				for i, row := range rows {
					assert.Equal(t, i+1, row.Number)
					assert.True(t, row.PrincipalComponent.Add(row.InterestComponent).Equal(row.TotalAmount),
						"row %d: principal + interest != total", row.Number)
					assert.False(t, row.PrincipalComponent.IsNegative(), "row %d", row.Number)
					assert.False(t, row.InterestComponent.IsNegative(), "row %d", row.Number)
					assert.True(t, row.RemainingBalance.LessThanOrEqual(previous),
						"row %d: balance grew from %s to %s", row.Number, previous, row.RemainingBalance)
					previous = row.RemainingBalance
					sumPrincipal = sumPrincipal.Add(row.PrincipalComponent)
				}

				assert.True(t, sumPrincipal.Equal(principal), "sum of principal %s != %s", sumPrincipal, principal)
				assert.True(t, rows[len(rows)-1].RemainingBalance.IsZero())
			})
		}
	}
}

func TestSimulateRejectsInvalidTerms(t *testing.T) {
	tests := []struct {
		name    string
		terms   LoanTerms
		wantErr error
	}{
		{
			name:    "zero principal",
			terms:   LoanTerms{Method: FixedInstallment, Principal: decimal.Zero, InstallmentCount: 3, PeriodicRate: dec("0.05")},
			wantErr: ErrInvalidTerms,
		},
		{
			name:    "negative principal",
			terms:   LoanTerms{Method: ConstantAmortization, Principal: dec("-10"), InstallmentCount: 3, PeriodicRate: dec("0.05")},
			wantErr: ErrInvalidTerms,
		},
		{
			name:    "zero installments",
			terms:   LoanTerms{Method: SimpleInterest, Principal: dec("100"), InstallmentCount: 0, PeriodicRate: dec("0.05")},
			wantErr: ErrInvalidTerms,
		},
		{
			name:    "negative rate",
			terms:   LoanTerms{Method: InterestOnly, Principal: dec("100"), InstallmentCount: 2, PeriodicRate: dec("-0.01")},
			wantErr: ErrInvalidTerms,
		},
		{
			name:    "unknown method",
			terms:   LoanTerms{Method: Method("BALLOON"), Principal: dec("100"), InstallmentCount: 2, PeriodicRate: dec("0.01")},
			wantErr: ErrUnsupportedMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Simulate(tt.terms)
			assert.Nil(t, rows)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestParseMethod(t *testing.T) {
	tests := map[string]Method{
		"FIXED_INSTALLMENT":         FixedInstallment,
		"price":                     FixedInstallment,
		"SAC":                       ConstantAmortization,
		" simple ":                  SimpleInterest,
		"recurring_simple_interest": RecurringSimpleInterest,
		"Interest_Only":             InterestOnly,
	}
	for input, want := range tests {
		got, err := ParseMethod(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseMethod("german")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestMethodIsFlat(t *testing.T) {
	assert.True(t, SimpleInterest.IsFlat())
	assert.True(t, RecurringSimpleInterest.IsFlat())
	assert.False(t, FixedInstallment.IsFlat())
	assert.False(t, ConstantAmortization.IsFlat())
	assert.False(t, InterestOnly.IsFlat())
}

func TestMethodsCoverSchedulers(t *testing.T) {
	assert.Len(t, schedulers, len(Methods))
	for _, m := range Methods {
		_, ok := schedulers[m]
		assert.True(t, ok, "no scheduler for %s", m)
	}
}

func TestSimulateConcurrent(t *testing.T) {
	terms := LoanTerms{Method: FixedInstallment, Principal: dec("1000"), InstallmentCount: 3, PeriodicRate: dec("0.05")}

	var wg sync.WaitGroup
	totals := make([]decimal.Decimal, 16)
	for i := range totals {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows, err := Simulate(terms)
			if err == nil {
				totals[i] = TotalPayable(rows)
			}
		}(i)
	}
	wg.Wait()

	for _, total := range totals {
		assertDecimal(t, "1101.63", total)
	}
}

func TestPrincipalPaidBefore(t *testing.T) {
	rows, err := Simulate(LoanTerms{Method: ConstantAmortization, Principal: dec("900"), InstallmentCount: 3, PeriodicRate: dec("0.03")})
	require.NoError(t, err)

	assert.True(t, PrincipalPaidBefore(rows, 1).IsZero())
	assertDecimal(t, "300", PrincipalPaidBefore(rows, 2))
	assertDecimal(t, "600", PrincipalPaidBefore(rows, 3))
}
