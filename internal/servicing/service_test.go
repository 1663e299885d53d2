package servicing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud-ru/loan-servicing-go/internal/calculations"
	"github.com/cloud-ru/loan-servicing-go/internal/commission"
	"github.com/cloud-ru/loan-servicing-go/internal/store"
	"github.com/cloud-ru/loan-servicing-go/internal/store/memory"
	"github.com/cloud-ru/loan-servicing-go/internal/validators"
)

var start = time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, context ...interface{}) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(want)), "want %s, got %s %v", want, got, context)
}

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	distributor, err := commission.NewDistributor(commission.DefaultReconstructionConfig(), nil)
	require.NoError(t, err)
	st := memory.New()
	clock := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return New(st, distributor, WithClock(clock), WithLogger(nil)), st
}

func flatLoan() NewLoan {
	return NewLoan{
		ID: "flat",
		Terms: calculations.LoanTerms{
			Method:           calculations.SimpleInterest,
			Principal:        dec("800"),
			InstallmentCount: 5,
			PeriodicRate:     dec("0.05"),
		},
		Rates:     commission.Rates{Total: dec("30"), Intermediator: dec("5"), Creditor: dec("10")},
		Parties:   commission.Parties{IntermediatorID: "int-1", CreditorID: "cred-1", ManagerID: "mgr-1"},
		StartDate: start,
	}
}

func TestCreateLoan(t *testing.T) {
	tests := []struct {
		name       string
		storeTotal bool
		wantStored string
	}{
		{name: "stores principal", storeTotal: false, wantStored: "1000"},
		{name: "stores total payable", storeTotal: true, wantStored: "1101.63"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			loan, installments, err := svc.CreateLoan(context.Background(), NewLoan{
				Terms: calculations.LoanTerms{
					Method:           calculations.FixedInstallment,
					Principal:        dec("1000"),
					InstallmentCount: 3,
					PeriodicRate:     dec("0.05"),
				},
				Rates:             commission.Rates{Total: dec("4.95"), Intermediator: dec("1"), Creditor: dec("2")},
				Parties:           commission.Parties{CreditorID: "cred-1"},
				StartDate:         start,
				StoreTotalPayable: tt.storeTotal,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, loan.ID)
			assertDecimal(t, tt.wantStored, loan.StoredTotalAmount)
			require.Len(t, installments, 3)

			// 31 января + 1 месяц нормализуется в 3 марта
			assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), installments[0].DueDate)
			assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), installments[1].DueDate)

			stored, err := svc.Schedule(context.Background(), loan.ID)
			require.NoError(t, err)
			require.Len(t, stored, 3)
			for _, inst := range stored {
				assertDecimal(t, "367.21", inst.TotalAmount, "installment", inst.Number)
			}
		})
	}
}

func TestCreateLoanCustomDueDates(t *testing.T) {
	distributor, err := commission.NewDistributor(commission.DefaultReconstructionConfig(), nil)
	require.NoError(t, err)
	weekly := func(start time.Time, number int) time.Time { return start.AddDate(0, 0, 7*number) }
	svc := New(memory.New(), distributor, WithDueDates(weekly), WithLogger(nil))

	_, installments, err := svc.CreateLoan(context.Background(), flatLoan())
	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 0, 35), installments[4].DueDate)
}

func TestCreateLoanErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewLoan)
		wantErr error
	}{
		{
			name:    "invalid terms",
			mutate:  func(l *NewLoan) { l.Terms.Principal = decimal.Zero },
			wantErr: calculations.ErrInvalidTerms,
		},
		{
			name:    "unknown method",
			mutate:  func(l *NewLoan) { l.Terms.Method = "BALLOON" },
			wantErr: calculations.ErrUnsupportedMethod,
		},
		{
			name:    "negative manager rate",
			mutate:  func(l *NewLoan) { l.Rates.Total = dec("12") },
			wantErr: commission.ErrNegativeManagerRate,
		},
		{
			name:    "nobody receives the creditor return",
			mutate:  func(l *NewLoan) { l.Parties = commission.Parties{IntermediatorID: "int-1"} },
			wantErr: ErrNoBeneficiary,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			req := flatLoan()
			tt.mutate(&req)
			_, _, err := svc.CreateLoan(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = svc.Loan(context.Background(), req.ID)
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestCreateLoanDuplicateID(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.CreateLoan(context.Background(), flatLoan())
	require.NoError(t, err)
	_, _, err = svc.CreateLoan(context.Background(), flatLoan())
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestRecordPaymentFlat(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, installments, err := svc.CreateLoan(ctx, flatLoan())
	require.NoError(t, err)
	assertDecimal(t, "200", installments[0].TotalAmount)

	paidAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	res, err := svc.RecordPayment(ctx, "flat", 1, dec("200"), paidAt)
	require.NoError(t, err)

	assert.Equal(t, commission.BasisInstallmentValue, res.Allocation.Basis)
	assertDecimal(t, "10", res.Allocation.IntermediatorShare)
	assertDecimal(t, "20", res.Allocation.CreditorShare)
	assertDecimal(t, "30", res.Allocation.ManagerShare)
	assertDecimal(t, "140", res.Allocation.CreditorReturn)
	require.True(t, res.Installment.Paid())
	assert.Equal(t, paidAt, *res.Installment.PaidAt)

	require.Len(t, res.Entries, 4)
	want := map[store.Party]struct {
		account string
		amount  string
	}{
		store.PartyIntermediator:  {"int-1", "10"},
		store.PartyCreditor:       {"cred-1", "20"},
		store.PartyManager:        {"mgr-1", "30"},
		store.PartyCreditorReturn: {"cred-1", "140"},
	}
	total := decimal.Zero
	for _, e := range res.Entries {
		w, ok := want[e.Party]
		require.True(t, ok, "unexpected party %s", e.Party)
		assert.Equal(t, w.account, e.AccountID)
		assertDecimal(t, w.amount, e.Amount, e.Party)
		assert.Equal(t, "flat", e.LoanID)
		assert.Equal(t, 1, e.InstallmentNumber)
		total = total.Add(e.Amount)
	}
	assertDecimal(t, "200", total)

	stored, err := svc.Entries(ctx, "flat")
	require.NoError(t, err)
	assert.Len(t, stored, 4)

	t.Run("second payment is refused", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, "flat", 1, dec("200"), paidAt)
		assert.ErrorIs(t, err, ErrAlreadyPaid)

		stored, err := svc.Entries(ctx, "flat")
		require.NoError(t, err)
		assert.Len(t, stored, 4)
	})
}

func TestRecordPaymentReturnGoesToManagerWithoutCreditor(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	req := flatLoan()
	req.Parties = commission.Parties{ManagerID: "mgr-1"}
	_, _, err := svc.CreateLoan(ctx, req)
	require.NoError(t, err)

	res, err := svc.RecordPayment(ctx, "flat", 2, dec("200"), time.Time{})
	require.NoError(t, err)

	require.Len(t, res.Entries, 2)
	for _, e := range res.Entries {
		assert.Equal(t, "mgr-1", e.AccountID)
	}
	assertDecimal(t, "30", res.Allocation.ManagerShare)
	assertDecimal(t, "170", res.Allocation.CreditorReturn)
	// без даты оплаты берется текущее время сервиса
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), *res.Installment.PaidAt)
}

func TestRecordPaymentAmortizingBase(t *testing.T) {
	tests := []struct {
		name       string
		storeTotal bool
		wantKind   commission.StoredAmountKind
		wantStored string
		searched   bool
		// базы первого и второго платежа и доли по второму
		wantFirstBase  string
		wantSecondBase string
		wantSecond     [3]string
	}{
		{
			name:           "principal stored",
			wantKind:       commission.StoredAmountPrincipal,
			wantStored:     "1000",
			wantFirstBase:  "1000",
			wantSecondBase: "936.99",
			wantSecond:     [3]string{"9.37", "18.74", "18.27"},
		},
		{
			name:           "total payable stored",
			storeTotal:     true,
			wantKind:       commission.StoredAmountTotalPayable,
			wantStored:     "1350.07",
			searched:       true,
			wantFirstBase:  "999.90",
			wantSecondBase: "936.90",
			wantSecond:     [3]string{"9.37", "18.74", "18.27"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := newService(t)
			loan, installments, err := svc.CreateLoan(ctx, NewLoan{
				ID: "price",
				Terms: calculations.LoanTerms{
					Method:           calculations.FixedInstallment,
					Principal:        dec("1000"),
					InstallmentCount: 12,
					PeriodicRate:     dec("0.0495"),
				},
				Rates:             commission.Rates{Total: dec("4.95"), Intermediator: dec("1"), Creditor: dec("2")},
				Parties:           commission.Parties{IntermediatorID: "int-1", CreditorID: "cred-1", ManagerID: "mgr-1"},
				StartDate:         start,
				StoreTotalPayable: tt.storeTotal,
			})
			require.NoError(t, err)
			assertDecimal(t, tt.wantStored, loan.StoredTotalAmount)
			assert.Equal(t, tt.wantKind, loan.StoredAmountKind)

			stored, err := svc.Loan(ctx, "price")
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, stored.StoredAmountKind)

			first := installments[0].TotalAmount
			assertDecimal(t, "112.51", first)
			res, err := svc.RecordPayment(ctx, "price", 1, first, time.Time{})
			require.NoError(t, err)

			a := res.Allocation
			assert.Equal(t, commission.BasisOriginalPrincipal, a.Basis)
			require.NotNil(t, a.Reconstruction)
			assert.Equal(t, tt.searched, a.Reconstruction.Searched)
			assertDecimal(t, tt.wantFirstBase, a.CalculationBase)
			assertDecimal(t, "10.00", a.IntermediatorShare)
			assertDecimal(t, "20.00", a.CreditorShare)
			assertDecimal(t, "19.50", a.ManagerShare)
			assertDecimal(t, first.Sub(dec("49.50")).String(), a.CreditorReturn)

			res, err = svc.RecordPayment(ctx, "price", 2, installments[1].TotalAmount, time.Time{})
			require.NoError(t, err)
			a = res.Allocation
			assert.Equal(t, commission.BasisOutstandingBalance, a.Basis)
			assertDecimal(t, tt.wantSecondBase, a.CalculationBase)
			assertDecimal(t, tt.wantSecond[0], a.IntermediatorShare)
			assertDecimal(t, tt.wantSecond[1], a.CreditorShare)
			assertDecimal(t, tt.wantSecond[2], a.ManagerShare)
			if !tt.storeTotal {
				// база совпадает с остатком долга в сохраненном графике
				assertDecimal(t, installments[0].RemainingBalance.String(), a.CalculationBase)
			}
		})
	}
}

func TestRecordPaymentReconstructionIterations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	req := NewLoan{
		ID: "price",
		Terms: calculations.LoanTerms{
			Method:           calculations.FixedInstallment,
			Principal:        dec("1000"),
			InstallmentCount: 12,
			PeriodicRate:     dec("0.0495"),
		},
		Rates:             commission.Rates{Total: dec("4.95"), Intermediator: dec("1"), Creditor: dec("2")},
		Parties:           commission.Parties{CreditorID: "cred-1"},
		StartDate:         start,
		StoreTotalPayable: true,
	}
	_, installments, err := svc.CreateLoan(ctx, req)
	require.NoError(t, err)

	res, err := svc.RecordPayment(ctx, "price", 1, installments[0].TotalAmount, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, res.Allocation.Reconstruction)
	assert.Equal(t, 5, res.Allocation.Reconstruction.Iterations)
}

func TestScaleBeyondStorageIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	tests := []struct {
		name   string
		mutate func(*NewLoan)
	}{
		{"periodic rate", func(l *NewLoan) { l.Terms.PeriodicRate = dec("0.041666666667") }},
		{"principal", func(l *NewLoan) { l.Terms.Principal = dec("800.005") }},
		{"commission rate", func(l *NewLoan) { l.Rates.Creditor = dec("10.00001") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := flatLoan()
			tt.mutate(&req)
			_, _, err := svc.CreateLoan(ctx, req)
			assert.ErrorIs(t, err, validators.ErrValidation)

			_, err = svc.Loan(ctx, req.ID)
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}

	t.Run("finest storable values are kept", func(t *testing.T) {
		req := flatLoan()
		req.Terms.PeriodicRate = dec("0.04166667")
		req.Rates.Creditor = dec("10.0001")
		_, _, err := svc.CreateLoan(ctx, req)
		require.NoError(t, err)

		loan, err := svc.Loan(ctx, req.ID)
		require.NoError(t, err)
		assertDecimal(t, "0.04166667", loan.Terms.PeriodicRate)
		assertDecimal(t, "10.0001", loan.Rates.Creditor)
	})

	t.Run("paid amount with a fraction of a cent", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, "flat", 1, dec("100.005"), time.Time{})
		assert.ErrorIs(t, err, validators.ErrValidation)

		entries, err := svc.Entries(ctx, "flat")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestRecordPaymentErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, _, err := svc.CreateLoan(ctx, NewLoan{
		ID: "greedy",
		Terms: calculations.LoanTerms{
			Method:           calculations.FixedInstallment,
			Principal:        dec("1000"),
			InstallmentCount: 3,
			PeriodicRate:     dec("0.05"),
		},
		Rates:     commission.Rates{Total: dec("50"), Creditor: dec("50")},
		Parties:   commission.Parties{CreditorID: "cred-1"},
		StartDate: start,
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, "missing", 1, dec("100"), time.Time{})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.RecordPayment(ctx, "greedy", 4, dec("100"), time.Time{})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.RecordPayment(ctx, "greedy", 1, dec("100"), time.Time{})
	assert.ErrorIs(t, err, commission.ErrSharesExceedPayment)

	entries, err := svc.Entries(ctx, "greedy")
	require.NoError(t, err)
	assert.Empty(t, entries)

	schedule, err := svc.Schedule(ctx, "greedy")
	require.NoError(t, err)
	assert.False(t, schedule[0].Paid())
}
