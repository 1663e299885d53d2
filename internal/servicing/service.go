// Package servicing связывает график, распределение комиссий и хранилище:
// выдача кредита, прием оплаты платежа, чтение графика и проводок.
package servicing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/internal/calculations"
	"github.com/cloud-ru/loan-servicing-go/internal/commission"
	"github.com/cloud-ru/loan-servicing-go/internal/metrics"
	"github.com/cloud-ru/loan-servicing-go/internal/store"
	"github.com/cloud-ru/loan-servicing-go/internal/validators"
)

var (
	// ErrAlreadyPaid - платеж уже оплачен
	ErrAlreadyPaid = store.ErrAlreadyPaid
	// ErrNoBeneficiary - у кредита нет ни кредитора, ни менеджера, которым уходит остаток платежа
	ErrNoBeneficiary = errors.New("loan has neither creditor nor manager")
)

// DueDateFunc возвращает дату платежа с номером number
type DueDateFunc func(start time.Time, number int) time.Time

// MonthlyDueDates - платежи раз в месяц от даты выдачи
func MonthlyDueDates(start time.Time, number int) time.Time {
	return start.AddDate(0, number, 0)
}

// NewLoan - параметры выдачи кредита
type NewLoan struct {
	// ID можно не задавать, тогда он будет сгенерирован
	ID        string                 `json:"id,omitempty"`
	Terms     calculations.LoanTerms `json:"terms"`
	Rates     commission.Rates       `json:"rates"`
	Parties   commission.Parties     `json:"parties"`
	StartDate time.Time              `json:"start_date"`
	// StoreTotalPayable сохраняет общую сумму выплат вместо выданной суммы
	StoreTotalPayable bool `json:"store_total_payable"`
}

// PaymentResult - итог приема оплаты
type PaymentResult struct {
	Allocation  commission.AllocationResult `json:"allocation"`
	Installment store.Installment           `json:"installment"`
	Entries     []store.LedgerEntry         `json:"entries"`
}

// Service - сценарии обслуживания кредита
type Service struct {
	store       store.Store
	distributor *commission.Distributor
	dueDates    DueDateFunc
	now         func() time.Time
	logger      *slog.Logger
}

type Option func(*Service)

// WithDueDates задает расчет дат платежей
func WithDueDates(f DueDateFunc) Option {
	return func(s *Service) { s.dueDates = f }
}

// WithClock задает источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger задает логгер
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(st store.Store, distributor *commission.Distributor, opts ...Option) *Service {
	s := &Service{
		store:       st,
		distributor: distributor,
		dueDates:    MonthlyDueDates,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// CreateLoan рассчитывает график и сохраняет кредит вместе с ним
func (s *Service) CreateLoan(ctx context.Context, req NewLoan) (store.Loan, []store.Installment, error) {
	if err := checkStorable(req); err != nil {
		return store.Loan{}, nil, err
	}
	rows, err := calculations.Simulate(req.Terms)
	if err != nil {
		return store.Loan{}, nil, err
	}
	if err := commission.ValidateRates(req.Rates); err != nil {
		return store.Loan{}, nil, err
	}
	if !req.Parties.HasCreditor() && !req.Parties.HasManager() {
		return store.Loan{}, nil, ErrNoBeneficiary
	}

	now := s.now().UTC()
	start := req.StartDate
	if start.IsZero() {
		start = now
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	stored, kind := req.Terms.Principal, commission.StoredAmountPrincipal
	if req.StoreTotalPayable {
		stored, kind = calculations.TotalPayable(rows), commission.StoredAmountTotalPayable
	}

	loan := store.Loan{
		ID:                id,
		Terms:             req.Terms,
		StoredTotalAmount: stored,
		StoredAmountKind:  kind,
		Rates:             req.Rates,
		Parties:           req.Parties,
		StartDate:         start,
		CreatedAt:         now,
	}
	installments := make([]store.Installment, 0, len(rows))
	for _, row := range rows {
		installments = append(installments, store.Installment{
			LoanID:            id,
			InstallmentDetail: row,
			DueDate:           s.dueDates(start, row.Number),
		})
	}

	if err := s.store.CreateLoan(ctx, loan, installments); err != nil {
		return store.Loan{}, nil, err
	}

	s.logger.InfoContext(ctx, "loan created",
		slog.String("loan_id", id),
		slog.String("method", req.Terms.Method.String()),
		slog.String("principal", req.Terms.Principal.String()),
		slog.String("stored_total_amount", stored.String()),
		slog.String("stored_amount_kind", string(kind)),
		slog.Int("installments", len(installments)),
	)
	return loan, installments, nil
}

// RecordPayment распределяет оплату платежа и записывает проводки
func (s *Service) RecordPayment(ctx context.Context, loanID string, number int, paid decimal.Decimal, at time.Time) (PaymentResult, error) {
	if err := validators.CheckScale("paid_amount", paid, validators.AmountPlaces); err != nil {
		return PaymentResult{}, err
	}
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return PaymentResult{}, err
	}
	inst, err := s.store.GetInstallment(ctx, loanID, number)
	if err != nil {
		return PaymentResult{}, err
	}
	if inst.Paid() {
		return PaymentResult{}, fmt.Errorf("installment %d of loan %s: %w", number, loanID, ErrAlreadyPaid)
	}

	allocation, err := s.distributor.Allocate(ctx, loan.CommissionLoan(), number, paid)
	if err != nil {
		return PaymentResult{}, err
	}
	if !paid.Equal(inst.TotalAmount) {
		s.logger.WarnContext(ctx, "paid amount differs from scheduled",
			slog.String("loan_id", loanID),
			slog.Int("installment", number),
			slog.String("paid", paid.String()),
			slog.String("scheduled", inst.TotalAmount.String()),
		)
	}

	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()
	entries := ledgerEntries(loan, allocation, at)

	err = s.store.RecordPayment(ctx, store.Payment{
		LoanID:            loanID,
		InstallmentNumber: number,
		Amount:            paid,
		PaidAt:            at,
		Entries:           entries,
	})
	if err != nil {
		return PaymentResult{}, err
	}

	metrics.Allocations.WithLabelValues(loan.Terms.Method.String(), string(allocation.Basis)).Inc()
	if rec := allocation.Reconstruction; rec != nil && rec.Searched {
		metrics.ReconstructionIterations.Observe(float64(rec.Iterations))
	}

	inst.PaidAt = &at
	inst.PaidAmount = &paid
	s.logger.InfoContext(ctx, "payment recorded",
		slog.String("loan_id", loanID),
		slog.Int("installment", number),
		slog.String("paid", paid.String()),
		slog.String("basis", string(allocation.Basis)),
		slog.Int("entries", len(entries)),
	)
	return PaymentResult{Allocation: allocation, Installment: inst, Entries: entries}, nil
}

// checkStorable отклоняет суммы и ставки точнее, чем их сохраняет хранилище
func checkStorable(req NewLoan) error {
	checks := []struct {
		name   string
		value  decimal.Decimal
		places int32
	}{
		{"principal", req.Terms.Principal, validators.AmountPlaces},
		{"periodic_rate", req.Terms.PeriodicRate, validators.PeriodicRatePlaces},
		{"total_rate", req.Rates.Total, validators.RatePercentPlaces},
		{"intermediator_rate", req.Rates.Intermediator, validators.RatePercentPlaces},
		{"creditor_rate", req.Rates.Creditor, validators.RatePercentPlaces},
	}
	for _, c := range checks {
		if err := validators.CheckScale(c.name, c.value, c.places); err != nil {
			return err
		}
	}
	return nil
}

// ledgerEntries переводит ненулевые доли в проводки.
// Остаток платежа уходит кредитору, а без кредитора - менеджеру.
func ledgerEntries(loan store.Loan, a commission.AllocationResult, at time.Time) []store.LedgerEntry {
	returnAccount := loan.Parties.CreditorID
	if returnAccount == "" {
		returnAccount = loan.Parties.ManagerID
	}

	shares := []struct {
		party   store.Party
		account string
		amount  decimal.Decimal
	}{
		{store.PartyIntermediator, loan.Parties.IntermediatorID, a.IntermediatorShare},
		{store.PartyCreditor, loan.Parties.CreditorID, a.CreditorShare},
		{store.PartyManager, loan.Parties.ManagerID, a.ManagerShare},
		{store.PartyCreditorReturn, returnAccount, a.CreditorReturn},
	}

	entries := make([]store.LedgerEntry, 0, len(shares))
	for _, sh := range shares {
		if sh.amount.IsZero() {
			continue
		}
		entries = append(entries, store.LedgerEntry{
			ID:                uuid.New(),
			LoanID:            loan.ID,
			InstallmentNumber: a.InstallmentNumber,
			Party:             sh.party,
			AccountID:         sh.account,
			Amount:            sh.amount,
			CreatedAt:         at,
		})
	}
	return entries
}

// Loan возвращает сохраненный кредит
func (s *Service) Loan(ctx context.Context, loanID string) (store.Loan, error) {
	return s.store.GetLoan(ctx, loanID)
}

// Schedule возвращает сохраненный график платежей
func (s *Service) Schedule(ctx context.Context, loanID string) ([]store.Installment, error) {
	return s.store.ListInstallments(ctx, loanID)
}

// Entries возвращает проводки по кредиту
func (s *Service) Entries(ctx context.Context, loanID string) ([]store.LedgerEntry, error) {
	return s.store.ListEntries(ctx, loanID)
}
