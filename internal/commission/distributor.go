package commission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/internal/calculations"
	"github.com/cloud-ru/loan-servicing-go/pkg/utils"
)

// Distributor делит оплаченный платеж между посредником, кредитором и менеджером.
// Не хранит изменяемого состояния и безопасен для конкурентного использования.
type Distributor struct {
	reconstructor *Reconstructor
	logger        *slog.Logger
}

// NewDistributor создает Distributor с заданными параметрами восстановления суммы
func NewDistributor(cfg ReconstructionConfig, logger *slog.Logger) (*Distributor, error) {
	logger = orDiscard(logger)
	reconstructor, err := NewReconstructor(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Distributor{reconstructor: reconstructor, logger: logger}, nil
}

// ValidateRates проверяет ставки комиссий относительно общей ставки
func ValidateRates(r Rates) error {
	if r.Total.IsNegative() || r.Intermediator.IsNegative() || r.Creditor.IsNegative() {
		return fmt.Errorf("%w: rates must not be negative (total %s, intermediator %s, creditor %s)",
			ErrInvalidRates, r.Total, r.Intermediator, r.Creditor)
	}
	if r.Intermediator.GreaterThan(r.Total) || r.Creditor.GreaterThan(r.Total) {
		return fmt.Errorf("%w: intermediator %s and creditor %s must not exceed total %s",
			ErrInvalidRates, r.Intermediator, r.Creditor, r.Total)
	}
	if manager := r.Manager(); manager.IsNegative() {
		return fmt.Errorf("%w: total %s − intermediator %s − creditor %s = %s",
			ErrNegativeManagerRate, r.Total, r.Intermediator, r.Creditor, manager)
	}
	return nil
}

// Allocate распределяет оплаченную сумму платежа с номером installmentNumber
func (d *Distributor) Allocate(ctx context.Context, loan Loan, installmentNumber int, paid decimal.Decimal) (AllocationResult, error) {
	method := loan.Terms.Method
	if err := method.Validate(); err != nil {
		return AllocationResult{}, err
	}
	if err := ValidateRates(loan.Rates); err != nil {
		return AllocationResult{}, err
	}
	if loan.Terms.InstallmentCount < 1 || installmentNumber < 1 || installmentNumber > loan.Terms.InstallmentCount {
		return AllocationResult{}, fmt.Errorf("%w: number %d outside schedule of %d installments",
			ErrInvalidInstallment, installmentNumber, loan.Terms.InstallmentCount)
	}
	if !paid.IsPositive() {
		return AllocationResult{}, fmt.Errorf("%w: paid amount must be positive, got %s", ErrInvalidInstallment, paid)
	}

	result := AllocationResult{
		InstallmentNumber: installmentNumber,
		PaidAmount:        paid,
		ManagerRate:       loan.Rates.Manager(),
	}

	if method.IsFlat() {
		result.CalculationBase = paid
		result.Basis = BasisInstallmentValue
		result.BasisLabel = fmt.Sprintf("installment value %s: %s charges commission on the amount paid", paid.StringFixed(2), method)
	} else if err := d.amortizingBase(ctx, loan, installmentNumber, &result); err != nil {
		return AllocationResult{}, err
	}

	base := result.CalculationBase
	if loan.Parties.HasIntermediator() {
		result.IntermediatorShare = utils.Percent(base, loan.Rates.Intermediator)
	}
	if loan.Parties.HasCreditor() {
		result.CreditorShare = utils.Percent(base, loan.Rates.Creditor)
	}
	if loan.Parties.HasManager() {
		result.ManagerShare = utils.Percent(base, result.ManagerRate)
	}
	// остаток считается от уплаченной суммы, а не от базы расчета
	result.CreditorReturn = paid.Sub(result.CommissionTotal())
	if result.CreditorReturn.IsNegative() {
		return AllocationResult{}, fmt.Errorf("%w: commissions %s on base %s, paid %s",
			ErrSharesExceedPayment, result.CommissionTotal(), base, paid)
	}

	d.logger.DebugContext(ctx, "installment allocated",
		slog.String("method", method.String()),
		slog.Int("installment", installmentNumber),
		slog.String("basis", string(result.Basis)),
		slog.String("base", base.String()),
		slog.String("intermediator_share", result.IntermediatorShare.String()),
		slog.String("creditor_share", result.CreditorShare.String()),
		slog.String("manager_share", result.ManagerShare.String()),
		slog.String("creditor_return", result.CreditorReturn.String()),
	)

	return result, nil
}

// amortizingBase: первый платеж - от исходной суммы, остальные - от остатка долга до платежа
func (d *Distributor) amortizingBase(ctx context.Context, loan Loan, installmentNumber int, result *AllocationResult) error {
	rec, err := d.originalPrincipal(ctx, loan)
	if err != nil {
		return err
	}
	result.Reconstruction = &rec

	origin := "stored total"
	switch {
	case rec.Searched:
		origin = fmt.Sprintf("reconstructed from stored total %s", rec.StoredTotal.StringFixed(2))
	case loan.StoredAmountKind == StoredAmountPrincipal:
		origin = "stored principal"
	}

	if installmentNumber == 1 {
		result.CalculationBase = rec.Principal
		result.Basis = BasisOriginalPrincipal
		result.BasisLabel = fmt.Sprintf("original principal %s (%s) for the first installment", rec.Principal.StringFixed(2), origin)
		return nil
	}

	terms := loan.Terms
	terms.Principal = rec.Principal
	rows, err := calculations.Simulate(terms)
	if err != nil {
		return err
	}

	balance := rec.Principal.Sub(calculations.PrincipalPaidBefore(rows, installmentNumber))
	result.CalculationBase = balance
	result.Basis = BasisOutstandingBalance
	result.BasisLabel = fmt.Sprintf("outstanding balance %s before installment %d (principal %s, %s)",
		balance.StringFixed(2), installmentNumber, rec.Principal.StringFixed(2), origin)
	return nil
}

// originalPrincipal берет сохраненную сумму как исходную, если кредит помечен
// как StoredAmountPrincipal, и восстанавливает ее поиском во всех остальных случаях
func (d *Distributor) originalPrincipal(ctx context.Context, loan Loan) (Reconstruction, error) {
	if loan.StoredAmountKind != StoredAmountPrincipal {
		return d.reconstructor.Reconstruct(ctx, loan.Terms, loan.StoredTotalAmount)
	}
	if !loan.StoredTotalAmount.IsPositive() {
		return Reconstruction{}, fmt.Errorf("%w: stored principal must be positive, got %s",
			calculations.ErrInvalidTerms, loan.StoredTotalAmount)
	}
	total, err := totalPayable(loan.Terms, loan.StoredTotalAmount)
	if err != nil {
		return Reconstruction{}, err
	}
	return Reconstruction{
		StoredTotal:  loan.StoredTotalAmount,
		Principal:    loan.StoredTotalAmount,
		TotalPayable: total,
	}, nil
}
