package commission

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/internal/calculations"
)

var (
	// ErrUnsupportedMethod совпадает с ошибкой калькулятора, чтобы errors.Is работал в обе стороны
	ErrUnsupportedMethod = calculations.ErrUnsupportedMethod
	// ErrNegativeManagerRate - ставки посредника и кредитора превышают общую ставку
	ErrNegativeManagerRate = errors.New("negative manager rate")
	// ErrInvalidRates - отрицательная ставка или ставка больше общей
	ErrInvalidRates = errors.New("invalid commission rates")
	// ErrInvalidInstallment - номер платежа вне графика или неположительная сумма
	ErrInvalidInstallment = errors.New("invalid installment")
	// ErrSharesExceedPayment - комиссии больше уплаченной суммы
	ErrSharesExceedPayment = errors.New("commission shares exceed paid amount")
	// ErrInvalidStoredAmountKind - неизвестный вид сохраненной суммы
	ErrInvalidStoredAmountKind = errors.New("invalid stored amount kind")
	// ErrInvalidReconstructionConfig - некорректные параметры восстановления суммы
	ErrInvalidReconstructionConfig = errors.New("invalid reconstruction config")
	// ErrNonConvergentReconstruction - бинарный поиск не сошелся за отведенное число итераций
	ErrNonConvergentReconstruction = errors.New("principal reconstruction did not converge")
)

// NonConvergentReconstructionError описывает несошедшийся поиск исходной суммы
type NonConvergentReconstructionError struct {
	StoredTotal  decimal.Decimal
	Iterations   int
	LastEstimate decimal.Decimal
	LastDiff     decimal.Decimal
}

func (e *NonConvergentReconstructionError) Error() string {
	return fmt.Sprintf("%s: stored total %s, %d iterations, last estimate %s (diff %s)",
		ErrNonConvergentReconstruction, e.StoredTotal, e.Iterations, e.LastEstimate, e.LastDiff)
}

func (e *NonConvergentReconstructionError) Unwrap() error {
	return ErrNonConvergentReconstruction
}
