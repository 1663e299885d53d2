package validators

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/internal/config"
)

// ErrValidation оборачивает все ошибки проверки входных параметров
var ErrValidation = errors.New("validation error")

var minAmount = decimal.RequireFromString("0.01")

// Знаков после запятой, которые хранилище сохраняет без округления
const (
	AmountPlaces       int32 = 2
	RatePercentPlaces  int32 = 4
	PeriodicRatePlaces int32 = 8
)

// ValidateRange проверяет, что число в допустимом диапазоне
func ValidateRange(name string, value, minInclusive, maxInclusive decimal.Decimal) error {
	if value.LessThan(minInclusive) {
		return fmt.Errorf("%w: %s: значение должно быть ≥ %s", ErrValidation, name, minInclusive)
	}
	if value.GreaterThan(maxInclusive) {
		return fmt.Errorf("%w: %s: значение слишком велико (>%s)", ErrValidation, name, maxInclusive)
	}
	return nil
}

// ValidateIntRange проверяет, что целое число в допустимом диапазоне
func ValidateIntRange(name string, value int, minInclusive, maxInclusive int) error {
	if value < minInclusive || value > maxInclusive {
		return fmt.Errorf("%w: %s: значение должно быть в диапазоне [%d; %d]", ErrValidation, name, minInclusive, maxInclusive)
	}
	return nil
}

// CheckPrincipal проверяет сумму кредита
func CheckPrincipal(cfg *config.Config, principal decimal.Decimal) error {
	return ValidateRange("principal", principal, minAmount, decimal.NewFromFloat(cfg.MaxPrincipal))
}

// CheckAmount проверяет денежную сумму (оплата, сохраненная общая сумма)
func CheckAmount(cfg *config.Config, name string, amount decimal.Decimal) error {
	return ValidateRange(name, amount, minAmount, decimal.NewFromFloat(cfg.MaxPrincipal))
}

// CheckRatePercent проверяет ставку в процентах за период
func CheckRatePercent(cfg *config.Config, name string, rate decimal.Decimal) error {
	return ValidateRange(name, rate, decimal.Zero, decimal.NewFromFloat(cfg.MaxRate))
}

// CheckInstallments проверяет количество платежей
func CheckInstallments(cfg *config.Config, installments int) error {
	return ValidateIntRange("installments", installments, 1, cfg.MaxInstallments)
}

// CheckScale проверяет, что у числа не больше places знаков после запятой.
// Незначащие нули не учитываются: 1.500 проходит при places = 2.
func CheckScale(name string, value decimal.Decimal, places int32) error {
	if !value.Equal(value.Truncate(places)) {
		return fmt.Errorf("%w: %s: допускается не больше %d знаков после запятой, получено %s",
			ErrValidation, name, places, value)
	}
	return nil
}
