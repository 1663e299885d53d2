package tools

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/internal/calculations"
	"github.com/cloud-ru/loan-servicing-go/internal/commission"
	"github.com/cloud-ru/loan-servicing-go/internal/validators"
	"github.com/cloud-ru/loan-servicing-go/pkg/utils"
)

var (
	hundred = decimal.NewFromInt(100)
	minInt  = decimal.NewFromInt(math.MinInt)
	maxInt  = decimal.NewFromInt(math.MaxInt)
)

func invalidParam(name string, reason interface{}) error {
	return fmt.Errorf("%w: invalid parameter %s: %v", validators.ErrValidation, name, reason)
}

func decimalParam(params map[string]interface{}, name string) (decimal.Decimal, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return decimal.Zero, invalidParam(name, "required")
	}
	value, err := utils.ToDecimal(raw)
	if err != nil {
		return decimal.Zero, invalidParam(name, err)
	}
	return value, nil
}

// optionalDecimalParam возвращает ноль, если параметр не задан
func optionalDecimalParam(params map[string]interface{}, name string) (decimal.Decimal, error) {
	if raw, ok := params[name]; !ok || raw == nil {
		return decimal.Zero, nil
	}
	return decimalParam(params, name)
}

func intParam(params map[string]interface{}, name string) (int, error) {
	value, err := decimalParam(params, name)
	if err != nil {
		return 0, err
	}
	if !value.IsInteger() {
		return 0, invalidParam(name, "must be an integer")
	}
	if value.LessThan(minInt) || value.GreaterThan(maxInt) {
		return 0, invalidParam(name, "out of integer range")
	}
	return int(value.IntPart()), nil
}

func stringParam(params map[string]interface{}, name string) (string, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return "", invalidParam(name, "required")
	}
	s, ok := raw.(string)
	if !ok {
		return "", invalidParam(name, "must be a string")
	}
	return s, nil
}

func optionalStringParam(params map[string]interface{}, name string) (string, error) {
	if raw, ok := params[name]; !ok || raw == nil {
		return "", nil
	}
	return stringParam(params, name)
}

func boolParam(params map[string]interface{}, name string) (bool, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, invalidParam(name, "must be a boolean")
	}
	return b, nil
}

// timeParam разбирает дату в формате RFC 3339; пустое значение дает нулевое время
func timeParam(params map[string]interface{}, name string) (time.Time, error) {
	s, err := optionalStringParam(params, name)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, invalidParam(name, err)
	}
	return t, nil
}

// termsParams читает способ, сумму, ставку в процентах за период и число платежей.
// principalName позволяет читать stored_total_amount вместо principal.
func termsParams(params map[string]interface{}, principalName string) (calculations.LoanTerms, error) {
	name, err := stringParam(params, "method")
	if err != nil {
		return calculations.LoanTerms{}, err
	}
	method, err := calculations.ParseMethod(name)
	if err != nil {
		return calculations.LoanTerms{}, fmt.Errorf("%w: invalid parameter method: %w", validators.ErrValidation, err)
	}
	principal, err := decimalParam(params, principalName)
	if err != nil {
		return calculations.LoanTerms{}, err
	}
	ratePercent, err := decimalParam(params, "periodic_rate_percent")
	if err != nil {
		return calculations.LoanTerms{}, err
	}
	installments, err := intParam(params, "installments")
	if err != nil {
		return calculations.LoanTerms{}, err
	}
	return calculations.LoanTerms{
		Method:           method,
		Principal:        principal,
		InstallmentCount: installments,
		PeriodicRate:     ratePercent.Div(hundred),
	}, nil
}

func ratesParams(params map[string]interface{}) (commission.Rates, error) {
	total, err := decimalParam(params, "total_rate")
	if err != nil {
		return commission.Rates{}, err
	}
	intermediator, err := optionalDecimalParam(params, "intermediator_rate")
	if err != nil {
		return commission.Rates{}, err
	}
	creditor, err := optionalDecimalParam(params, "creditor_rate")
	if err != nil {
		return commission.Rates{}, err
	}
	return commission.Rates{Total: total, Intermediator: intermediator, Creditor: creditor}, nil
}

// storedAmountKindParam читает необязательный stored_amount_kind; без него
// трактовка stored_total_amount определяется поиском исходной суммы
func storedAmountKindParam(params map[string]interface{}) (commission.StoredAmountKind, error) {
	s, err := optionalStringParam(params, "stored_amount_kind")
	if err != nil {
		return commission.StoredAmountUnknown, err
	}
	kind, err := commission.ParseStoredAmountKind(s)
	if err != nil {
		return commission.StoredAmountUnknown, fmt.Errorf("%w: invalid parameter stored_amount_kind: %w", validators.ErrValidation, err)
	}
	return kind, nil
}

func partiesParams(params map[string]interface{}) (commission.Parties, error) {
	var (
		p   commission.Parties
		err error
	)
	if p.IntermediatorID, err = optionalStringParam(params, "intermediator_id"); err != nil {
		return p, err
	}
	if p.CreditorID, err = optionalStringParam(params, "creditor_id"); err != nil {
		return p, err
	}
	if p.ManagerID, err = optionalStringParam(params, "manager_id"); err != nil {
		return p, err
	}
	return p, nil
}
