package calculations

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Method определяет способ амортизации кредита
type Method string

const (
	// FixedInstallment - аннуитет (таблица Price): одинаковые платежи
	FixedInstallment Method = "FIXED_INSTALLMENT"
	// ConstantAmortization - дифференцированный платеж (SAC): одинаковая доля основного долга
	ConstantAmortization Method = "CONSTANT_AMORTIZATION"
	// SimpleInterest - простые проценты, общая сумма процентов делится поровну
	SimpleInterest Method = "SIMPLE_INTEREST"
	// RecurringSimpleInterest - простые проценты на исходную сумму в каждом периоде
	RecurringSimpleInterest Method = "RECURRING_SIMPLE_INTEREST"
	// InterestOnly - только проценты, основной долг гасится последним платежом
	InterestOnly Method = "INTEREST_ONLY"
)

// Methods перечисляет все поддерживаемые способы в стабильном порядке
var Methods = []Method{
	FixedInstallment,
	ConstantAmortization,
	SimpleInterest,
	RecurringSimpleInterest,
	InterestOnly,
}

var methodAliases = map[string]Method{
	"fixed_installment":         FixedInstallment,
	"price":                     FixedInstallment,
	"constant_amortization":     ConstantAmortization,
	"sac":                       ConstantAmortization,
	"simple_interest":           SimpleInterest,
	"simple":                    SimpleInterest,
	"recurring_simple_interest": RecurringSimpleInterest,
	"recurring_simple":          RecurringSimpleInterest,
	"interest_only":             InterestOnly,
}

// ParseMethod разбирает название способа амортизации (без учета регистра)
func ParseMethod(name string) (Method, error) {
	if m, ok := methodAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m, nil
	}
	return "", unsupportedMethod(Method(name))
}

// IsFlat сообщает, начисляется ли комиссия от фактически уплаченной суммы
func (m Method) IsFlat() bool {
	return m == SimpleInterest || m == RecurringSimpleInterest
}

func (m Method) String() string {
	return string(m)
}

// LoanTerms - параметры кредита для расчета графика
type LoanTerms struct {
	Method           Method          `json:"method"`
	Principal        decimal.Decimal `json:"principal"`
	InstallmentCount int             `json:"installment_count"`
	// PeriodicRate задается долей за период: 0.05 = 5%
	PeriodicRate decimal.Decimal `json:"periodic_rate"`
}

// InstallmentDetail представляет одну строку графика платежей
type InstallmentDetail struct {
	Number             int             `json:"number"`
	PrincipalComponent decimal.Decimal `json:"principal_component"`
	InterestComponent  decimal.Decimal `json:"interest_component"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	RemainingBalance   decimal.Decimal `json:"remaining_balance"`
}

// Summary представляет сводку по графику
type Summary struct {
	Method        Method          `json:"method"`
	Principal     decimal.Decimal `json:"principal"`
	PeriodicRate  decimal.Decimal `json:"periodic_rate"`
	Installments  int             `json:"installments"`
	FirstPayment  decimal.Decimal `json:"first_payment"`
	LastPayment   decimal.Decimal `json:"last_payment"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalInterest decimal.Decimal `json:"total_interest"`
}

// Schedule - результат расчета: сводка и строки графика
type Schedule struct {
	Summary      Summary             `json:"summary"`
	Installments []InstallmentDetail `json:"installments"`
}

// MethodTotals - итоги одного способа в сравнении
type MethodTotals struct {
	Method             Method          `json:"method"`
	FirstPayment       decimal.Decimal `json:"first_payment"`
	LastPayment        decimal.Decimal `json:"last_payment"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	TotalInterest      decimal.Decimal `json:"total_interest"`
	OverpaymentPercent decimal.Decimal `json:"overpayment_percent"`
}

// Comparison представляет результат сравнения способов амортизации
type Comparison struct {
	Principal     decimal.Decimal `json:"principal"`
	PeriodicRate  decimal.Decimal `json:"periodic_rate"`
	Installments  int             `json:"installments"`
	Methods       []MethodTotals  `json:"methods"`
	Cheapest      Method          `json:"cheapest"`
	MostExpensive Method          `json:"most_expensive"`
	// Spread - разница общей суммы выплат между самым дорогим и самым дешевым способом
	Spread    decimal.Decimal `json:"spread"`
	Schedules []Schedule      `json:"schedules,omitempty"`
}
