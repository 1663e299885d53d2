package calculations

import (
	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/pkg/utils"
)

// rowsFunc строит строки графика для уже проверенных параметров
type rowsFunc func(principal, rate decimal.Decimal, n int) []InstallmentDetail

// schedulers - таблица расчета по способу амортизации.
// Новый способ должен быть добавлен и в Methods, и сюда.
var schedulers = map[Method]rowsFunc{
	FixedInstallment:        fixedInstallmentRows,
	ConstantAmortization:    constantAmortizationRows,
	SimpleInterest:          simpleInterestRows,
	RecurringSimpleInterest: recurringSimpleInterestRows,
	InterestOnly:            interestOnlyRows,
}

var one = decimal.NewFromInt(1)

// Validate проверяет, что способ амортизации поддерживается
func (m Method) Validate() error {
	if _, ok := schedulers[m]; !ok {
		return unsupportedMethod(m)
	}
	return nil
}

// Validate проверяет параметры кредита
func (t LoanTerms) Validate() error {
	if err := t.Method.Validate(); err != nil {
		return err
	}
	if !t.Principal.IsPositive() {
		return invalidTerms("principal must be positive, got %s", t.Principal)
	}
	if t.InstallmentCount <= 0 {
		return invalidTerms("installment count must be positive, got %d", t.InstallmentCount)
	}
	if t.PeriodicRate.IsNegative() {
		return invalidTerms("periodic rate must not be negative, got %s", t.PeriodicRate)
	}
	return nil
}

// Simulate рассчитывает график платежей. Параметры не изменяются,
// результат содержит ровно InstallmentCount строк с номерами 1..N.
func Simulate(terms LoanTerms) ([]InstallmentDetail, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	build := schedulers[terms.Method]
	return build(terms.Principal, terms.PeriodicRate, terms.InstallmentCount), nil
}

// SimulateSchedule рассчитывает график вместе со сводкой
func SimulateSchedule(terms LoanTerms) (*Schedule, error) {
	rows, err := Simulate(terms)
	if err != nil {
		return nil, err
	}
	return &Schedule{
		Summary:      Summarize(terms, rows),
		Installments: rows,
	}, nil
}

// Summarize формирует сводку по готовому графику
func Summarize(terms LoanTerms, rows []InstallmentDetail) Summary {
	summary := Summary{
		Method:        terms.Method,
		Principal:     terms.Principal,
		PeriodicRate:  terms.PeriodicRate,
		Installments:  len(rows),
		TotalPaid:     TotalPayable(rows),
		TotalInterest: TotalInterest(rows),
	}
	if len(rows) > 0 {
		summary.FirstPayment = rows[0].TotalAmount
		summary.LastPayment = rows[len(rows)-1].TotalAmount
	}
	return summary
}

// TotalPayable возвращает сумму всех платежей графика
func TotalPayable(rows []InstallmentDetail) decimal.Decimal {
	amounts := make([]decimal.Decimal, len(rows))
	for i, row := range rows {
		amounts[i] = row.TotalAmount
	}
	return utils.SumDecimals(amounts...)
}

// TotalInterest возвращает сумму процентов графика
func TotalInterest(rows []InstallmentDetail) decimal.Decimal {
	interest := make([]decimal.Decimal, len(rows))
	for i, row := range rows {
		interest[i] = row.InterestComponent
	}
	return utils.SumDecimals(interest...)
}

// PrincipalPaidBefore возвращает погашенный основной долг по платежам 1..number-1
func PrincipalPaidBefore(rows []InstallmentDetail, number int) decimal.Decimal {
	paid := decimal.Zero
	for _, row := range rows {
		if row.Number >= number {
			break
		}
		paid = paid.Add(row.PrincipalComponent)
	}
	return paid
}

func newRow(number int, principal, interest, remaining decimal.Decimal) InstallmentDetail {
	return InstallmentDetail{
		Number:             number,
		PrincipalComponent: principal,
		InterestComponent:  interest,
		TotalAmount:        principal.Add(interest),
		RemainingBalance:   remaining,
	}
}

// evenPrincipal - равная доля основного долга, общая для SAC и простых процентов
func evenPrincipal(principal decimal.Decimal, n int) decimal.Decimal {
	return utils.Round2(principal.Div(decimal.NewFromInt(int64(n))))
}

// principalForRow ограничивает долю основного долга остатком; последняя строка забирает остаток целиком
func principalForRow(m, n int, share, remaining decimal.Decimal) decimal.Decimal {
	if m == n || share.GreaterThan(remaining) {
		return remaining
	}
	return share
}
