package calculations

import (
	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/pkg/utils"
)

// CompareMethods рассчитывает график для каждого способа амортизации и сравнивает переплату
func CompareMethods(principal, rate decimal.Decimal, n int, withSchedules bool) (*Comparison, error) {
	result := &Comparison{
		Principal:    principal,
		PeriodicRate: rate,
		Installments: n,
		Methods:      make([]MethodTotals, 0, len(Methods)),
	}

	cheapest, mostExpensive := -1, -1
	for _, method := range Methods {
		schedule, err := SimulateSchedule(LoanTerms{
			Method:           method,
			Principal:        principal,
			InstallmentCount: n,
			PeriodicRate:     rate,
		})
		if err != nil {
			return nil, err
		}

		summary := schedule.Summary
		result.Methods = append(result.Methods, MethodTotals{
			Method:             method,
			FirstPayment:       summary.FirstPayment,
			LastPayment:        summary.LastPayment,
			TotalPaid:          summary.TotalPaid,
			TotalInterest:      summary.TotalInterest,
			OverpaymentPercent: utils.Round2(summary.TotalInterest.Div(principal).Mul(decimal.NewFromInt(100))),
		})
		if withSchedules {
			result.Schedules = append(result.Schedules, *schedule)
		}

		// при равенстве побеждает способ, идущий раньше в Methods
		i := len(result.Methods) - 1
		if cheapest < 0 || summary.TotalPaid.LessThan(result.Methods[cheapest].TotalPaid) {
			cheapest = i
		}
		if mostExpensive < 0 || summary.TotalPaid.GreaterThan(result.Methods[mostExpensive].TotalPaid) {
			mostExpensive = i
		}
	}

	result.Cheapest = result.Methods[cheapest].Method
	result.MostExpensive = result.Methods[mostExpensive].Method
	result.Spread = result.Methods[mostExpensive].TotalPaid.Sub(result.Methods[cheapest].TotalPaid)

	return result, nil
}
