package calculations

import (
	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/pkg/utils"
)

// simpleInterestRows: проценты P·r·n начисляются один раз и делятся поровну,
// последняя строка забирает остаток округления
func simpleInterestRows(principal, rate decimal.Decimal, n int) []InstallmentDetail {
	count := decimal.NewFromInt(int64(n))
	totalInterest := utils.Round2(principal.Mul(rate).Mul(count))
	interestShare := totalInterest.Div(count).Truncate(2)

	return flatRows(principal, n, func(m int) decimal.Decimal {
		if m == n {
			return totalInterest.Sub(interestShare.Mul(decimal.NewFromInt(int64(n - 1))))
		}
		return interestShare
	})
}

// recurringSimpleInterestRows: каждый период начисляет P·r на исходную сумму,
// хотя остаток долга уменьшается
func recurringSimpleInterestRows(principal, rate decimal.Decimal, n int) []InstallmentDetail {
	interest := utils.Round2(principal.Mul(rate))
	return flatRows(principal, n, func(int) decimal.Decimal { return interest })
}

func flatRows(principal decimal.Decimal, n int, interestFor func(m int) decimal.Decimal) []InstallmentDetail {
	share := evenPrincipal(principal, n)

	rows := make([]InstallmentDetail, 0, n)
	remaining := principal

	for m := 1; m <= n; m++ {
		principalComponent := principalForRow(m, n, share, remaining)
		remaining = remaining.Sub(principalComponent)
		rows = append(rows, newRow(m, principalComponent, interestFor(m), remaining))
	}

	return rows
}
