package calculations

import (
	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/pkg/utils"
)

// constantAmortizationRows рассчитывает график дифференцированного кредита (SAC)
func constantAmortizationRows(principal, rate decimal.Decimal, n int) []InstallmentDetail {
	share := evenPrincipal(principal, n)

	rows := make([]InstallmentDetail, 0, n)
	remaining := principal

	for m := 1; m <= n; m++ {
		interest := utils.Round2(remaining.Mul(rate))
		principalComponent := principalForRow(m, n, share, remaining)

		remaining = remaining.Sub(principalComponent)
		rows = append(rows, newRow(m, principalComponent, interest, remaining))
	}

	return rows
}
