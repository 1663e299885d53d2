package calculations

import (
	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/pkg/utils"
)

// AnnuityPayment рассчитывает аннуитетный платеж A = P·r(1+r)^n / ((1+r)^n − 1)
func AnnuityPayment(principal, rate decimal.Decimal, n int) decimal.Decimal {
	if rate.IsZero() {
		return utils.Round2(principal.Div(decimal.NewFromInt(int64(n))))
	}
	factor := one.Add(rate).Pow(decimal.NewFromInt(int64(n)))
	return utils.Round2(principal.Mul(rate).Mul(factor).Div(factor.Sub(one)))
}

// fixedInstallmentRows рассчитывает график аннуитетного кредита (Price)
func fixedInstallmentRows(principal, rate decimal.Decimal, n int) []InstallmentDetail {
	payment := AnnuityPayment(principal, rate, n)

	rows := make([]InstallmentDetail, 0, n)
	remaining := principal

	for m := 1; m <= n; m++ {
		interest := utils.Round2(remaining.Mul(rate))
		principalComponent := principalForRow(m, n, payment.Sub(interest), remaining)

		remaining = remaining.Sub(principalComponent)
		rows = append(rows, newRow(m, principalComponent, interest, remaining))
	}

	return rows
}
