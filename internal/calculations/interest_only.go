package calculations

import (
	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/pkg/utils"
)

// interestOnlyRows: до последнего платежа гасятся только проценты,
// основной долг возвращается целиком в последнем платеже
func interestOnlyRows(principal, rate decimal.Decimal, n int) []InstallmentDetail {
	interest := utils.Round2(principal.Mul(rate))

	rows := make([]InstallmentDetail, 0, n)
	for m := 1; m < n; m++ {
		rows = append(rows, newRow(m, decimal.Zero, interest, principal))
	}
	rows = append(rows, newRow(n, principal, interest, decimal.Zero))

	return rows
}
