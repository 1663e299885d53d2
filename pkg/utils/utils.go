package utils

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 округляет сумму до 2 знаков после запятой (до копейки/сентаво)
func Round2(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

// Percent возвращает base * ratePercent / 100, округленное до 2 знаков
func Percent(base, ratePercent decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(ratePercent).Div(hundred))
}

// IsFinite проверяет, является ли число конечным
func IsFinite(value float64) bool {
	return !math.IsInf(value, 0) && !math.IsNaN(value)
}

// ToDecimal приводит значение параметра (число JSON или строку) к decimal
func ToDecimal(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		if !IsFinite(v) {
			return decimal.Zero, fmt.Errorf("значение не является конечным числом")
		}
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(v)
	default:
		return decimal.Zero, fmt.Errorf("unsupported numeric type %T", value)
	}
}

// SumDecimals складывает суммы
func SumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
