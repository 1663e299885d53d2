package calculations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareMethods(t *testing.T) {
	result, err := CompareMethods(dec("1000"), dec("0.05"), 3, true)
	require.NoError(t, err)

	require.Len(t, result.Methods, len(Methods))
	require.Len(t, result.Schedules, len(Methods))

	// SAC платит меньше всех процентов, простые проценты и interest-only - больше всех
	assert.Equal(t, ConstantAmortization, result.Cheapest)
	assert.Equal(t, SimpleInterest, result.MostExpensive)
	assertDecimal(t, "50", result.Spread)

	byMethod := map[Method]MethodTotals{}
	for _, m := range result.Methods {
		byMethod[m.Method] = m
	}
	assertDecimal(t, "1101.63", byMethod[FixedInstallment].TotalPaid)
	assertDecimal(t, "10.16", byMethod[FixedInstallment].OverpaymentPercent)
	assertDecimal(t, "1100", byMethod[ConstantAmortization].TotalPaid)
	assertDecimal(t, "1150", byMethod[InterestOnly].TotalPaid)
	assertDecimal(t, "50", byMethod[InterestOnly].FirstPayment)
	assertDecimal(t, "1050", byMethod[InterestOnly].LastPayment)
}

func TestCompareMethodsWithoutSchedules(t *testing.T) {
	result, err := CompareMethods(dec("5000"), dec("0.02"), 12, false)
	require.NoError(t, err)
	assert.Empty(t, result.Schedules)
}

func TestCompareMethodsInvalidTerms(t *testing.T) {
	_, err := CompareMethods(dec("0"), dec("0.02"), 12, false)
	assert.ErrorIs(t, err, ErrInvalidTerms)
}
