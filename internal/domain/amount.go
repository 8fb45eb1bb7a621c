package domain

import "github.com/shopspring/decimal"

// AmountTolerance is the slack, in minor units, allowed between the order total
// and the amount the gateway reports before an order is held for review.
const AmountTolerance = 5

var hundred = decimal.NewFromInt(100)

// ExpectedMinorUnits converts an order total in major units to minor units,
// rounding half away from zero.
func ExpectedMinorUnits(totalAmount float64) int64 {
	return decimal.NewFromFloat(totalAmount).Mul(hundred).Round(0).IntPart()
}

func AmountWithinTolerance(expected, received int64) bool {
	diff := expected - received
	if diff < 0 {
		diff = -diff
	}
	return diff <= AmountTolerance
}

func FormatMajorUnits(minorUnits int64) string {
	return decimal.NewFromInt(minorUnits).Div(hundred).StringFixed(2)
}

// SumItemPrices adds item prices in decimal so totals such as 12.10 + 17.90
// compare exactly against the submitted total.
func SumItemPrices(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Price))
	}
	return sum
}
