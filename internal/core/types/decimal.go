// Package types provides numeric helpers shared by the ledger and documents.
package types

import (
	"github.com/shopspring/decimal"
)

// Money is an exact decimal. Prices, average costs, COGS and measured
// content (ml, g) all use it; only unit counts are int64.
type Money = decimal.Decimal

// NewMoneyFromString parses s exactly.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney is NewMoneyFromString for literals; it panics on bad input.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func Zero() Money {
	return decimal.Zero
}

// Units converts a whole-unit count into a decimal for cost arithmetic.
func Units(n int64) Money {
	return decimal.NewFromInt(n)
}

// Percent returns part/whole*100 rounded to 2 decimals, or zero when whole <= 0.
func Percent(part, whole Money) Money {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}

// AbsInt64 returns |v|.
func AbsInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
