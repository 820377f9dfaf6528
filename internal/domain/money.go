package domain

import (
	"github.com/shopspring/decimal"
)

// Amounts are stored as BIGINT micros (10^-6) to avoid floating point
// errors; shopspring/decimal handles display and derived math.

const microsPerUnit = 1_000_000

// Money is a monetary value in micros.
type Money struct {
	Micros int64
}

// NewMoney builds a Money from micros.
func NewMoney(micros int64) Money {
	return Money{Micros: micros}
}

// FromDecimal converts a decimal amount in whole units to micros.
func FromDecimal(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(microsPerUnit)).IntPart()
}

// ToDecimal converts micros to a decimal amount in whole units.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Micros).Div(decimal.NewFromInt(microsPerUnit))
}

// Positive reports whether the amount is strictly greater than zero.
func (m Money) Positive() bool {
	return m.Micros > 0
}

// String renders the amount with two decimal places.
func (m Money) String() string {
	return m.ToDecimal().StringFixed(2)
}
