// Package core holds the domain model shared by the ledger store, the
// report builder and the HTTP layer.
//
// Monetary amounts are kept as integer cents so SQL aggregation stays
// exact; decimal parsing and display formatting go through
// shopspring/decimal at the boundaries.
package core

import (
	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount in cents.
type Money struct {
	Cents int64
}

var centsPerUnit = decimal.NewFromInt(100)

// ParseAmount converts a decimal string ("12.34") to Money with half-up
// rounding on the third decimal place. Zero, negative and non-numeric
// values are rejected with ErrInvalidAmount.
func ParseAmount(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Mul(centsPerUnit).Round(0)
	if !cents.IsInteger() || cents.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with two decimal places ("75.00").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Sub returns m minus other. The result may be negative.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// PercentOf reports m as a percentage of total, rounded to two decimal
// places. Zero totals yield zero to avoid a division by zero.
func (m Money) PercentOf(total Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(m.Cents).
		Div(decimal.NewFromInt(total.Cents)).
		Mul(centsPerUnit).
		Round(2).
		Float64()
	return pct
}
