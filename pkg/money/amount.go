// Package money validates monetary amounts stored as numeric(14,2).
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept for every amount
const Scale = 2

var (
	ErrNegative   = errors.New("amount must not be negative")
	ErrTooLarge   = errors.New("amount exceeds 999999999999.99")
	ErrTooPrecise = errors.New("amount has too many decimal places")
)

const (
	// amounts are checked against these before any rescaling arithmetic
	maxExponent        = 12
	minExponent        = -20
	maxCoefficientBits = 110
)

// MaxAmount is the largest value a numeric(14,2) column can hold
var MaxAmount = decimal.RequireFromString("999999999999.99")

// Normalize rounds the amount to two decimal places and checks its range.
// Any negative input is rejected, even one that would round to zero.
func Normalize(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Zero, ErrNegative
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if d.Exponent() > maxExponent || d.Coefficient().BitLen() > maxCoefficientBits {
		return decimal.Zero, ErrTooLarge
	}
	if d.Exponent() < minExponent {
		return decimal.Zero, ErrTooPrecise
	}

	d = d.Round(Scale)
	if d.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrTooLarge
	}
	return d, nil
}

// Format renders the amount with exactly two decimals
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
