package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact monetary quantity in one currency. Arithmetic is
// decimal so sums round-trip without binary floating point error.
type Money struct {
	Number   decimal.Decimal
	Currency string
}

// NewMoney builds a Money from a decimal string, e.g. "-100.50".
func NewMoney(number, currency string) (Money, error) {
	n, err := decimal.NewFromString(number)
	if err != nil {
		return Money{}, fmt.Errorf("parsing amount %q: %w", number, err)
	}
	return Money{Number: n, Currency: currency}, nil
}

// MustMoney is NewMoney that panics on a malformed number. Test helper.
func MustMoney(number, currency string) Money {
	m, err := NewMoney(number, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// IsZero reports whether the quantity is exactly zero.
func (m Money) IsZero() bool {
	return m.Number.IsZero()
}

// Neg returns the quantity with its sign flipped.
func (m Money) Neg() Money {
	return Money{Number: m.Number.Neg(), Currency: m.Currency}
}

func (m Money) String() string {
	return m.Number.String() + " " + m.Currency
}
