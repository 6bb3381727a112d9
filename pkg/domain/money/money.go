// Package money provides the monetary value object used across the
// settlement core.
//
// Invariants:
//   - Amount is always stored in the smallest currency unit (kopeks for RUB,
//     cents for USDT ledger purposes).
//   - All arithmetic operations require matching currencies.
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Amount represents a monetary amount as an integer in the smallest
// currency unit.
type Amount = int64

// Code identifies a currency handled by the exchange.
type Code string

// The exchange trades exactly one fiat/crypto pair.
const (
	RUB  Code = "RUB"
	USDT Code = "USDT"
)

// Decimals returns the number of minor-unit decimal places for the code.
// Both sides of the pair are ledgered with two decimal places.
func (c Code) Decimals() int32 {
	return 2
}

// IsValid reports whether the code is one of the pair currencies.
func (c Code) IsValid() bool {
	return c == RUB || c == USDT
}

// String returns the string representation of the currency code.
func (c Code) String() string { return string(c) }

var (
	// ErrInvalidCurrency is returned for a code outside the traded pair.
	ErrInvalidCurrency = fmt.Errorf("invalid currency code")
	// ErrMismatchedCurrencies is returned when performing operations on
	// money with different currencies.
	ErrMismatchedCurrencies = fmt.Errorf("mismatched currencies")
	// ErrInvalidAmount is returned when a float amount cannot be
	// represented in minor units.
	ErrInvalidAmount = fmt.Errorf("invalid amount")
)

// Money represents a monetary value in a specific currency.
type Money struct {
	amount   Amount
	currency Code
}

// New creates Money from a main-unit amount (e.g. 49.61 USDT).
// The amount is converted to minor units; sub-minor precision is rejected
// rather than silently rounded.
func New(amount float64, currency Code) (Money, error) {
	if !currency.IsValid() {
		return Money{}, ErrInvalidCurrency
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, ErrInvalidAmount
	}
	d := decimal.NewFromFloat(amount)
	minor := d.Shift(currency.Decimals())
	if !minor.Equal(minor.Truncate(0)) {
		return Money{}, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, currency.Decimals())
	}
	if !minor.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return Money{amount: minor.BigInt().Int64(), currency: currency}, nil
}

// NewFromDecimal creates Money from a decimal main-unit amount, rounding
// half-up to the currency's minor unit. Used where amounts are derived from
// rate arithmetic rather than user input.
func NewFromDecimal(d decimal.Decimal, currency Code) (Money, error) {
	if !currency.IsValid() {
		return Money{}, ErrInvalidCurrency
	}
	minor := d.Shift(currency.Decimals()).Round(0)
	if !minor.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return Money{amount: minor.BigInt().Int64(), currency: currency}, nil
}

// FromMinor creates Money directly from minor units. Used for repository
// hydration; performs no validation beyond the currency code.
func FromMinor(amount Amount, currency Code) Money {
	return Money{amount: amount, currency: currency}
}

// Zero returns a zero value in the given currency.
func Zero(currency Code) Money {
	return Money{currency: currency}
}

// Amount returns the amount in minor units.
func (m Money) Amount() Amount { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() Code { return m.currency }

// Float returns the amount in main units. Display only; ledger math stays
// in minor units.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// Decimal returns the amount in main units as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.amount, -m.currency.Decimals())
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.amount < 0 }

// Add returns the sum of two monetary values of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrMismatchedCurrencies
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Sub returns the difference of two monetary values of the same currency.
// The result may be negative; it is a delta, not a balance.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrMismatchedCurrencies
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// GreaterThan reports whether m exceeds other. Currencies must match;
// mismatch reports false.
func (m Money) GreaterThan(other Money) bool {
	return m.currency == other.currency && m.amount > other.amount
}

// String renders the value for logs, e.g. "49.61 USDT".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(m.currency.Decimals()), m.currency)
}
