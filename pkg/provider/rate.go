// Package provider defines the external collaborator contracts the
// settlement core consumes. Rate discovery is opaque to the core: a
// provider hands back the current quote and the core snapshots it onto the
// transaction at creation.
package provider

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateProvider supplies the current exchange rate, fiat per unit crypto
// (RUB per USDT).
type RateProvider interface {
	Rate(ctx context.Context) (decimal.Decimal, error)
}

// StaticRate is a fixed-rate provider for development and tests.
type StaticRate struct {
	rate decimal.Decimal
}

// NewStaticRate creates a provider that always returns the given rate.
func NewStaticRate(rate decimal.Decimal) *StaticRate {
	return &StaticRate{rate: rate}
}

// Rate implements RateProvider.
func (s *StaticRate) Rate(context.Context) (decimal.Decimal, error) {
	return s.rate, nil
}
