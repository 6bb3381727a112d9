// Package ratecache decorates a rate provider with a redis-backed cache so
// a burst of submissions does not hammer the upstream quote source.
package ratecache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/obmenka/settlement/pkg/provider"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const rateKey = "rate:rub_usdt"

// CachedRateProvider serves the rate from redis and falls through to the
// wrapped provider on a miss. A failed cache write is logged, never fatal:
// the quote still flows.
type CachedRateProvider struct {
	inner  provider.RateProvider
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a cached provider around inner using the given redis client.
func New(inner provider.RateProvider, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRateProvider {
	return &CachedRateProvider{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "ratecache"),
	}
}

// Rate implements provider.RateProvider.
func (c *CachedRateProvider) Rate(ctx context.Context) (decimal.Decimal, error) {
	cached, err := c.client.Get(ctx, rateKey).Result()
	if err == nil {
		rate, parseErr := decimal.NewFromString(cached)
		if parseErr == nil {
			return rate, nil
		}
		c.logger.Warn("discarding malformed cached rate", "value", cached)
	} else if err != redis.Nil {
		c.logger.Warn("rate cache read failed", "error", err)
	}

	rate, err := c.inner.Rate(ctx)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("fetch rate: %w", err)
	}
	if err := c.client.Set(ctx, rateKey, rate.String(), c.ttl).Err(); err != nil {
		c.logger.Warn("rate cache write failed", "error", err)
	}
	return rate, nil
}

var _ provider.RateProvider = (*CachedRateProvider)(nil)
