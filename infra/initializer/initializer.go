// Package initializer builds the application dependencies from
// configuration: database, unit of work, event bus and rate provider.
package initializer

import (
	"fmt"
	"log/slog"

	"github.com/obmenka/settlement/infra/database"
	infraeventbus "github.com/obmenka/settlement/infra/eventbus"
	infraratecache "github.com/obmenka/settlement/infra/ratecache"
	infrarepository "github.com/obmenka/settlement/infra/repository"
	"github.com/obmenka/settlement/pkg/app"
	"github.com/obmenka/settlement/pkg/config"
	"github.com/obmenka/settlement/pkg/eventbus"
	"github.com/obmenka/settlement/pkg/provider"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// InitializeDependencies initializes all the application dependencies.
func InitializeDependencies(cfg *config.App) (*app.Deps, error) {
	deps := &app.Deps{}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	db, err := database.Connect(cfg.DB.Url)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	deps.Uow = infrarepository.NewUoW(db)

	var bus eventbus.Bus
	if cfg.Kafka.Brokers != "" {
		bus, err = infraeventbus.NewWithKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka event bus: %w", err)
		}
	} else {
		bus = infraeventbus.NewWithMemory(logger)
	}
	deps.EventBus = bus

	deps.RateProvider = setupRateProvider(cfg, logger)
	return deps, nil
}

// setupRateProvider snapshots rates from the static fallback, wrapped in a
// Redis cache when one is configured.
func setupRateProvider(cfg *config.App, logger *slog.Logger) provider.RateProvider {
	var rates provider.RateProvider = provider.NewStaticRate(
		decimal.NewFromFloat(cfg.Rate.Static))

	if cfg.Rate.RedisUrl == "" {
		return rates
	}
	opts, err := redis.ParseURL(cfg.Rate.RedisUrl)
	if err != nil {
		logger.Warn("Invalid rate cache Redis URL, caching disabled", "error", err)
		return rates
	}
	client := redis.NewClient(opts)
	return infraratecache.New(rates, client, cfg.Rate.CacheTTL, logger)
}
