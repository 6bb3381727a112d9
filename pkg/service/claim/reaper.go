package claim

import (
	"context"
	"log/slog"
	"time"

	"github.com/obmenka/settlement/pkg/repository"
)

// Reaper force-releases claims whose operator went quiet past the TTL.
// It is a liveness aid only: the settlement invariants hold whether or not
// it ever runs, because expiry uses the same conditional update as a
// regular release.
type Reaper struct {
	uow      repository.UnitOfWork
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// NewReaper creates a reaper with the given stale-claim TTL and sweep
// interval.
func NewReaper(uow repository.UnitOfWork, ttl, interval time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		uow:      uow,
		ttl:      ttl,
		interval: interval,
		logger:   logger.With("service", "claim-reaper"),
	}
}

// Run sweeps until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.logger.Info("reaper started", "ttl", r.ttl, "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper stopped")
			return
		case <-ticker.C:
			if n, err := r.Sweep(ctx); err != nil {
				r.logger.Error("sweep failed", "error", err)
			} else if n > 0 {
				r.logger.Info("released stale claims", "count", n)
			}
		}
	}
}

// Sweep releases all claims older than the TTL once and returns how many
// were reset.
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	var released int64
	err := r.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		released, err = repo.ReleaseExpired(ctx, time.Now().UTC().Add(-r.ttl))
		return err
	})
	return released, err
}
