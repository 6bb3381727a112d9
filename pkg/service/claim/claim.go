// Package claim grants and releases exclusive working rights on pending
// transactions. The mutual exclusion lives in the store's conditional
// update, not in application locking: two concurrent claims race on a
// single UPDATE and exactly one wins.
package claim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain"
	"github.com/obmenka/settlement/pkg/domain/transaction"
	"github.com/obmenka/settlement/pkg/dto"
	"github.com/obmenka/settlement/pkg/eventbus"
	"github.com/obmenka/settlement/pkg/events"
	"github.com/obmenka/settlement/pkg/repository"
)

// Service provides claim and release operations for operators.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
}

// NewService creates a claim service with the provided dependencies.
func NewService(uow repository.UnitOfWork, bus eventbus.Bus, logger *slog.Logger) *Service {
	return &Service{
		uow:    uow,
		bus:    bus,
		logger: logger.With("service", "claim"),
	}
}

// Claim grants operatorID exclusive working rights on a PENDING
// transaction. On contention or state errors the current authoritative
// snapshot is returned alongside the error so the caller can reconcile
// without another read.
func (s *Service) Claim(ctx context.Context, txID, operatorID uuid.UUID) (*dto.TransactionRead, error) {
	var read *dto.TransactionRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		won, err := repo.ClaimPending(ctx, txID, operatorID, time.Now().UTC())
		if err != nil {
			return err
		}
		if !won {
			return s.classifyClaimFailure(ctx, repo, txID, &read)
		}
		read, err = repo.Get(ctx, txID)
		return err
	})
	if err != nil {
		return read, err
	}

	s.logger.Info("claim granted", "transaction", txID, "operator", operatorID)
	if emitErr := s.bus.Emit(ctx, events.TransactionClaimed{
		TransactionID: txID,
		OperatorID:    operatorID,
		OccurredAt:    time.Now().UTC(),
	}); emitErr != nil {
		s.logger.Warn("failed to emit claim event", "error", emitErr)
	}
	return read, nil
}

// classifyClaimFailure re-reads the row to tell the caller why the
// conditional update did not fire.
func (s *Service) classifyClaimFailure(
	ctx context.Context,
	repo repository.TransactionRepository,
	txID uuid.UUID,
	read **dto.TransactionRead,
) error {
	cur, err := repo.Get(ctx, txID)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.ErrNotFound
	}
	*read = cur
	if cur.ClaimedBy != nil {
		return domain.ErrAlreadyClaimed
	}
	if cur.Status != string(transaction.StatusPending) {
		return fmt.Errorf("%w: status %s", domain.ErrWrongState, cur.Status)
	}
	// PENDING and unclaimed again: another operator claimed and released
	// between our update and this read. Contention either way.
	return domain.ErrAlreadyClaimed
}

// Release returns an undecided claimed transaction to the queue. Requires
// the caller to hold the claim.
func (s *Service) Release(ctx context.Context, txID, operatorID uuid.UUID) (*dto.TransactionRead, error) {
	var read *dto.TransactionRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		ok, err := repo.ReleaseClaim(ctx, txID, operatorID)
		if err != nil {
			return err
		}
		if !ok {
			cur, err := repo.Get(ctx, txID)
			if err != nil {
				return err
			}
			if cur == nil {
				return domain.ErrNotFound
			}
			read = cur
			if cur.Status != string(transaction.StatusVerification) {
				return fmt.Errorf("%w: status %s", domain.ErrWrongState, cur.Status)
			}
			return domain.ErrNotOwner
		}
		read, err = repo.Get(ctx, txID)
		return err
	})
	if err != nil {
		return read, err
	}

	s.logger.Info("claim released", "transaction", txID, "operator", operatorID)
	if emitErr := s.bus.Emit(ctx, events.TransactionReleased{
		TransactionID: txID,
		OperatorID:    operatorID,
		OccurredAt:    time.Now().UTC(),
	}); emitErr != nil {
		s.logger.Warn("failed to emit release event", "error", emitErr)
	}
	return read, nil
}
