// Package dispute handles post-settlement amount renegotiation. A dispute
// adjusts a previously credited amount without re-entering the transaction
// state machine; the delta commits atomically with the dispute's own state
// write, keyed by the dispute id, so resolution is idempotent.
package dispute

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain"
	"github.com/obmenka/settlement/pkg/domain/balance"
	domaindispute "github.com/obmenka/settlement/pkg/domain/dispute"
	"github.com/obmenka/settlement/pkg/domain/money"
	"github.com/obmenka/settlement/pkg/domain/transaction"
	"github.com/obmenka/settlement/pkg/dto"
	"github.com/obmenka/settlement/pkg/eventbus"
	"github.com/obmenka/settlement/pkg/events"
	"github.com/obmenka/settlement/pkg/repository"
)

// Service resolves disputes between the two transaction counterparties.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
}

// NewService creates a dispute service with the provided dependencies.
func NewService(uow repository.UnitOfWork, bus eventbus.Bus, logger *slog.Logger) *Service {
	return &Service{
		uow:    uow,
		bus:    bus,
		logger: logger.With("service", "dispute"),
	}
}

// Open raises a dispute against a settled (ACTIVE) transaction, proposing
// a new amount in the given currency. At most one dispute per transaction
// may be pending acknowledgement at a time.
func (s *Service) Open(ctx context.Context, txID uuid.UUID, proposed money.Money, reason string) (*dto.DisputeRead, error) {
	var read *dto.DisputeRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		cur, err := txRepo.GetForUpdate(ctx, txID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		if transaction.Status(cur.Status) != transaction.StatusActive {
			return fmt.Errorf("%w: status %s", domain.ErrWrongState, cur.Status)
		}

		disputes, err := uow.DisputeRepository()
		if err != nil {
			return err
		}
		open, err := disputes.GetOpenByTransaction(ctx, txID)
		if err != nil {
			return err
		}
		if open != nil {
			return domain.ErrDisputeInProgress
		}

		original := settledAmount(cur, proposed.Currency())
		d, err := domaindispute.New(txID, original, proposed, reason)
		if err != nil {
			return err
		}
		if err := disputes.Create(ctx, dto.DisputeCreate{
			ID:             d.ID,
			TransactionID:  d.TransactionID,
			Currency:       string(d.OriginalAmount.Currency()),
			OriginalAmount: d.OriginalAmount.Amount(),
			ProposedAmount: d.ProposedAmount.Amount(),
			Reason:         d.Reason,
			State:          string(d.State),
		}); err != nil {
			return err
		}
		read, err = disputes.Get(ctx, d.ID)
		return err
	})
	if err != nil {
		return read, err
	}

	s.logger.Info("dispute opened", "dispute", read.ID, "transaction", txID)
	s.emit(ctx, events.DisputeOpened{
		DisputeID:     read.ID,
		TransactionID: txID,
		OccurredAt:    time.Now().UTC(),
	})
	return read, nil
}

// Acknowledge records one party's agreement. Both parties must acknowledge
// before Resolve can apply the delta; acknowledging twice is a no-op.
func (s *Service) Acknowledge(ctx context.Context, disputeID uuid.UUID, party domaindispute.Party) (*dto.DisputeRead, error) {
	if !party.IsValid() {
		return nil, fmt.Errorf("%w: unknown party %q", domain.ErrWrongState, party)
	}
	var read *dto.DisputeRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		disputes, err := uow.DisputeRepository()
		if err != nil {
			return err
		}
		cur, err := disputes.GetForUpdate(ctx, disputeID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		read = cur
		if cur.State != string(domaindispute.StatePendingAck) {
			return fmt.Errorf("%w: dispute is %s", domain.ErrWrongState, cur.State)
		}

		ack := true
		update := dto.DisputeUpdate{}
		switch party {
		case domaindispute.PartySender:
			if cur.SenderAck {
				return nil
			}
			update.SenderAck = &ack
		case domaindispute.PartyRecipient:
			if cur.RecipientAck {
				return nil
			}
			update.RecipientAck = &ack
		}
		if err := disputes.Update(ctx, disputeID, update); err != nil {
			return err
		}
		read, err = disputes.Get(ctx, disputeID)
		return err
	})
	return read, err
}

// Resolve applies proposed − original to the counterparty balance once
// both acknowledgements are present, and marks the dispute resolved.
// Resolving an already-resolved dispute is a no-op returning the prior
// outcome.
func (s *Service) Resolve(ctx context.Context, disputeID uuid.UUID) (*dto.DisputeRead, error) {
	var (
		read    *dto.DisputeRead
		applied bool
		deltas  struct{ rub, usdt int64 }
		txID    uuid.UUID
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		disputes, err := uow.DisputeRepository()
		if err != nil {
			return err
		}
		cur, err := disputes.GetForUpdate(ctx, disputeID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		read = cur
		switch domaindispute.State(cur.State) {
		case domaindispute.StateResolved:
			// idempotent retry: the delta is already applied
			return nil
		case domaindispute.StateAbandoned:
			return fmt.Errorf("%w: dispute abandoned", domain.ErrWrongState)
		}
		if !cur.SenderAck || !cur.RecipientAck {
			return domain.ErrAwaitingAcknowledgement
		}

		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		tx, err := txRepo.Get(ctx, cur.TransactionID)
		if err != nil {
			return err
		}
		if tx == nil {
			return domain.ErrNotFound
		}
		txID = tx.ID

		delta := cur.ProposedAmount - cur.OriginalAmount
		entry := dto.EntryCreate{
			ID:        uuid.New(),
			UserID:    tx.UserID,
			CauseType: string(balance.CauseDispute),
			CauseID:   cur.ID,
		}
		switch money.Code(cur.Currency) {
		case money.RUB:
			entry.DeltaRUB = delta
		case money.USDT:
			entry.DeltaUSDT = delta
		default:
			return money.ErrInvalidCurrency
		}

		balances, err := uow.BalanceRepository()
		if err != nil {
			return err
		}
		if err := balances.ApplyEntry(ctx, entry); err != nil {
			return err
		}

		now := time.Now().UTC()
		state := string(domaindispute.StateResolved)
		if err := disputes.Update(ctx, disputeID, dto.DisputeUpdate{
			State:      &state,
			ResolvedAt: &now,
		}); err != nil {
			return err
		}
		read, err = disputes.Get(ctx, disputeID)
		applied = err == nil
		deltas.rub, deltas.usdt = entry.DeltaRUB, entry.DeltaUSDT
		return err
	})
	if err != nil {
		return read, err
	}

	if applied {
		s.logger.Info("dispute resolved",
			"dispute", disputeID, "delta_rub", deltas.rub, "delta_usdt", deltas.usdt)
		s.emit(ctx, events.DisputeResolved{
			DisputeID:     disputeID,
			TransactionID: txID,
			DeltaRUB:      deltas.rub,
			DeltaUSDT:     deltas.usdt,
			OccurredAt:    time.Now().UTC(),
		})
	}
	return read, nil
}

// Reject abandons a pending dispute: terminal, no balance effect, and the
// original transaction stays settled.
func (s *Service) Reject(ctx context.Context, disputeID uuid.UUID) (*dto.DisputeRead, error) {
	var read *dto.DisputeRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		disputes, err := uow.DisputeRepository()
		if err != nil {
			return err
		}
		cur, err := disputes.GetForUpdate(ctx, disputeID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		read = cur
		switch domaindispute.State(cur.State) {
		case domaindispute.StateAbandoned:
			// already abandoned, nothing to do
			return nil
		case domaindispute.StateResolved:
			return fmt.Errorf("%w: dispute already resolved", domain.ErrWrongState)
		}
		state := string(domaindispute.StateAbandoned)
		if err := disputes.Update(ctx, disputeID, dto.DisputeUpdate{State: &state}); err != nil {
			return err
		}
		read, err = disputes.Get(ctx, disputeID)
		return err
	})
	if err != nil {
		return read, err
	}

	s.logger.Info("dispute abandoned", "dispute", disputeID)
	s.emit(ctx, events.DisputeRejected{
		DisputeID:     disputeID,
		TransactionID: read.TransactionID,
		OccurredAt:    time.Now().UTC(),
	})
	return read, nil
}

// ListByTransaction lists all disputes raised against a transaction.
func (s *Service) ListByTransaction(ctx context.Context, txID uuid.UUID) ([]*dto.DisputeRead, error) {
	var reads []*dto.DisputeRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		disputes, err := uow.DisputeRepository()
		if err != nil {
			return err
		}
		reads, err = disputes.ListByTransaction(ctx, txID)
		return err
	})
	return reads, err
}

// settledAmount picks the settled charge matching the proposed currency.
func settledAmount(tx *dto.TransactionRead, currency money.Code) money.Money {
	if currency == money.RUB {
		return money.FromMinor(tx.ChargeRUB, money.RUB)
	}
	return money.FromMinor(tx.ChargeUSDT, money.USDT)
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if err := s.bus.Emit(ctx, event); err != nil {
		s.logger.Warn("failed to emit event", "event", event.Type(), "error", err)
	}
}
