// Package settlement drives the accept/reject decision on claimed
// transactions and performs the single balance credit. The status write,
// the receipt evidence, and the credit commit in one unit of work; a retry
// after a committed attempt observes the new status and reports
// ErrAlreadySettled instead of crediting twice.
package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain"
	"github.com/obmenka/settlement/pkg/domain/balance"
	"github.com/obmenka/settlement/pkg/domain/transaction"
	"github.com/obmenka/settlement/pkg/dto"
	"github.com/obmenka/settlement/pkg/eventbus"
	"github.com/obmenka/settlement/pkg/events"
	"github.com/obmenka/settlement/pkg/repository"
)

// CancelReasonInvalidReceipt is recorded when receipt validation fails.
const CancelReasonInvalidReceipt = "InvalidReceipt"

// Service orchestrates settlement. It holds no state of its own; every
// operation is one unit of work against the ledger store.
type Service struct {
	uow    repository.UnitOfWork
	policy ReceiptPolicy
	bus    eventbus.Bus
	logger *slog.Logger
}

// NewService creates a settlement service. A nil policy falls back to
// NonEmptyPolicy.
func NewService(uow repository.UnitOfWork, policy ReceiptPolicy, bus eventbus.Bus, logger *slog.Logger) *Service {
	if policy == nil {
		policy = NonEmptyPolicy{}
	}
	return &Service{
		uow:    uow,
		policy: policy,
		bus:    bus,
		logger: logger.With("service", "settlement"),
	}
}

// Accept records the operator's accept decision with receipt evidence,
// validates it, and on success credits the counterparty and marks the
// transaction ACTIVE — all in one atomic unit. On failed validation the
// transaction is CANCELLED with reason InvalidReceipt and nothing is
// credited.
func (s *Service) Accept(ctx context.Context, txID, operatorID uuid.UUID, receiptBlob string) (*dto.TransactionRead, error) {
	if receiptBlob == "" {
		return nil, domain.ErrEmptyReceipt
	}

	var (
		read    *dto.TransactionRead
		settled bool
		reason  string
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		cur, err := txRepo.GetForUpdate(ctx, txID)
		if err != nil {
			return err
		}
		if err := s.guardDecision(cur, operatorID, &read); err != nil {
			return err
		}

		// VERIFICATION -> FINALIZATION writes the evidence row.
		if _, _, err := transaction.Next(
			transaction.StatusVerification, true, transaction.EventAccept); err != nil {
			return err
		}
		receipts, err := uow.ReceiptRepository()
		if err != nil {
			return err
		}
		evidence, err := transaction.NewReceipt(txID, operatorID, receiptBlob)
		if err != nil {
			return err
		}
		if err := receipts.Create(ctx, dto.ReceiptCreate{
			ID:            evidence.ID,
			TransactionID: evidence.TransactionID,
			UploadedBy:    evidence.UploadedBy,
			Blob:          evidence.Blob,
		}); err != nil {
			return err
		}

		valid, err := s.policy.Validate(ctx, receiptBlob)
		if err != nil {
			// Validation could not run; roll back so the transaction
			// stays claimed in VERIFICATION and the call can be retried.
			return fmt.Errorf("validate receipt: %w", err)
		}

		if !valid {
			read, err = s.cancelInvalidReceipt(ctx, uow, txRepo, cur, evidence.ID)
			reason = CancelReasonInvalidReceipt
			return err
		}

		read, err = s.finalize(ctx, uow, txRepo, receipts, cur, evidence.ID)
		settled = err == nil
		return err
	})
	if err != nil {
		return read, err
	}

	now := time.Now().UTC()
	if settled {
		s.logger.Info("transaction settled",
			"transaction", txID, "operator", operatorID,
			"charge_rub", read.ChargeRUB, "charge_usdt", read.ChargeUSDT)
		s.emit(ctx, events.TransactionSettled{
			TransactionID: txID,
			UserID:        read.UserID,
			OperatorID:    operatorID,
			ChargeRUB:     read.ChargeRUB,
			ChargeUSDT:    read.ChargeUSDT,
			OccurredAt:    now,
		})
	} else {
		s.logger.Info("transaction cancelled on invalid receipt",
			"transaction", txID, "operator", operatorID)
		s.emit(ctx, events.TransactionCancelled{
			TransactionID: txID,
			OperatorID:    operatorID,
			Reason:        reason,
			OccurredAt:    now,
		})
	}
	return read, nil
}

// Reject records the operator's reject decision. Requires a non-empty
// reason; optional receipt evidence is stored for the audit trail. No
// balance effect.
func (s *Service) Reject(ctx context.Context, txID, operatorID uuid.UUID, reason, receiptBlob string) (*dto.TransactionRead, error) {
	if reason == "" {
		return nil, domain.ErrEmptyReason
	}

	var read *dto.TransactionRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		cur, err := txRepo.GetForUpdate(ctx, txID)
		if err != nil {
			return err
		}
		if err := s.guardDecision(cur, operatorID, &read); err != nil {
			return err
		}

		next, _, err := transaction.Next(
			transaction.StatusVerification, true, transaction.EventReject)
		if err != nil {
			return err
		}

		if receiptBlob != "" {
			receipts, err := uow.ReceiptRepository()
			if err != nil {
				return err
			}
			evidence, err := transaction.NewReceipt(txID, operatorID, receiptBlob)
			if err != nil {
				return err
			}
			if err := receipts.Create(ctx, dto.ReceiptCreate{
				ID:            evidence.ID,
				TransactionID: evidence.TransactionID,
				UploadedBy:    evidence.UploadedBy,
				Blob:          evidence.Blob,
			}); err != nil {
				return err
			}
		}

		status := string(next)
		if err := txRepo.Update(ctx, txID, dto.TransactionUpdate{
			Status:     &status,
			Reason:     &reason,
			ClearClaim: true,
		}); err != nil {
			return err
		}
		read, err = txRepo.Get(ctx, txID)
		return err
	})
	if err != nil {
		return read, err
	}

	s.logger.Info("transaction rejected",
		"transaction", txID, "operator", operatorID, "reason", reason)
	s.emit(ctx, events.TransactionCancelled{
		TransactionID: txID,
		OperatorID:    operatorID,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	})
	return read, nil
}

// Archive moves a settled transaction to HISTORY. No balance effect.
func (s *Service) Archive(ctx context.Context, txID uuid.UUID) (*dto.TransactionRead, error) {
	var read *dto.TransactionRead
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
		read = cur
		next, _, err := transaction.Next(
			transaction.Status(cur.Status), cur.ClaimedBy != nil, transaction.EventArchive)
		if err != nil {
			return fmt.Errorf("%w: status %s", domain.ErrWrongState, cur.Status)
		}
		status := string(next)
		if err := txRepo.Update(ctx, txID, dto.TransactionUpdate{Status: &status}); err != nil {
			return err
		}
		read, err = txRepo.Get(ctx, txID)
		return err
	})
	return read, err
}

// guardDecision classifies the current row for an accept/reject attempt.
// Settled statuses surface ErrAlreadySettled so blind retries can treat
// the response as success.
func (s *Service) guardDecision(cur *dto.TransactionRead, operatorID uuid.UUID, read **dto.TransactionRead) error {
	if cur == nil {
		return domain.ErrNotFound
	}
	*read = cur
	switch transaction.Status(cur.Status) {
	case transaction.StatusVerification:
		// decision still open
	case transaction.StatusFinalization, transaction.StatusActive, transaction.StatusHistory:
		return domain.ErrAlreadySettled
	default:
		return fmt.Errorf("%w: status %s", domain.ErrWrongState, cur.Status)
	}
	if cur.ClaimedBy == nil || *cur.ClaimedBy != operatorID {
		return domain.ErrNotOwner
	}
	return nil
}

// finalize applies the FINALIZATION -> ACTIVE transition: the machine's
// side effects (confirmedAt, claim clear, credit) commit with the status
// write in the caller's unit of work.
func (s *Service) finalize(
	ctx context.Context,
	uow repository.UnitOfWork,
	txRepo repository.TransactionRepository,
	receipts repository.ReceiptRepository,
	cur *dto.TransactionRead,
	receiptID uuid.UUID,
) (*dto.TransactionRead, error) {
	next, effects, err := transaction.Next(
		transaction.StatusFinalization, true, transaction.EventReceiptValid)
	if err != nil {
		return nil, err
	}
	if err := receipts.SetVerdict(ctx, receiptID, true, false); err != nil {
		return nil, err
	}

	status := string(next)
	update := dto.TransactionUpdate{Status: &status}
	for _, effect := range effects {
		switch effect {
		case transaction.EffectSetConfirmedAt:
			now := time.Now().UTC()
			update.ConfirmedAt = &now
		case transaction.EffectClearClaim:
			update.ClearClaim = true
		case transaction.EffectCreditBalance:
			balances, err := uow.BalanceRepository()
			if err != nil {
				return nil, err
			}
			if err := balances.ApplyEntry(ctx, dto.EntryCreate{
				ID:        uuid.New(),
				UserID:    cur.UserID,
				CauseType: string(balance.CauseSettlement),
				CauseID:   cur.ID,
				DeltaRUB:  cur.ChargeRUB,
				DeltaUSDT: cur.ChargeUSDT,
			}); err != nil {
				return nil, err
			}
		}
	}
	if err := txRepo.Update(ctx, cur.ID, update); err != nil {
		return nil, err
	}
	return txRepo.Get(ctx, cur.ID)
}

// cancelInvalidReceipt applies the FINALIZATION -> CANCELLED transition
// after failed validation. The evidence row stays, marked fake.
func (s *Service) cancelInvalidReceipt(
	ctx context.Context,
	uow repository.UnitOfWork,
	txRepo repository.TransactionRepository,
	cur *dto.TransactionRead,
	receiptID uuid.UUID,
) (*dto.TransactionRead, error) {
	next, _, err := transaction.Next(
		transaction.StatusFinalization, true, transaction.EventReceiptInvalid)
	if err != nil {
		return nil, err
	}
	receipts, err := uow.ReceiptRepository()
	if err != nil {
		return nil, err
	}
	if err := receipts.SetVerdict(ctx, receiptID, false, true); err != nil {
		return nil, err
	}
	status := string(next)
	reason := CancelReasonInvalidReceipt
	if err := txRepo.Update(ctx, cur.ID, dto.TransactionUpdate{
		Status:     &status,
		Reason:     &reason,
		ClearClaim: true,
	}); err != nil {
		return nil, err
	}
	return txRepo.Get(ctx, cur.ID)
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if err := s.bus.Emit(ctx, event); err != nil {
		s.logger.Warn("failed to emit event", "event", event.Type(), "error", err)
	}
}
