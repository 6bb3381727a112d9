// Package submission creates funding transactions. The exchange rate and
// the commissioned charge are snapshotted at creation and never re-derived,
// so a later rate move cannot change what a settled transaction credits.
package submission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain"
	"github.com/obmenka/settlement/pkg/domain/money"
	"github.com/obmenka/settlement/pkg/domain/transaction"
	"github.com/obmenka/settlement/pkg/dto"
	"github.com/obmenka/settlement/pkg/eventbus"
	"github.com/obmenka/settlement/pkg/events"
	"github.com/obmenka/settlement/pkg/provider"
	"github.com/obmenka/settlement/pkg/repository"
	"github.com/shopspring/decimal"
)

// Service creates and lists funding transactions.
type Service struct {
	uow        repository.UnitOfWork
	rates      provider.RateProvider
	commission decimal.Decimal // percent, e.g. 0.78
	bus        eventbus.Bus
	logger     *slog.Logger
}

// NewService creates a submission service. Commission is a percentage of
// the gross amount withheld from the credited charge.
func NewService(
	uow repository.UnitOfWork,
	rates provider.RateProvider,
	commissionPercent float64,
	bus eventbus.Bus,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:        uow,
		rates:      rates,
		commission: decimal.NewFromFloat(commissionPercent),
		bus:        bus,
		logger:     logger.With("service", "submission"),
	}
}

// Submit creates a PENDING transaction for the given crypto amount. The
// fiat side is quoted at the current rate, and both charges are the gross
// amounts less commission, rounded half-up to minor units.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, amountUSDT money.Money) (*dto.TransactionRead, error) {
	if amountUSDT.Currency() != money.USDT {
		return nil, fmt.Errorf("%w: expected %s", money.ErrInvalidCurrency, money.USDT)
	}
	rate, err := s.rates.Rate(ctx)
	if err != nil {
		return nil, fmt.Errorf("quote rate: %w", err)
	}

	amountRUB, err := money.NewFromDecimal(amountUSDT.Decimal().Mul(rate), money.RUB)
	if err != nil {
		return nil, err
	}
	chargeUSDT, err := s.applyCommission(amountUSDT)
	if err != nil {
		return nil, err
	}
	chargeRUB, err := s.applyCommission(amountRUB)
	if err != nil {
		return nil, err
	}

	tx, err := transaction.New(userID, amountRUB, amountUSDT, chargeRUB, chargeUSDT, rate)
	if err != nil {
		return nil, err
	}

	var read *dto.TransactionRead
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, dto.TransactionCreate{
			ID:           tx.ID,
			UserID:       tx.UserID,
			AmountRUB:    tx.AmountRUB.Amount(),
			AmountUSDT:   tx.AmountUSDT.Amount(),
			ChargeRUB:    tx.ChargeRUB.Amount(),
			ChargeUSDT:   tx.ChargeUSDT.Amount(),
			ExchangeRate: tx.ExchangeRate.String(),
			Status:       string(tx.Status),
		}); err != nil {
			return err
		}
		read, err = repo.Get(ctx, tx.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction submitted",
		"transaction", read.ID, "user", userID,
		"amount", amountUSDT.String(), "rate", rate.String())
	s.emit(ctx, events.TransactionSubmitted{
		TransactionID: read.ID,
		UserID:        userID,
		AmountRUB:     read.AmountRUB,
		AmountUSDT:    read.AmountUSDT,
		OccurredAt:    time.Now().UTC(),
	})
	return read, nil
}

// Get returns a transaction by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*dto.TransactionRead, error) {
	var read *dto.TransactionRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		read, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if read == nil {
		return nil, domain.ErrNotFound
	}
	return read, nil
}

// ListPending lists claimable transactions, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]*dto.TransactionRead, error) {
	return s.listByStatus(ctx, transaction.StatusPending)
}

// ListByUser lists all transactions owned by the user.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*dto.TransactionRead, error) {
	var reads []*dto.TransactionRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		reads, err = repo.ListByUser(ctx, userID)
		return err
	})
	return reads, err
}

func (s *Service) listByStatus(ctx context.Context, status transaction.Status) ([]*dto.TransactionRead, error) {
	var reads []*dto.TransactionRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		reads, err = repo.ListByStatus(ctx, string(status))
		return err
	})
	return reads, err
}

// applyCommission returns gross less commission percent, rounded half-up.
func (s *Service) applyCommission(gross money.Money) (money.Money, error) {
	factor := decimal.NewFromInt(1).Sub(s.commission.Div(decimal.NewFromInt(100)))
	return money.NewFromDecimal(gross.Decimal().Mul(factor), gross.Currency())
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if err := s.bus.Emit(ctx, event); err != nil {
		s.logger.Warn("failed to emit event", "event", event.Type(), "error", err)
	}
}
