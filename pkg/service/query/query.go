// Package query serves read-only lookups for the webapi: balances, receipt
// audit trails, archived history. No query mutates state.
package query

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain/transaction"
	"github.com/obmenka/settlement/pkg/dto"
	"github.com/obmenka/settlement/pkg/repository"
)

// Service answers read-only queries against the ledger store.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewService creates a query service.
func NewService(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger.With("service", "query")}
}

// Balance returns the user's balance; a user without entries reads as zero.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (*dto.BalanceRead, error) {
	var read *dto.BalanceRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		balances, err := uow.BalanceRepository()
		if err != nil {
			return err
		}
		read, err = balances.Get(ctx, userID)
		return err
	})
	return read, err
}

// Receipts lists the receipt evidence attached to a transaction, newest
// first.
func (s *Service) Receipts(ctx context.Context, transactionID uuid.UUID) ([]*dto.ReceiptRead, error) {
	var reads []*dto.ReceiptRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		receipts, err := uow.ReceiptRepository()
		if err != nil {
			return err
		}
		reads, err = receipts.ListByTransaction(ctx, transactionID)
		return err
	})
	return reads, err
}

// History lists archived transactions.
func (s *Service) History(ctx context.Context) ([]*dto.TransactionRead, error) {
	var reads []*dto.TransactionRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		reads, err = repo.ListByStatus(ctx, string(transaction.StatusHistory))
		return err
	})
	return reads, err
}
