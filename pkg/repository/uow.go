// Package repository defines the ledger store contracts: the UnitOfWork
// transaction boundary and the per-aggregate repositories. The settlement
// services are stateless orchestrators over these interfaces; all durable
// state lives behind them.
package repository

import (
	"context"
	"reflect"
)

// UnitOfWork is the transaction boundary of the ledger store.
//
// Every status write and its side effects (receipt rows, balance entries)
// must be applied through repositories obtained from the same UnitOfWork
// inside one Do call, so they commit or roll back together. Callers must
// treat Do as potentially-blocking I/O and must not hold in-process locks
// across it.
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an
	// error, the transaction is rolled back and the error is returned.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface type,
	// bound to the current transaction/session.
	GetRepository(repoType reflect.Type) (any, error)

	// Typed convenience accessors over GetRepository.
	TransactionRepository() (TransactionRepository, error)
	ReceiptRepository() (ReceiptRepository, error)
	DisputeRepository() (DisputeRepository, error)
	BalanceRepository() (BalanceRepository, error)
}
