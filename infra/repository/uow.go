// Package repository wires the ledger store contracts to gorm. The UoW here
// is the only place a database transaction is opened; repositories obtained
// through it share that transaction's session, which is what makes a status
// write and its side effects one atomic unit.
package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/obmenka/settlement/infra/repository/balance"
	"github.com/obmenka/settlement/infra/repository/dispute"
	"github.com/obmenka/settlement/infra/repository/receipt"
	"github.com/obmenka/settlement/infra/repository/transaction"
	"github.com/obmenka/settlement/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides the transaction boundary and repository access in one
// abstraction over a *gorm.DB.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*repository.TransactionRepository)(nil)).Elem(): func(db *gorm.DB) any { return transaction.New(db) },
			reflect.TypeOf((*repository.ReceiptRepository)(nil)).Elem():     func(db *gorm.DB) any { return receipt.New(db) },
			reflect.TypeOf((*repository.DisputeRepository)(nil)).Elem():     func(db *gorm.DB) any { return dispute.New(db) },
			reflect.TypeOf((*repository.BalanceRepository)(nil)).Elem():     func(db *gorm.DB) any { return balance.New(db) },
		},
	}
}

// Do runs fn in a database transaction, providing a UoW bound to it.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// GetRepository returns a repository of the requested interface type bound
// to the current transaction session, or the base session outside Do.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

// TransactionRepository implements repository.UnitOfWork.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	repo, err := u.GetRepository(reflect.TypeOf((*repository.TransactionRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return repo.(repository.TransactionRepository), nil
}

// ReceiptRepository implements repository.UnitOfWork.
func (u *UoW) ReceiptRepository() (repository.ReceiptRepository, error) {
	repo, err := u.GetRepository(reflect.TypeOf((*repository.ReceiptRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return repo.(repository.ReceiptRepository), nil
}

// DisputeRepository implements repository.UnitOfWork.
func (u *UoW) DisputeRepository() (repository.DisputeRepository, error) {
	repo, err := u.GetRepository(reflect.TypeOf((*repository.DisputeRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return repo.(repository.DisputeRepository), nil
}

// BalanceRepository implements repository.UnitOfWork.
func (u *UoW) BalanceRepository() (repository.BalanceRepository, error) {
	repo, err := u.GetRepository(reflect.TypeOf((*repository.BalanceRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return repo.(repository.BalanceRepository), nil
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

var _ repository.UnitOfWork = (*UoW)(nil)
