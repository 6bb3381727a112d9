// Package database opens the postgres connection and keeps the schema in
// sync with the persistence models.
package database

import (
	"fmt"

	"github.com/obmenka/settlement/infra/repository/balance"
	"github.com/obmenka/settlement/infra/repository/dispute"
	"github.com/obmenka/settlement/infra/repository/receipt"
	"github.com/obmenka/settlement/infra/repository/transaction"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens a gorm session against the given postgres URL and migrates
// the schema. TranslateError is on so unique violations surface as
// gorm.ErrDuplicatedKey.
func Connect(url string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(
		&transaction.Transaction{},
		&receipt.Receipt{},
		&dispute.Dispute{},
		&balance.Balance{},
		&balance.Entry{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}
