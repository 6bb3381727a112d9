// Package balance implements the balance repository over gorm. ApplyEntry
// is the only write path: the entry insert carries the idempotency key and
// the balance upsert carries the non-negativity guard, both inside the
// caller's transaction.
package balance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain"
	"github.com/obmenka/settlement/pkg/dto"
	repo "github.com/obmenka/settlement/pkg/repository"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a balance repository using the provided *gorm.DB.
func New(db *gorm.DB) repo.BalanceRepository {
	return &repository{db: db}
}

// Get implements repo.BalanceRepository. A user with no row yet reads as a
// zero balance.
func (r *repository) Get(ctx context.Context, userID uuid.UUID) (*dto.BalanceRead, error) {
	var row Balance
	if err := r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &dto.BalanceRead{UserID: userID}, nil
		}
		return nil, err
	}
	return &dto.BalanceRead{
		UserID:    row.UserID,
		RUB:       row.RUB,
		USDT:      row.USDT,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// ApplyEntry implements repo.BalanceRepository.
func (r *repository) ApplyEntry(ctx context.Context, entry dto.EntryCreate) error {
	row := Entry{
		ID:        entry.ID,
		UserID:    entry.UserID,
		CauseType: entry.CauseType,
		CauseID:   entry.CauseID,
		DeltaRUB:  entry.DeltaRUB,
		DeltaUSDT: entry.DeltaUSDT,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateEntry
		}
		return err
	}

	// A debit against a user with no balance row cannot be satisfied.
	if entry.DeltaRUB < 0 || entry.DeltaUSDT < 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&Balance{}).
			Where("user_id = ?", entry.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrInsufficientFunds
		}
	}

	res := r.db.WithContext(ctx).Exec(`
		INSERT INTO balances (user_id, rub, usdt, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET rub = balances.rub + EXCLUDED.rub,
		    usdt = balances.usdt + EXCLUDED.usdt,
		    updated_at = EXCLUDED.updated_at
		WHERE balances.rub + EXCLUDED.rub >= 0
		  AND balances.usdt + EXCLUDED.usdt >= 0`,
		entry.UserID, entry.DeltaRUB, entry.DeltaUSDT, time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientFunds
	}
	return nil
}
