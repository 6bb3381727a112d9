// Package transaction implements the transaction repository over gorm. The
// claim grant and release are single conditional updates: the WHERE clause
// carries the precondition and the row count tells the caller whether it
// won, so two concurrent claimants can never both succeed.
package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	domaintx "github.com/obmenka/settlement/pkg/domain/transaction"
	"github.com/obmenka/settlement/pkg/dto"
	repo "github.com/obmenka/settlement/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// New creates a transaction repository using the provided *gorm.DB.
func New(db *gorm.DB) repo.TransactionRepository {
	return &repository{db: db}
}

// Create implements repo.TransactionRepository.
func (r *repository) Create(ctx context.Context, create dto.TransactionCreate) error {
	row := Transaction{
		ID:           create.ID,
		UserID:       create.UserID,
		AmountRUB:    create.AmountRUB,
		AmountUSDT:   create.AmountUSDT,
		ChargeRUB:    create.ChargeRUB,
		ChargeUSDT:   create.ChargeUSDT,
		ExchangeRate: create.ExchangeRate,
		Status:       create.Status,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// Get implements repo.TransactionRepository.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*dto.TransactionRead, error) {
	var row Transaction
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return mapModelToRead(&row), nil
}

// GetForUpdate implements repo.TransactionRepository.
func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*dto.TransactionRead, error) {
	var row Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return mapModelToRead(&row), nil
}

// ClaimPending implements repo.TransactionRepository. The compare-and-swap
// is the WHERE clause: status must still be PENDING and no claim held.
func (r *repository) ClaimPending(ctx context.Context, id, operatorID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ? AND status = ? AND claimed_by IS NULL", id, string(domaintx.StatusPending)).
		Updates(map[string]any{
			"status":     string(domaintx.StatusVerification),
			"claimed_by": operatorID,
			"claimed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseClaim implements repo.TransactionRepository.
func (r *repository) ReleaseClaim(ctx context.Context, id, operatorID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ? AND status = ? AND claimed_by = ?", id, string(domaintx.StatusVerification), operatorID).
		Updates(map[string]any{
			"status":     string(domaintx.StatusPending),
			"claimed_by": nil,
			"claimed_at": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseExpired implements repo.TransactionRepository. Only undecided
// claims are eligible: a transaction past VERIFICATION is no longer the
// reaper's business.
func (r *repository) ReleaseExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("status = ? AND claimed_at < ?", string(domaintx.StatusVerification), cutoff).
		Updates(map[string]any{
			"status":     string(domaintx.StatusPending),
			"claimed_by": nil,
			"claimed_at": nil,
		})
	return res.RowsAffected, res.Error
}

// Update implements repo.TransactionRepository.
func (r *repository) Update(ctx context.Context, id uuid.UUID, update dto.TransactionUpdate) error {
	updates := mapUpdateDTOToModel(update)
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListByStatus implements repo.TransactionRepository.
func (r *repository) ListByStatus(ctx context.Context, status string) ([]*dto.TransactionRead, error) {
	var rows []Transaction
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return mapModelsToReads(rows), nil
}

// ListByUser implements repo.TransactionRepository.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*dto.TransactionRead, error) {
	var rows []Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return mapModelsToReads(rows), nil
}

func mapUpdateDTOToModel(update dto.TransactionUpdate) map[string]any {
	updates := map[string]any{}
	if update.Status != nil {
		updates["status"] = *update.Status
	}
	if update.ClearClaim {
		updates["claimed_by"] = nil
		updates["claimed_at"] = nil
	} else {
		if update.ClaimedBy != nil {
			updates["claimed_by"] = *update.ClaimedBy
		}
		if update.ClaimedAt != nil {
			updates["claimed_at"] = *update.ClaimedAt
		}
	}
	if update.ConfirmedAt != nil {
		updates["confirmed_at"] = *update.ConfirmedAt
	}
	if update.Reason != nil {
		updates["reason"] = *update.Reason
	}
	return updates
}

func mapModelToRead(row *Transaction) *dto.TransactionRead {
	return &dto.TransactionRead{
		ID:           row.ID,
		UserID:       row.UserID,
		AmountRUB:    row.AmountRUB,
		AmountUSDT:   row.AmountUSDT,
		ChargeRUB:    row.ChargeRUB,
		ChargeUSDT:   row.ChargeUSDT,
		ExchangeRate: row.ExchangeRate,
		Status:       row.Status,
		ClaimedBy:    row.ClaimedBy,
		ClaimedAt:    row.ClaimedAt,
		ConfirmedAt:  row.ConfirmedAt,
		Reason:       row.Reason,
		CreatedAt:    row.CreatedAt,
	}
}

func mapModelsToReads(rows []Transaction) []*dto.TransactionRead {
	reads := make([]*dto.TransactionRead, 0, len(rows))
	for i := range rows {
		reads = append(reads, mapModelToRead(&rows[i]))
	}
	return reads
}
