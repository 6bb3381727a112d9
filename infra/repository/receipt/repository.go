// Package receipt implements the receipt repository over gorm.
package receipt

import (
	"context"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/dto"
	repo "github.com/obmenka/settlement/pkg/repository"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a receipt repository using the provided *gorm.DB.
func New(db *gorm.DB) repo.ReceiptRepository {
	return &repository{db: db}
}

// Create implements repo.ReceiptRepository.
func (r *repository) Create(ctx context.Context, create dto.ReceiptCreate) error {
	row := Receipt{
		ID:            create.ID,
		TransactionID: create.TransactionID,
		UploadedBy:    create.UploadedBy,
		Blob:          create.Blob,
		IsVerified:    create.IsVerified,
		IsFake:        create.IsFake,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// Latest implements repo.ReceiptRepository.
func (r *repository) Latest(ctx context.Context, transactionID uuid.UUID) (*dto.ReceiptRead, error) {
	var row Receipt
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return mapModelToRead(&row), nil
}

// SetVerdict implements repo.ReceiptRepository.
func (r *repository) SetVerdict(ctx context.Context, id uuid.UUID, verified, fake bool) error {
	return r.db.WithContext(ctx).
		Model(&Receipt{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_verified": verified,
			"is_fake":     fake,
		}).Error
}

// ListByTransaction implements repo.ReceiptRepository.
func (r *repository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*dto.ReceiptRead, error) {
	var rows []Receipt
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	reads := make([]*dto.ReceiptRead, 0, len(rows))
	for i := range rows {
		reads = append(reads, mapModelToRead(&rows[i]))
	}
	return reads, nil
}

func mapModelToRead(row *Receipt) *dto.ReceiptRead {
	return &dto.ReceiptRead{
		ID:            row.ID,
		TransactionID: row.TransactionID,
		UploadedBy:    row.UploadedBy,
		Blob:          row.Blob,
		IsVerified:    row.IsVerified,
		IsFake:        row.IsFake,
		CreatedAt:     row.CreatedAt,
	}
}
