// Package dispute implements the dispute repository over gorm.
package dispute

import (
	"context"

	"github.com/google/uuid"
	domaindispute "github.com/obmenka/settlement/pkg/domain/dispute"
	"github.com/obmenka/settlement/pkg/dto"
	repo "github.com/obmenka/settlement/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// New creates a dispute repository using the provided *gorm.DB.
func New(db *gorm.DB) repo.DisputeRepository {
	return &repository{db: db}
}

// Create implements repo.DisputeRepository.
func (r *repository) Create(ctx context.Context, create dto.DisputeCreate) error {
	row := Dispute{
		ID:             create.ID,
		TransactionID:  create.TransactionID,
		Currency:       create.Currency,
		OriginalAmount: create.OriginalAmount,
		ProposedAmount: create.ProposedAmount,
		Reason:         create.Reason,
		State:          create.State,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// Get implements repo.DisputeRepository.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*dto.DisputeRead, error) {
	var row Dispute
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return mapModelToRead(&row), nil
}

// GetForUpdate implements repo.DisputeRepository.
func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*dto.DisputeRead, error) {
	var row Dispute
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

// GetOpenByTransaction implements repo.DisputeRepository.
func (r *repository) GetOpenByTransaction(ctx context.Context, transactionID uuid.UUID) (*dto.DisputeRead, error) {
	var row Dispute
	err := r.db.WithContext(ctx).
		Where("transaction_id = ? AND state = ?", transactionID, string(domaindispute.StatePendingAck)).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return mapModelToRead(&row), nil
}

// Update implements repo.DisputeRepository.
func (r *repository) Update(ctx context.Context, id uuid.UUID, update dto.DisputeUpdate) error {
	updates := map[string]any{}
	if update.State != nil {
		updates["state"] = *update.State
	}
	if update.SenderAck != nil {
		updates["sender_ack"] = *update.SenderAck
	}
	if update.RecipientAck != nil {
		updates["recipient_ack"] = *update.RecipientAck
	}
	if update.ResolvedAt != nil {
		updates["resolved_at"] = *update.ResolvedAt
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&Dispute{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListByTransaction implements repo.DisputeRepository.
func (r *repository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*dto.DisputeRead, error) {
	var rows []Dispute
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	reads := make([]*dto.DisputeRead, 0, len(rows))
	for i := range rows {
		reads = append(reads, mapModelToRead(&rows[i]))
	}
	return reads, nil
}

func mapModelToRead(row *Dispute) *dto.DisputeRead {
	return &dto.DisputeRead{
		ID:             row.ID,
		TransactionID:  row.TransactionID,
		Currency:       row.Currency,
		OriginalAmount: row.OriginalAmount,
		ProposedAmount: row.ProposedAmount,
		Reason:         row.Reason,
		State:          row.State,
		SenderAck:      row.SenderAck,
		RecipientAck:   row.RecipientAck,
		CreatedAt:      row.CreatedAt,
		ResolvedAt:     row.ResolvedAt,
	}
}
