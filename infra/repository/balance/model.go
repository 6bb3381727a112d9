package balance

import (
	"time"

	"github.com/google/uuid"
)

// Balance is the persisted per-user running totals row, minor units.
type Balance struct {
	UserID    uuid.UUID `gorm:"type:uuid;primary_key"`
	RUB       int64     `gorm:"not null;default:0"`
	USDT      int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName specifies the table name for the Balance model.
func (Balance) TableName() string {
	return "balances"
}

// Entry is one persisted balance mutation. The unique index over
// (cause_type, cause_id) is the idempotency guarantee: a replayed
// settlement or dispute resolution cannot record a second entry.
type Entry struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	CauseType string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_entries_cause"`
	CauseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_entries_cause"`
	DeltaRUB  int64     `gorm:"not null"`
	DeltaUSDT int64     `gorm:"not null"`
	CreatedAt time.Time
}

// TableName specifies the table name for the Entry model.
func (Entry) TableName() string {
	return "balance_entries"
}
