package transaction

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is the persisted funding transaction row. Amounts are minor
// units; the exchange rate is stored as a decimal string so it round-trips
// exactly as snapshotted at creation.
type Transaction struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key"`
	UserID       uuid.UUID  `gorm:"type:uuid;index;not null"`
	AmountRUB    int64      `gorm:"not null"`
	AmountUSDT   int64      `gorm:"not null"`
	ChargeRUB    int64      `gorm:"not null"`
	ChargeUSDT   int64      `gorm:"not null"`
	ExchangeRate string     `gorm:"type:decimal(20,8);not null"`
	Status       string     `gorm:"type:varchar(16);not null;default:'PENDING';index"`
	ClaimedBy    *uuid.UUID `gorm:"type:uuid"`
	ClaimedAt    *time.Time
	ConfirmedAt  *time.Time
	Reason       string `gorm:"type:varchar(512)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}
