package receipt

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is the persisted receipt evidence row. is_verified and is_fake
// are never both true; SetVerdict writes them as a pair.
type Receipt struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	TransactionID uuid.UUID `gorm:"type:uuid;index;not null"`
	UploadedBy    uuid.UUID `gorm:"type:uuid;not null"`
	Blob          string    `gorm:"type:varchar(1024);not null"`
	IsVerified    bool      `gorm:"not null;default:false"`
	IsFake        bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time
}

// TableName specifies the table name for the Receipt model.
func (Receipt) TableName() string {
	return "receipts"
}
