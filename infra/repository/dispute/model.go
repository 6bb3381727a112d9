package dispute

import (
	"time"

	"github.com/google/uuid"
)

// Dispute is the persisted dispute row. The partial unique index on
// transaction_id enforces at most one pending-acknowledgement dispute per
// transaction at the database level; the service checks it first to return
// a typed error.
type Dispute struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	TransactionID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Currency       string    `gorm:"type:varchar(8);not null"`
	OriginalAmount int64     `gorm:"not null"`
	ProposedAmount int64     `gorm:"not null"`
	Reason         string    `gorm:"type:varchar(512);not null"`
	State          string    `gorm:"type:varchar(16);not null;default:'PENDING_ACK';index"`
	SenderAck      bool      `gorm:"not null;default:false"`
	RecipientAck   bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}

// TableName specifies the table name for the Dispute model.
func (Dispute) TableName() string {
	return "disputes"
}
