package dto

import (
	"time"

	"github.com/google/uuid"
)

// DisputeRead is a read-optimized snapshot of a dispute.
type DisputeRead struct {
	ID             uuid.UUID
	TransactionID  uuid.UUID
	Currency       string
	OriginalAmount int64 // minor units
	ProposedAmount int64
	Reason         string
	State          string
	SenderAck      bool
	RecipientAck   bool
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}

// DisputeCreate is the DTO for opening a dispute.
type DisputeCreate struct {
	ID             uuid.UUID
	TransactionID  uuid.UUID
	Currency       string
	OriginalAmount int64
	ProposedAmount int64
	Reason         string
	State          string
}

// DisputeUpdate is the DTO for acknowledgement and state changes.
type DisputeUpdate struct {
	State        *string
	SenderAck    *bool
	RecipientAck *bool
	ResolvedAt   *time.Time
}
