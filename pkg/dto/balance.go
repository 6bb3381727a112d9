package dto

import (
	"time"

	"github.com/google/uuid"
)

// BalanceRead is a read-optimized snapshot of a user balance.
type BalanceRead struct {
	UserID    uuid.UUID
	RUB       int64 // minor units
	USDT      int64
	UpdatedAt time.Time
}

// EntryCreate records one balance mutation. (CauseType, CauseID) is the
// idempotency key: the store refuses a second entry for the same cause.
type EntryCreate struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CauseType string
	CauseID   uuid.UUID
	DeltaRUB  int64
	DeltaUSDT int64
}
