// Package balance models per-user running totals and the ledger entries
// that mutate them. Balances are only ever changed through entries, and each
// entry is keyed by its cause (transaction or dispute), which is what makes
// balance mutation replays idempotent.
package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain/money"
)

// Balance holds a user's two running totals. Both are non-negative; the
// store rejects any entry that would drive one below zero.
type Balance struct {
	UserID    uuid.UUID
	RUB       money.Money
	USDT      money.Money
	UpdatedAt time.Time
}

// CauseType names the entity responsible for a balance mutation.
type CauseType string

// Mutation causes. Settlement credits, dispute resolutions adjust.
const (
	CauseSettlement CauseType = "settlement"
	CauseDispute    CauseType = "dispute"
)

// Entry is one balance mutation. (CauseType, CauseID) is unique in the
// store: a replay of the same settlement or dispute resolution cannot be
// recorded twice.
type Entry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CauseType CauseType
	CauseID   uuid.UUID
	DeltaRUB  money.Amount // minor units, signed
	DeltaUSDT money.Amount
	CreatedAt time.Time
}
