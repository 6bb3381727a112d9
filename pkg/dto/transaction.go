// Package dto carries the create/read/update structures exchanged between
// services and repositories. Reads are hydration-friendly snapshots; updates
// use pointer fields so repositories persist only what changed.
package dto

import (
	"time"

	"github.com/google/uuid"
)

// TransactionRead is a read-optimized snapshot of a funding transaction.
type TransactionRead struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	AmountRUB    int64 // minor units
	AmountUSDT   int64
	ChargeRUB    int64
	ChargeUSDT   int64
	ExchangeRate string // decimal string, fixed at creation
	Status       string
	ClaimedBy    *uuid.UUID
	ClaimedAt    *time.Time
	ConfirmedAt  *time.Time
	Reason       string
	CreatedAt    time.Time
}

// TransactionCreate is the DTO for creating a new PENDING transaction.
type TransactionCreate struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	AmountRUB    int64
	AmountUSDT   int64
	ChargeRUB    int64
	ChargeUSDT   int64
	ExchangeRate string
	Status       string
}

// TransactionUpdate is the DTO for updating a transaction. Nil pointer
// fields are left untouched; ClearClaim nulls both claim columns.
type TransactionUpdate struct {
	Status      *string
	ClaimedBy   *uuid.UUID
	ClaimedAt   *time.Time
	ClearClaim  bool
	ConfirmedAt *time.Time
	Reason      *string
}

// ReceiptRead is a read-optimized snapshot of receipt evidence.
type ReceiptRead struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	UploadedBy    uuid.UUID
	Blob          string
	IsVerified    bool
	IsFake        bool
	CreatedAt     time.Time
}

// ReceiptCreate is the DTO for attaching receipt evidence.
type ReceiptCreate struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	UploadedBy    uuid.UUID
	Blob          string
	IsVerified    bool
	IsFake        bool
}
