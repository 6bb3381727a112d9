package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/dto"
)

// TransactionRepository is the data access contract for funding
// transactions.
type TransactionRepository interface {
	// Create inserts a new transaction record.
	Create(ctx context.Context, create dto.TransactionCreate) error

	// Get retrieves a transaction by id, or nil when absent.
	Get(ctx context.Context, id uuid.UUID) (*dto.TransactionRead, error)

	// GetForUpdate retrieves a transaction with a row lock. Only valid
	// inside a UnitOfWork.Do boundary.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*dto.TransactionRead, error)

	// ClaimPending atomically grants the claim: a single conditional
	// update that requires status PENDING and no held claim, and sets
	// status VERIFICATION, claimed_by and claimed_at in one statement.
	// Reports false when the condition did not hold; the caller re-reads
	// the row to classify the failure.
	ClaimPending(ctx context.Context, id, operatorID uuid.UUID, at time.Time) (bool, error)

	// ReleaseClaim atomically undoes a claim held by operatorID: requires
	// status VERIFICATION and claimed_by = operatorID, resets status to
	// PENDING and nulls the claim columns. Reports false when the
	// condition did not hold.
	ReleaseClaim(ctx context.Context, id, operatorID uuid.UUID) (bool, error)

	// ReleaseExpired force-releases claims older than the cutoff,
	// returning how many were reset. Liveness aid for the reaper; the
	// settlement invariants hold whether or not it ever runs.
	ReleaseExpired(ctx context.Context, cutoff time.Time) (int64, error)

	// Update persists the non-nil fields of the update DTO.
	Update(ctx context.Context, id uuid.UUID, update dto.TransactionUpdate) error

	// ListByStatus lists transactions in the given status, oldest first.
	ListByStatus(ctx context.Context, status string) ([]*dto.TransactionRead, error)

	// ListByUser lists all transactions owned by the user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*dto.TransactionRead, error)
}

// ReceiptRepository is the data access contract for receipt evidence.
type ReceiptRepository interface {
	// Create inserts receipt evidence for a transaction.
	Create(ctx context.Context, create dto.ReceiptCreate) error

	// Latest returns the most recent receipt for the transaction, or nil.
	Latest(ctx context.Context, transactionID uuid.UUID) (*dto.ReceiptRead, error)

	// SetVerdict records the validation outcome on a receipt.
	SetVerdict(ctx context.Context, id uuid.UUID, verified, fake bool) error

	// ListByTransaction lists all receipts for a transaction, newest first.
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*dto.ReceiptRead, error)
}

// DisputeRepository is the data access contract for disputes.
type DisputeRepository interface {
	// Create inserts a dispute row.
	Create(ctx context.Context, create dto.DisputeCreate) error

	// Get retrieves a dispute by id, or nil when absent.
	Get(ctx context.Context, id uuid.UUID) (*dto.DisputeRead, error)

	// GetForUpdate retrieves a dispute with a row lock. Only valid inside
	// a UnitOfWork.Do boundary.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*dto.DisputeRead, error)

	// GetOpenByTransaction returns the pending-acknowledgement dispute for
	// the transaction, or nil when none is open.
	GetOpenByTransaction(ctx context.Context, transactionID uuid.UUID) (*dto.DisputeRead, error)

	// Update persists the non-nil fields of the update DTO.
	Update(ctx context.Context, id uuid.UUID, update dto.DisputeUpdate) error

	// ListByTransaction lists all disputes raised against a transaction.
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*dto.DisputeRead, error)
}

// BalanceRepository is the data access contract for user balances. Balances
// change only through ApplyEntry so every mutation is traceable to exactly
// one cause.
type BalanceRepository interface {
	// Get returns the user's balance, or a zero balance when the user has
	// no row yet.
	Get(ctx context.Context, userID uuid.UUID) (*dto.BalanceRead, error)

	// ApplyEntry records a ledger entry and applies its deltas to the
	// user's running totals in the same statement batch. Returns
	// domain.ErrDuplicateEntry when an entry for the same cause already
	// exists and domain.ErrInsufficientFunds when a total would go
	// negative. Only valid inside a UnitOfWork.Do boundary.
	ApplyEntry(ctx context.Context, entry dto.EntryCreate) error
}
