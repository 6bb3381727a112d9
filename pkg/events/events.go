// Package events defines the domain events emitted by the settlement core
// after a state transition commits. The core only emits; delivery to users
// (toasts, emails) belongs to external consumers.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every domain event.
type Event interface {
	// Type returns the event name used for handler registration and
	// topic routing.
	Type() string
}

// TransactionSubmitted is emitted when a user submits a funding transaction.
type TransactionSubmitted struct {
	TransactionID uuid.UUID
	UserID        uuid.UUID
	AmountRUB     int64
	AmountUSDT    int64
	OccurredAt    time.Time
}

// Type implements Event.
func (TransactionSubmitted) Type() string { return "transaction.submitted" }

// TransactionClaimed is emitted when an operator wins the claim.
type TransactionClaimed struct {
	TransactionID uuid.UUID
	OperatorID    uuid.UUID
	OccurredAt    time.Time
}

// Type implements Event.
func (TransactionClaimed) Type() string { return "transaction.claimed" }

// TransactionReleased is emitted when a claim is released undecided.
type TransactionReleased struct {
	TransactionID uuid.UUID
	OperatorID    uuid.UUID
	// Forced marks a reaper release rather than an operator release.
	Forced     bool
	OccurredAt time.Time
}

// Type implements Event.
func (TransactionReleased) Type() string { return "transaction.released" }

// TransactionSettled is emitted after the balance credit commits.
type TransactionSettled struct {
	TransactionID uuid.UUID
	UserID        uuid.UUID
	OperatorID    uuid.UUID
	ChargeRUB     int64
	ChargeUSDT    int64
	OccurredAt    time.Time
}

// Type implements Event.
func (TransactionSettled) Type() string { return "transaction.settled" }

// TransactionCancelled is emitted when settlement is rejected or the
// receipt fails validation.
type TransactionCancelled struct {
	TransactionID uuid.UUID
	OperatorID    uuid.UUID
	Reason        string
	OccurredAt    time.Time
}

// Type implements Event.
func (TransactionCancelled) Type() string { return "transaction.cancelled" }

// DisputeOpened is emitted when a dispute is raised against a settled
// transaction.
type DisputeOpened struct {
	DisputeID     uuid.UUID
	TransactionID uuid.UUID
	OccurredAt    time.Time
}

// Type implements Event.
func (DisputeOpened) Type() string { return "dispute.opened" }

// DisputeResolved is emitted after a dispute's balance delta commits.
type DisputeResolved struct {
	DisputeID     uuid.UUID
	TransactionID uuid.UUID
	DeltaRUB      int64
	DeltaUSDT     int64
	OccurredAt    time.Time
}

// Type implements Event.
func (DisputeResolved) Type() string { return "dispute.resolved" }

// DisputeRejected is emitted when a dispute is abandoned.
type DisputeRejected struct {
	DisputeID     uuid.UUID
	TransactionID uuid.UUID
	OccurredAt    time.Time
}

// Type implements Event.
func (DisputeRejected) Type() string { return "dispute.rejected" }
