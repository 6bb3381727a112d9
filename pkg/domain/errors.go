// Package domain defines the shared error taxonomy for the settlement core.
// Services translate store-level failures into these sentinels so callers can
// decide whether an operation is retryable.
package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested entity does not exist.
	// Never retried; surfaced as-is.
	ErrNotFound = errors.New("entity not found")
	// ErrInvalidTransition is returned by the state machine when the
	// requested event is not valid from the current status.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrWrongState is returned when an operation is attempted against an
	// entity whose current status does not permit it.
	ErrWrongState = errors.New("operation not allowed in current state")
	// ErrAlreadyClaimed is returned when a claim attempt loses the
	// conditional update to another operator.
	ErrAlreadyClaimed = errors.New("transaction already claimed")
	// ErrNotOwner is returned when the caller does not hold the claim on
	// the transaction it is trying to act on.
	ErrNotOwner = errors.New("claim held by another operator")
	// ErrAlreadySettled signals an idempotent retry: the transaction was
	// settled by a previous attempt. Callers that retry blindly may treat
	// this as success.
	ErrAlreadySettled = errors.New("transaction already settled")
	// ErrEmptyReceipt is returned when Accept is called without receipt
	// evidence.
	ErrEmptyReceipt = errors.New("receipt evidence required")
	// ErrEmptyReason is returned when Reject is called without a reason.
	ErrEmptyReason = errors.New("rejection reason required")
	// ErrDisputeInProgress is returned when opening a dispute while another
	// one is still pending acknowledgement.
	ErrDisputeInProgress = errors.New("another dispute is pending for this transaction")
	// ErrAwaitingAcknowledgement is returned by Resolve before both
	// counterparties have acknowledged the dispute.
	ErrAwaitingAcknowledgement = errors.New("dispute awaiting acknowledgement")
	// ErrInsufficientFunds is returned when a balance mutation would drive
	// a running total below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrDuplicateEntry is returned when a ledger entry with the same cause
	// already exists. It marks a replayed balance mutation.
	ErrDuplicateEntry = errors.New("ledger entry already recorded for cause")
)
