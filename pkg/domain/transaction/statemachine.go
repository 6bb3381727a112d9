package transaction

import (
	"fmt"

	"github.com/obmenka/settlement/pkg/domain"
)

// Event is a settlement lifecycle trigger fed to the state machine.
type Event string

// Lifecycle events.
const (
	// EventClaim grants an operator exclusive working rights.
	EventClaim Event = "claim"
	// EventRelease returns a claimed transaction to the queue undecided.
	EventRelease Event = "release"
	// EventAccept records the operator's accept decision with evidence.
	EventAccept Event = "accept"
	// EventReject records the operator's reject decision.
	EventReject Event = "reject"
	// EventReceiptValid finalizes settlement after evidence validation.
	EventReceiptValid Event = "receipt_valid"
	// EventReceiptInvalid cancels settlement on failed validation.
	EventReceiptInvalid Event = "receipt_invalid"
	// EventArchive moves a settled transaction to history.
	EventArchive Event = "archive"
)

// SideEffect names a store mutation the caller must apply inside the same
// atomic unit as the status write. The machine itself never touches state.
type SideEffect string

// Side effects emitted by transitions.
const (
	EffectSetClaim       SideEffect = "set_claim"
	EffectClearClaim     SideEffect = "clear_claim"
	EffectWriteReceipt   SideEffect = "write_receipt"
	EffectSetConfirmedAt SideEffect = "set_confirmed_at"
	EffectCreditBalance  SideEffect = "credit_balance"
)

type transitionKey struct {
	from  Status
	event Event
}

type transition struct {
	to            Status
	effects       []SideEffect
	requiresClaim bool
}

// transitions is the complete settlement lifecycle. Anything absent is an
// invalid transition.
var transitions = map[transitionKey]transition{
	{StatusPending, EventClaim}: {
		to:      StatusVerification,
		effects: []SideEffect{EffectSetClaim},
	},
	{StatusVerification, EventRelease}: {
		to:            StatusPending,
		effects:       []SideEffect{EffectClearClaim},
		requiresClaim: true,
	},
	{StatusVerification, EventAccept}: {
		to:            StatusFinalization,
		effects:       []SideEffect{EffectWriteReceipt},
		requiresClaim: true,
	},
	{StatusVerification, EventReject}: {
		to:            StatusCancelled,
		effects:       []SideEffect{EffectClearClaim},
		requiresClaim: true,
	},
	{StatusFinalization, EventReceiptValid}: {
		to: StatusActive,
		effects: []SideEffect{
			EffectSetConfirmedAt,
			EffectClearClaim,
			EffectCreditBalance,
		},
		requiresClaim: true,
	},
	{StatusFinalization, EventReceiptInvalid}: {
		to:            StatusCancelled,
		effects:       []SideEffect{EffectClearClaim},
		requiresClaim: true,
	},
	{StatusActive, EventArchive}: {
		to: StatusHistory,
	},
}

// Next is the pure transition function: given the current status, whether a
// claim is held, and an event, it returns the next status and the side
// effects the caller must apply atomically with the status write. A claim
// attempt against an already-claimed transaction reports ErrAlreadyClaimed;
// every other disallowed combination reports ErrInvalidTransition. On error
// there are no side effects.
func Next(status Status, claimed bool, event Event) (Status, []SideEffect, error) {
	tr, ok := transitions[transitionKey{status, event}]
	if !ok {
		return status, nil, fmt.Errorf(
			"%w: %s from %s", domain.ErrInvalidTransition, event, status)
	}
	if event == EventClaim && claimed {
		return status, nil, domain.ErrAlreadyClaimed
	}
	if tr.requiresClaim && !claimed {
		return status, nil, fmt.Errorf(
			"%w: %s requires a held claim", domain.ErrInvalidTransition, event)
	}
	return tr.to, tr.effects, nil
}
