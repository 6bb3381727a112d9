// Package dispute models post-settlement amount renegotiation. A dispute
// never re-enters the transaction state machine; it adjusts a previously
// credited amount once both counterparties acknowledge it.
package dispute

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain/money"
)

// State is the dispute lifecycle state.
type State string

// Lifecycle states. Resolved and Abandoned are terminal.
const (
	StatePendingAck State = "PENDING_ACK"
	StateResolved   State = "RESOLVED"
	StateAbandoned  State = "ABANDONED"
)

// Party identifies which side of the transaction is acknowledging.
type Party string

// The two transaction counterparties.
const (
	PartySender    Party = "sender"
	PartyRecipient Party = "recipient"
)

// IsValid reports whether p names a known party.
func (p Party) IsValid() bool {
	return p == PartySender || p == PartyRecipient
}

// Dispute is a renegotiation request against a settled transaction. The
// proposed amount may be above or below the original; the delta is applied
// to the counterparty balance only on resolution.
type Dispute struct {
	ID             uuid.UUID
	TransactionID  uuid.UUID
	OriginalAmount money.Money
	ProposedAmount money.Money
	Reason         string
	State          State
	SenderAck      bool
	RecipientAck   bool
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}

// New creates a dispute in pending-acknowledgement state. Amount currencies
// must match; the proposal must differ from the original.
func New(transactionID uuid.UUID, original, proposed money.Money, reason string) (*Dispute, error) {
	if reason == "" {
		return nil, fmt.Errorf("dispute reason must not be empty")
	}
	if original.Currency() != proposed.Currency() {
		return nil, money.ErrMismatchedCurrencies
	}
	if proposed.Amount() < 0 {
		return nil, fmt.Errorf("proposed amount must not be negative")
	}
	if proposed.Amount() == original.Amount() {
		return nil, fmt.Errorf("proposed amount equals the settled amount")
	}
	return &Dispute{
		ID:             uuid.New(),
		TransactionID:  transactionID,
		OriginalAmount: original,
		ProposedAmount: proposed,
		Reason:         reason,
		State:          StatePendingAck,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Acknowledged reports whether both counterparties have acknowledged.
func (d *Dispute) Acknowledged() bool {
	return d.SenderAck && d.RecipientAck
}

// Delta is the balance adjustment applied on resolution:
// proposed − original. May be negative.
func (d *Dispute) Delta() money.Money {
	delta, _ := d.ProposedAmount.Sub(d.OriginalAmount)
	return delta
}

// IsOpen reports whether the dispute still blocks new disputes on the same
// transaction.
func (d *Dispute) IsOpen() bool {
	return d.State == StatePendingAck
}
