// Package transaction holds the funding transaction aggregate and the pure
// state machine that governs its settlement lifecycle.
package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/obmenka/settlement/pkg/domain/money"
	"github.com/shopspring/decimal"
)

// Status is the settlement lifecycle state of a funding transaction.
type Status string

// Lifecycle states. CANCELLED and HISTORY are terminal.
const (
	StatusPending      Status = "PENDING"
	StatusVerification Status = "VERIFICATION"
	StatusFinalization Status = "FINALIZATION"
	StatusActive       Status = "ACTIVE"
	StatusHistory      Status = "HISTORY"
	StatusCancelled    Status = "CANCELLED"
)

// IsTerminal reports whether no further transitions are possible from s.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusHistory
}

// Transaction is a funding order: a user pays fiat and is credited crypto
// (and the fiat ledger mirror) once an operator settles it. Amounts and the
// exchange rate are fixed at creation and never re-derived.
type Transaction struct {
	ID     uuid.UUID
	UserID uuid.UUID // counterparty whose balance is credited on settlement

	AmountRUB  money.Money
	AmountUSDT money.Money
	// ChargeRUB/ChargeUSDT are the amounts actually credited after
	// commission. Invariant: Charge ≤ Amount per currency.
	ChargeRUB  money.Money
	ChargeUSDT money.Money
	// ExchangeRate is fiat per unit crypto, snapshotted at creation.
	ExchangeRate decimal.Decimal

	Status    Status
	ClaimedBy *uuid.UUID // non-nil iff a claim is held
	ClaimedAt *time.Time
	// ConfirmedAt is set exactly once, on the transition into ACTIVE.
	ConfirmedAt *time.Time
	// Reason holds the operator's rejection reason for CANCELLED rows.
	Reason    string
	CreatedAt time.Time
}

// New creates a PENDING transaction, enforcing creation invariants:
// amounts positive, charge not exceeding amount, positive exchange rate.
func New(
	userID uuid.UUID,
	amountRUB, amountUSDT money.Money,
	chargeRUB, chargeUSDT money.Money,
	rate decimal.Decimal,
) (*Transaction, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("transaction requires a counterparty")
	}
	if amountRUB.Amount() <= 0 || amountUSDT.Amount() <= 0 {
		return nil, fmt.Errorf("transaction amounts must be positive")
	}
	if chargeRUB.GreaterThan(amountRUB) || chargeUSDT.GreaterThan(amountUSDT) {
		return nil, fmt.Errorf("charge amount exceeds transaction amount")
	}
	if chargeRUB.IsNegative() || chargeUSDT.IsNegative() {
		return nil, fmt.Errorf("charge amount must not be negative")
	}
	if !rate.IsPositive() {
		return nil, fmt.Errorf("exchange rate must be positive")
	}
	return &Transaction{
		ID:           uuid.New(),
		UserID:       userID,
		AmountRUB:    amountRUB,
		AmountUSDT:   amountUSDT,
		ChargeRUB:    chargeRUB,
		ChargeUSDT:   chargeUSDT,
		ExchangeRate: rate,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// IsClaimedBy reports whether the given operator currently holds the claim.
func (t *Transaction) IsClaimedBy(operatorID uuid.UUID) bool {
	return t.ClaimedBy != nil && *t.ClaimedBy == operatorID
}
