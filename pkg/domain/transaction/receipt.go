package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Receipt is payment evidence attached during settlement. A transaction may
// accumulate several receipts over retries; the most recent one is
// authoritative at finalization.
type Receipt struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	UploadedBy    uuid.UUID // operator holding the claim at submission
	Blob          string    // opaque evidence reference (file key, URL)
	IsVerified    bool
	IsFake        bool
	CreatedAt     time.Time
}

// NewReceipt creates receipt evidence for a claimed transaction.
func NewReceipt(transactionID, uploadedBy uuid.UUID, blob string) (*Receipt, error) {
	if blob == "" {
		return nil, fmt.Errorf("receipt blob must not be empty")
	}
	return &Receipt{
		ID:            uuid.New(),
		TransactionID: transactionID,
		UploadedBy:    uploadedBy,
		Blob:          blob,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// MarkVerified records a passed validation. Clears any fake mark so the two
// flags are never both set.
func (r *Receipt) MarkVerified() {
	r.IsVerified = true
	r.IsFake = false
}

// MarkFake records a failed validation.
func (r *Receipt) MarkFake() {
	r.IsFake = true
	r.IsVerified = false
}
