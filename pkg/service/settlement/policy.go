package settlement

import "context"

// ReceiptPolicy decides whether attached receipt evidence passes
// validation. Implementations may call out to OCR or bank statement
// matching; the default accepts any non-empty blob.
type ReceiptPolicy interface {
	// Validate reports whether the evidence is acceptable. An error means
	// validation could not run, which aborts the settlement attempt
	// without deciding the transaction.
	Validate(ctx context.Context, blob string) (bool, error)
}

// NonEmptyPolicy accepts any non-empty receipt blob.
type NonEmptyPolicy struct{}

// Validate implements ReceiptPolicy.
func (NonEmptyPolicy) Validate(_ context.Context, blob string) (bool, error) {
	return blob != "", nil
}
