package transaction

// SubmitRequest is the body for submitting a funding transaction. Amount is
// the crypto side in main units, e.g. 50 for 50 USDT.
type SubmitRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// AcceptRequest carries the receipt evidence for the accept decision.
type AcceptRequest struct {
	Receipt string `json:"receipt" validate:"required"`
}

// RejectRequest carries the mandatory rejection reason and optional
// evidence.
type RejectRequest struct {
	Reason  string `json:"reason" validate:"required"`
	Receipt string `json:"receipt,omitempty"`
}
