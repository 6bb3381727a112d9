package dispute

// OpenRequest proposes a new settled amount for a transaction. Amount is in
// main units of the given currency.
type OpenRequest struct {
	Amount   float64 `json:"amount" validate:"required,gte=0"`
	Currency string  `json:"currency" validate:"required,oneof=RUB USDT"`
	Reason   string  `json:"reason" validate:"required"`
}

// AcknowledgeRequest records one party's agreement.
type AcknowledgeRequest struct {
	Party string `json:"party" validate:"required,oneof=sender recipient"`
}
