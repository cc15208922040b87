package policies

import (
	"context"
	"encoding/json"
	"time"
)

// Order is what the payment processor reports for an order reference.
type Order struct {
	ID         string
	Status     string
	Payer      json.RawMessage
	CreateTime time.Time
	Amount     string
	Currency   string
}

// PaymentVerifier looks up an order by its opaque reference. A missing order is reported
// as an Order with an empty status, not as an error.
type PaymentVerifier interface {
	GetOrder(ctx context.Context, orderReference string) (Order, error)
}

// VerifierError covers transport failures, timeouts and malformed responses. Retrying with
// the same order reference is safe.
type VerifierError struct {
	Status int
	Err    error
}

func (e *VerifierError) Error() string {
	return "payment verifier: " + e.Err.Error()
}

func (e *VerifierError) Unwrap() error { return e.Err }
