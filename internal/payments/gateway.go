package payments

import (
	"context"
	"errors"
	"fmt"
)

// Status is the gateway-reported state of a charge.
type Status string

const (
	StatusSucceeded      Status = "succeeded"
	StatusFailed         Status = "failed"
	StatusRequiresAction Status = "requires_action"
	StatusProcessing     Status = "processing"
	// StatusDeferred means no charge was attempted and payment is collected out of band.
	StatusDeferred Status = "deferred"
)

// Outcome kinds. Match with errors.Is.
var (
	ErrDeclined  = errors.New("payment declined")
	ErrGateway   = errors.New("payment gateway unavailable")
	ErrAmbiguous = errors.New("payment outcome unknown")
)

// ChargeRequest is a single card charge for one checkout.
type ChargeRequest struct {
	AmountMinor        int64
	Currency           string
	PaymentMethodToken string
	OrderNumber        string
	Email              string
	CustomerName       string
}

// ChargeResult is what the gateway reported for a charge it accepted.
type ChargeResult struct {
	Status    Status
	Reference string
}

// Gateway charges a payment method.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	RequiresPaymentMethod() bool
}

// Error carries the outcome kind, the underlying cause and, for declines, a
// message that is safe to show the buyer.
type Error struct {
	Kind        error
	UserMessage string
	Code        string
	Err         error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UserMessage returns the buyer-facing decline text carried by err, if any.
func UserMessage(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.UserMessage
	}
	return ""
}

func (r ChargeRequest) validate() error {
	if r.AmountMinor <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if r.Currency == "" {
		return fmt.Errorf("currency required")
	}
	if r.OrderNumber == "" {
		return fmt.Errorf("order number required")
	}
	return nil
}
