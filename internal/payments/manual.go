package payments

import "context"

// ManualGateway records orders without charging. Payment is reconciled out of band.
type ManualGateway struct{}

// NewManualGateway returns the no-charge gateway.
func NewManualGateway() *ManualGateway {
	return &ManualGateway{}
}

func (ManualGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := req.validate(); err != nil {
		return nil, &Error{Kind: ErrGateway, Err: err}
	}
	return &ChargeResult{Status: StatusDeferred}, nil
}

func (ManualGateway) RequiresPaymentMethod() bool {
	return false
}
