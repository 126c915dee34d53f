package payments

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"
)

type stubIntents struct {
	calls   int
	params  []*stripe.PaymentIntentParams
	results []stubIntentResult
}

type stubIntentResult struct {
	intent *stripe.PaymentIntent
	err    error
}

func (s *stubIntents) Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	idx := s.calls
	s.calls++
	s.params = append(s.params, params)
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	r := s.results[idx]
	return r.intent, r.err
}

func testGateway(t *testing.T, intents IntentCreator) *StripeGateway {
	t.Helper()
	gw, err := NewStripeGateway(intents, StripeOptions{Timeout: time.Second, MaxRetries: 2, Backoff: time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return gw
}

func chargeRequest() ChargeRequest {
	return ChargeRequest{
		AmountMinor:        7000,
		Currency:           "usd",
		PaymentMethodToken: "pm_card_visa",
		OrderNumber:        "EQ20260301ABCDEF12",
		Email:              "a@b.co",
		CustomerName:       "Ada Lovelace",
	}
}

func TestStripeChargeSucceeded(t *testing.T) {
	intents := &stubIntents{results: []stubIntentResult{{
		intent: &stripe.PaymentIntent{ID: "pi_123", Status: stripe.PaymentIntentStatusSucceeded},
	}}}
	gw := testGateway(t, intents)

	res, err := gw.Charge(context.Background(), chargeRequest())
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if res.Status != StatusSucceeded || res.Reference != "pi_123" {
		t.Fatalf("unexpected result %+v", res)
	}

	params := intents.params[0]
	if *params.Amount != 7000 || *params.Currency != "usd" || !*params.Confirm {
		t.Fatalf("unexpected amount/currency/confirm: %d %s %v", *params.Amount, *params.Currency, *params.Confirm)
	}
	if *params.Description != "Order EQ20260301ABCDEF12" {
		t.Fatalf("unexpected description %q", *params.Description)
	}
	if *params.AutomaticPaymentMethods.AllowRedirects != "never" {
		t.Fatalf("expected redirects disabled")
	}
	if params.Metadata["order_number"] != "EQ20260301ABCDEF12" || params.Metadata["customer_name"] != "Ada Lovelace" {
		t.Fatalf("unexpected metadata %v", params.Metadata)
	}
	if params.IdempotencyKey == nil || *params.IdempotencyKey != "checkout:EQ20260301ABCDEF12" {
		t.Fatalf("unexpected idempotency key %v", params.IdempotencyKey)
	}
}

func TestStripeChargeDeclineCarriesUserMessage(t *testing.T) {
	intents := &stubIntents{results: []stubIntentResult{{
		err: &stripe.Error{Type: stripe.ErrorTypeCard, Msg: "insufficient funds", HTTPStatusCode: http.StatusPaymentRequired},
	}}}
	gw := testGateway(t, intents)

	_, err := gw.Charge(context.Background(), chargeRequest())
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected decline, got %v", err)
	}
	if UserMessage(err) != "insufficient funds" {
		t.Fatalf("unexpected user message %q", UserMessage(err))
	}
	if intents.calls != 1 {
		t.Fatalf("declines must not be retried, got %d calls", intents.calls)
	}
}

func TestStripeChargeRetriesRateLimit(t *testing.T) {
	intents := &stubIntents{results: []stubIntentResult{
		{err: &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusTooManyRequests}},
		{intent: &stripe.PaymentIntent{ID: "pi_retry", Status: stripe.PaymentIntentStatusSucceeded}},
	}}
	gw := testGateway(t, intents)

	res, err := gw.Charge(context.Background(), chargeRequest())
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if res.Reference != "pi_retry" || intents.calls != 2 {
		t.Fatalf("expected success on second attempt, got %+v after %d calls", res, intents.calls)
	}
	if *intents.params[0].IdempotencyKey != *intents.params[1].IdempotencyKey {
		t.Fatal("retries must reuse the idempotency key")
	}
}

func TestStripeChargeRateLimitExhaustedIsGatewayError(t *testing.T) {
	intents := &stubIntents{results: []stubIntentResult{
		{err: &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusTooManyRequests}},
	}}
	gw := testGateway(t, intents)

	_, err := gw.Charge(context.Background(), chargeRequest())
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if intents.calls != 3 {
		t.Fatalf("expected 1 attempt plus 2 retries, got %d", intents.calls)
	}
}

func TestStripeChargeServerErrorIsAmbiguous(t *testing.T) {
	intents := &stubIntents{results: []stubIntentResult{
		{err: &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: http.StatusInternalServerError}},
	}}
	gw := testGateway(t, intents)

	_, err := gw.Charge(context.Background(), chargeRequest())
	if !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("expected ambiguous outcome, got %v", err)
	}
	if intents.calls != 1 {
		t.Fatalf("ambiguous outcomes must not be retried, got %d calls", intents.calls)
	}
}

func TestStripeChargeTransportErrorIsAmbiguous(t *testing.T) {
	intents := &stubIntents{results: []stubIntentResult{{err: context.DeadlineExceeded}}}
	gw := testGateway(t, intents)

	if _, err := gw.Charge(context.Background(), chargeRequest()); !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("expected ambiguous outcome, got %v", err)
	}
}

func TestStripeChargeMapsNonTerminalStatus(t *testing.T) {
	intents := &stubIntents{results: []stubIntentResult{{
		intent: &stripe.PaymentIntent{ID: "pi_3ds", Status: stripe.PaymentIntentStatusRequiresAction},
	}}}
	gw := testGateway(t, intents)

	res, err := gw.Charge(context.Background(), chargeRequest())
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if res.Status != StatusRequiresAction {
		t.Fatalf("expected requires_action, got %s", res.Status)
	}
}

func TestStripeChargeRequiresPaymentMethod(t *testing.T) {
	gw := testGateway(t, &stubIntents{})
	req := chargeRequest()
	req.PaymentMethodToken = ""

	if _, err := gw.Charge(context.Background(), req); !errors.Is(err, ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if !gw.RequiresPaymentMethod() {
		t.Fatal("stripe gateway must require a payment method")
	}
}

func TestManualGatewayDefers(t *testing.T) {
	gw := NewManualGateway()
	req := chargeRequest()
	req.PaymentMethodToken = ""

	res, err := gw.Charge(context.Background(), req)
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if res.Status != StatusDeferred || res.Reference != "" {
		t.Fatalf("unexpected manual result %+v", res)
	}
	if gw.RequiresPaymentMethod() {
		t.Fatal("manual gateway must not require a payment method")
	}
}
