package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgstripe "github.com/angelmondragon/storefront-backend/pkg/stripe"
)

const stripeLockTimeout = "lock_timeout"

// IntentCreator is the subset of the Stripe API the gateway calls.
type IntentCreator interface {
	Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type intentClient struct{}

// NewIntentCreator wraps the package-level Stripe payment intent API.
func NewIntentCreator(api *pkgstripe.Client) IntentCreator {
	if api == nil {
		return nil
	}
	return intentClient{}
}

func (intentClient) Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

// StripeOptions bounds each gateway call.
type StripeOptions struct {
	Timeout    time.Duration
	MaxRetries uint64
	Backoff    time.Duration
}

// StripeGateway charges cards through confirmed payment intents.
type StripeGateway struct {
	intents IntentCreator
	opts    StripeOptions
	logg    *logger.Logger
}

// NewStripeGateway builds the live gateway.
func NewStripeGateway(intents IntentCreator, opts StripeOptions, logg *logger.Logger) (*StripeGateway, error) {
	if intents == nil {
		return nil, fmt.Errorf("stripe intent client required")
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("gateway timeout must be positive")
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	return &StripeGateway{intents: intents, opts: opts, logg: logg}, nil
}

func (g *StripeGateway) RequiresPaymentMethod() bool {
	return true
}

// Charge creates and confirms a payment intent. Only failures that prove no
// charge was attempted are retried, and every attempt reuses the same
// idempotency key.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := req.validate(); err != nil {
		return nil, &Error{Kind: ErrGateway, Err: err}
	}
	if req.PaymentMethodToken == "" {
		return nil, &Error{Kind: ErrGateway, Err: fmt.Errorf("payment method required")}
	}

	backoff := retry.WithMaxRetries(g.opts.MaxRetries, retry.NewExponential(g.opts.Backoff))

	var intent *stripe.PaymentIntent
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()

		pi, err := g.intents.Create(attemptCtx, intentParams(req))
		if err == nil {
			intent = pi
			return nil
		}
		if retryable(err) {
			if g.logg != nil {
				g.logg.Warn(g.logg.WithFields(ctx, map[string]any{
					"order_number": req.OrderNumber,
					"attempt":      attempt,
					"error":        err.Error(),
				}), "payments.stripe.retry")
			}
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	if intent == nil {
		return nil, &Error{Kind: ErrAmbiguous, Err: fmt.Errorf("empty payment intent response")}
	}

	return &ChargeResult{Status: mapIntentStatus(intent.Status), Reference: intent.ID}, nil
}

func intentParams(req ChargeRequest) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(req.PaymentMethodToken),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String("Order " + req.OrderNumber),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	params.AddMetadata("order_number", req.OrderNumber)
	params.AddMetadata("customer_name", req.CustomerName)
	params.AddMetadata("email", req.Email)
	params.SetIdempotencyKey("checkout:" + req.OrderNumber)
	return params
}

func retryable(err error) bool {
	var serr *stripe.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.HTTPStatusCode == http.StatusTooManyRequests || string(serr.Code) == stripeLockTimeout
}

func classify(err error) error {
	var serr *stripe.Error
	if !errors.As(err, &serr) {
		// Transport failures and deadlines: the request may have reached Stripe.
		return &Error{Kind: ErrAmbiguous, Err: err}
	}
	switch {
	case serr.Type == stripe.ErrorTypeCard:
		msg := serr.Msg
		if msg == "" {
			msg = "card declined"
		}
		return &Error{Kind: ErrDeclined, UserMessage: msg, Code: string(serr.Code), Err: err}
	case serr.HTTPStatusCode >= http.StatusInternalServerError:
		return &Error{Kind: ErrAmbiguous, Code: string(serr.Code), Err: err}
	default:
		return &Error{Kind: ErrGateway, Code: string(serr.Code), Err: err}
	}
}

func mapIntentStatus(status stripe.PaymentIntentStatus) Status {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusRequiresAction:
		return StatusRequiresAction
	case stripe.PaymentIntentStatusProcessing:
		return StatusProcessing
	default:
		return StatusFailed
	}
}
