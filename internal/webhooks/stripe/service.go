package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type paymentStatusApplier interface {
	ApplyPaymentStatus(ctx context.Context, reference string, status enums.PaymentStatus) (bool, error)
}

// Service applies asynchronous payment intent notifications to orders.
type Service struct {
	orders paymentStatusApplier
	logg   *logger.Logger
}

func NewService(orders paymentStatusApplier, logg *logger.Logger) (*Service, error) {
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	return &Service{orders: orders, logg: logg}, nil
}

// HandleEvent maps payment intent outcomes onto the order charged under that
// intent. Unrelated event types are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	var status enums.PaymentStatus
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		status = enums.PaymentStatusSucceeded
	case stripe.EventTypePaymentIntentPaymentFailed:
		status = enums.PaymentStatusFailed
	default:
		return nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}

	applied, err := s.orders.ApplyPaymentStatus(ctx, intent.ID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply payment status")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event_id":          event.ID,
			"payment_reference": intent.ID,
			"payment_status":    string(status),
			"applied":           applied,
		}), "webhook.payment_status")
	}
	return nil
}
