package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	maxOrderNumberAttempts = 5
	defaultCommitTimeout   = 15 * time.Second
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outcomeRecorder interface {
	IncOutcome(outcome string)
	ObserveGateway(result string, duration time.Duration)
}

type numberSource interface {
	Next() (string, error)
}

// Service runs the checkout transaction for one session.
type Service interface {
	Execute(ctx context.Context, session string, input Input) (*Result, error)
	Preview(ctx context.Context, session string) (*Preview, error)
}

// Result is returned to the buyer after a successful checkout.
type Result struct {
	Success       bool                `json:"success"`
	OrderNumber   string              `json:"order_number"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Message       string              `json:"message"`
}

// Preview is the checkout page payload.
type Preview struct {
	*cart.View
	PublishableKey        string `json:"publishable_key,omitempty"`
	RequiresPaymentMethod bool   `json:"requires_payment_method"`
}

// Dependencies are the collaborators the checkout transaction drives.
type Dependencies struct {
	Tx             txRunner
	Cart           *cart.Repository
	Products       *product.Repository
	Orders         orders.Repository
	Gateway        payments.Gateway
	Locker         Locker
	Numbers        numberSource
	Policy         pricing.Policy
	Metrics        outcomeRecorder
	Logger         *logger.Logger
	PublishableKey string
	// ReserveStock decrements product stock at commit and rejects carts that
	// exceed the available stock before charging.
	ReserveStock bool
	// CommitTimeout bounds the write that follows a charge. The write is detached
	// from the request so a disconnecting buyer cannot strand a captured payment.
	CommitTimeout time.Duration
}

type service struct {
	Dependencies
}

// NewService builds the checkout service.
func NewService(deps Dependencies) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case deps.Locker == nil:
		return nil, fmt.Errorf("checkout locker required")
	case deps.Numbers == nil:
		return nil, fmt.Errorf("order number source required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	if deps.Metrics == nil {
		deps.Metrics = (*metrics.CheckoutMetrics)(nil)
	}
	if deps.CommitTimeout <= 0 {
		deps.CommitTimeout = defaultCommitTimeout
	}
	return &service{Dependencies: deps}, nil
}

func (s *service) Preview(ctx context.Context, session string) (*Preview, error) {
	lines, err := s.Cart.List(ctx, session)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "Cart is empty")
	}
	return &Preview{
		View:                  cart.BuildView(lines, s.Policy),
		PublishableKey:        s.PublishableKey,
		RequiresPaymentMethod: s.Gateway.RequiresPaymentMethod(),
	}, nil
}

func (s *service) Execute(ctx context.Context, session string, input Input) (*Result, error) {
	ctx = s.Logger.WithSession(ctx, session)
	if strings.TrimSpace(session) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	if err := validateInput(&input, s.Gateway.RequiresPaymentMethod()); err != nil {
		s.Metrics.IncOutcome(metrics.OutcomeValidation)
		return nil, err
	}

	release, err := s.Locker.Acquire(ctx, session)
	if err != nil {
		s.Metrics.IncOutcome(metrics.OutcomeLockTimeout)
		s.Logger.Warn(s.Logger.WithField(ctx, "error", err.Error()), "checkout.lock_unavailable")
		return nil, err
	}
	defer release()

	lines, err := s.Cart.List(ctx, session)
	if err != nil {
		s.Metrics.IncOutcome(metrics.OutcomeInternal)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(lines) == 0 {
		s.Metrics.IncOutcome(metrics.OutcomeEmptyCart)
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "Cart is empty")
	}

	items, totals, err := s.snapshot(ctx, lines)
	if err != nil {
		return nil, err
	}

	number, err := s.freshOrderNumber(ctx)
	if err != nil {
		s.Metrics.IncOutcome(metrics.OutcomeInternal)
		return nil, err
	}
	amount := pricing.MinorUnits(totals.Total)
	ctx = s.Logger.WithFields(s.Logger.WithOrderNumber(ctx, number), map[string]any{"amount_minor": amount})

	charge, err := s.charge(ctx, payments.ChargeRequest{
		AmountMinor:        amount,
		Currency:           s.Policy.Currency,
		PaymentMethodToken: input.PaymentMethodID,
		OrderNumber:        number,
		Email:              input.Email,
		CustomerName:       strings.TrimSpace(input.FirstName + " " + input.LastName),
	})
	if err != nil {
		return nil, err
	}

	status, err := s.orderStatusFor(ctx, charge)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:   number,
		Email:         input.Email,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Address:       input.Address,
		City:          input.City,
		State:         input.State,
		ZipCode:       input.Zip,
		Country:       input.Country,
		Items:         items,
		Subtotal:      totals.Subtotal,
		Shipping:      totals.Shipping,
		Total:         totals.Total,
		PaymentStatus: status,
	}
	if charge.Reference != "" {
		ref := charge.Reference
		order.PaymentReference = &ref
	}

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.CommitTimeout)
	defer cancel()
	if err := s.commit(commitCtx, order, session, lines); err != nil {
		if charge.Status == payments.StatusDeferred {
			s.Metrics.IncOutcome(metrics.OutcomeInternal)
			s.Logger.Error(commitCtx, "checkout.order_not_recorded", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order not recorded")
		}
		s.Metrics.IncOutcome(metrics.OutcomePostChargeFailure)
		s.Logger.Error(s.Logger.WithFields(commitCtx, map[string]any{
			"payment_reference": charge.Reference,
			"payment_status":    string(status),
			"total":             totals.Total.StringFixed(2),
		}), "checkout.charged_but_unrecorded", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodePostChargePersistence, err, "order not recorded after charge")
	}

	s.Metrics.IncOutcome(metrics.OutcomeSucceeded)
	s.Logger.Info(s.Logger.WithOrderNumber(ctx, order.OrderNumber), "checkout.completed")
	return &Result{
		Success:       true,
		OrderNumber:   order.OrderNumber,
		PaymentStatus: status,
		Message:       successMessage(status),
	}, nil
}

// snapshot prices the cart and captures the immutable line records.
func (s *service) snapshot(ctx context.Context, lines []models.CartLine) (types.OrderItems, pricing.Totals, error) {
	items := make(types.OrderItems, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))
	wanted := map[uint]int{}

	for _, line := range lines {
		p := line.Product
		if p == nil {
			s.Metrics.IncOutcome(metrics.OutcomeProductInconsistent)
			s.Logger.Error(s.Logger.WithFields(ctx, map[string]any{
				"cart_line_id": line.ID,
				"product_id":   line.ProductID,
			}), "checkout.product_missing", fmt.Errorf("cart line references missing product %d", line.ProductID))
			return nil, pricing.Totals{}, pkgerrors.New(pkgerrors.CodeProductNotFound, fmt.Sprintf("product %d not found", line.ProductID))
		}
		wanted[p.ID] += line.Quantity
		if s.ReserveStock && wanted[p.ID] > p.Stock {
			s.Metrics.IncOutcome(metrics.OutcomeInsufficientStock)
			return nil, pricing.Totals{}, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("insufficient stock for %s", p.Name)).
				WithDetails(map[string]any{"product_id": p.ID, "available": p.Stock})
		}
		items = append(items, types.OrderItem{
			ProductName: p.Name,
			ProductID:   p.ID,
			Size:        line.Size,
			Quantity:    line.Quantity,
			Price:       s.Policy.ChargePrice(p.Price),
			Total:       s.Policy.LineTotal(p.Price, line.Quantity),
		})
		priced = append(priced, pricing.Line{ListPrice: p.Price, Quantity: line.Quantity})
	}
	return items, s.Policy.Totals(priced), nil
}

// freshOrderNumber returns a number not yet present in the order store.
func (s *service) freshOrderNumber(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		number, err := s.Numbers.Next()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		exists, err := s.Orders.ExistsByOrderNumber(ctx, number)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order number")
		}
		if !exists {
			return number, nil
		}
		s.Logger.Warn(s.Logger.WithField(ctx, "attempt", attempt), "checkout.order_number_collision")
	}
	return "", pkgerrors.New(pkgerrors.CodeDuplicateOrderNumber, "could not allocate a unique order number")
}

func (s *service) charge(ctx context.Context, req payments.ChargeRequest) (*payments.ChargeResult, error) {
	start := time.Now()
	res, err := s.Gateway.Charge(ctx, req)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		s.Metrics.ObserveGateway(string(res.Status), elapsed)
		return res, nil
	case errors.Is(err, payments.ErrDeclined):
		s.Metrics.ObserveGateway("declined", elapsed)
		s.Metrics.IncOutcome(metrics.OutcomeDeclined)
		s.Logger.Warn(s.Logger.WithField(ctx, "error", err.Error()), "checkout.payment_declined")
		msg := payments.UserMessage(err)
		if msg == "" {
			msg = "card declined"
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentDeclined, err, "Your card was declined: "+msg)
	case errors.Is(err, payments.ErrAmbiguous):
		s.Metrics.ObserveGateway("ambiguous", elapsed)
		s.Metrics.IncOutcome(metrics.OutcomeAmbiguous)
		s.Logger.Error(ctx, "checkout.payment_ambiguous", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentAmbiguous, err, "payment outcome unknown")
	default:
		s.Metrics.ObserveGateway("error", elapsed)
		s.Metrics.IncOutcome(metrics.OutcomeGatewayError)
		s.Logger.Error(ctx, "checkout.payment_gateway_error", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, "payment gateway error")
	}
}

// orderStatusFor trusts only the gateway's authoritative status.
func (s *service) orderStatusFor(ctx context.Context, charge *payments.ChargeResult) (enums.PaymentStatus, error) {
	switch {
	case charge.Status == payments.StatusSucceeded:
		return enums.PaymentStatusSucceeded, nil
	case charge.Status == payments.StatusDeferred && !s.Gateway.RequiresPaymentMethod():
		return enums.PaymentStatusPending, nil
	}
	s.Metrics.IncOutcome(metrics.OutcomeDeclined)
	s.Logger.Warn(s.Logger.WithFields(ctx, map[string]any{
		"payment_reference": charge.Reference,
		"gateway_status":    string(charge.Status),
	}), "checkout.payment_not_succeeded")
	return "", pkgerrors.New(pkgerrors.CodePaymentDeclined, fmt.Sprintf("Payment was not successful. Status: %s", charge.Status))
}

// commit writes the order, decrements stock and consumes the charged cart lines
// in one transaction. The order insert runs under a savepoint so a number
// collision can be retried without aborting the surrounding transaction.
func (s *service) commit(ctx context.Context, order *models.Order, session string, lines []models.CartLine) error {
	return s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		for attempt := 1; ; attempt++ {
			err := tx.Transaction(func(sp *gorm.DB) error {
				return s.Orders.WithTx(sp).Create(ctx, order)
			})
			if err == nil {
				break
			}
			if !pkgerrors.Is(err, pkgerrors.CodeDuplicateOrderNumber) || attempt >= maxOrderNumberAttempts {
				return err
			}
			next, genErr := s.Numbers.Next()
			if genErr != nil {
				return genErr
			}
			s.Logger.Warn(s.Logger.WithFields(ctx, map[string]any{"attempt": attempt, "next_order_number": next}), "checkout.order_number_retry")
			order.ID = 0
			order.OrderNumber = next
		}

		if s.ReserveStock {
			if err := s.decrementStock(ctx, tx, lines); err != nil {
				return err
			}
		}

		return s.Cart.WithTx(tx).Consume(ctx, session, lines)
	})
}

// decrementStock never fails a paid order for stock that ran short after the
// pre-charge check; it clamps at zero and flags the oversell.
func (s *service) decrementStock(ctx context.Context, tx *gorm.DB, lines []models.CartLine) error {
	wanted := map[uint]int{}
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		if _, seen := wanted[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		wanted[line.ProductID] += line.Quantity
	}

	products := s.Products.WithTx(tx)
	current, err := products.LockForCheckout(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		qty := wanted[id]
		ok, err := products.DecrementStock(ctx, id, qty)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		available := 0
		if p := current[id]; p != nil {
			available = p.Stock
		}
		s.Logger.Warn(s.Logger.WithFields(ctx, map[string]any{
			"product_id": id,
			"requested":  qty,
			"available":  available,
		}), "checkout.stock_short")
		if available > 0 {
			if _, err := products.DecrementStock(ctx, id, available); err != nil {
				return err
			}
		}
	}
	return nil
}

func successMessage(status enums.PaymentStatus) string {
	if status == enums.PaymentStatusPending {
		return "Order received. Payment will be collected separately."
	}
	return "Payment successful!"
}
