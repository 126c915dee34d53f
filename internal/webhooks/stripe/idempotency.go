package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const deliveryScope = "stripe-webhook"

// DeliveryGuard claims Stripe event ids in Redis. Stripe redelivers until it sees
// a 2xx, so a claimed id is acknowledged without touching orders again.
type DeliveryGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewDeliveryGuard(store redis.IdempotencyStore, ttl time.Duration) (*DeliveryGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("delivery ttl must be positive")
	}
	return &DeliveryGuard{store: store, ttl: ttl}, nil
}

// Claim reports whether this delivery is the first for its event id. The stored
// value is the event type, which is all an operator needs when inspecting keys.
func (g *DeliveryGuard) Claim(ctx context.Context, event *stripe.Event) (bool, error) {
	if event == nil || event.ID == "" {
		return false, errors.New("event id is required")
	}
	claimed, err := g.store.SetNX(ctx, g.key(event.ID), string(event.Type), g.ttl)
	if err != nil {
		return false, fmt.Errorf("claim event %s: %w", event.ID, err)
	}
	return claimed, nil
}

// Release drops the claim so Stripe's next redelivery is applied.
func (g *DeliveryGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.key(eventID))
}

func (g *DeliveryGuard) key(eventID string) string {
	return g.store.IdempotencyKey(deliveryScope, eventID)
}
