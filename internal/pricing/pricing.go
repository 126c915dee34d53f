package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

var hundred = decimal.NewFromInt(100)

// Policy is the storefront markdown and shipping policy. Every buyer-facing
// price and every charge amount goes through the same Policy so display and
// charge never drift.
type Policy struct {
	DiscountFactor decimal.Decimal
	ShippingFee    decimal.Decimal
	Currency       string
}

// Line is the pricing input for a single cart line.
type Line struct {
	ListPrice decimal.Decimal
	Quantity  int
}

// Totals is the aggregate for a set of lines.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// DefaultPolicy returns the observed storefront policy: a 60% markdown and free shipping.
func DefaultPolicy() Policy {
	return Policy{
		DiscountFactor: decimal.RequireFromString("0.40"),
		ShippingFee:    decimal.Zero,
		Currency:       "usd",
	}
}

// NewPolicy builds a policy from configuration.
func NewPolicy(cfg config.PricingConfig) (Policy, error) {
	factor := cfg.Factor()
	if !factor.IsPositive() {
		return Policy{}, fmt.Errorf("discount factor must be positive")
	}
	shipping := cfg.Shipping()
	if shipping.IsNegative() {
		return Policy{}, fmt.Errorf("shipping fee must not be negative")
	}
	return Policy{
		DiscountFactor: factor,
		ShippingFee:    shipping,
		Currency:       cfg.Currency,
	}, nil
}

// ChargePrice derives the billed unit price from a list price, rounded half up to cents.
func (p Policy) ChargePrice(list decimal.Decimal) decimal.Decimal {
	return list.Mul(p.DiscountFactor).Round(2)
}

// LineTotal is the charge price times quantity.
func (p Policy) LineTotal(list decimal.Decimal, qty int) decimal.Decimal {
	return p.ChargePrice(list).Mul(decimal.NewFromInt(int64(qty)))
}

// Totals sums line totals at charge price and adds the flat shipping fee.
func (p Policy) Totals(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(p.LineTotal(line.ListPrice, line.Quantity))
	}
	return Totals{
		Subtotal: subtotal,
		Shipping: p.ShippingFee,
		Total:    subtotal.Add(p.ShippingFee),
	}
}

// MinorUnits converts an amount to integer minor currency units (cents).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
