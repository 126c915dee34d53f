package cart

import (
	"github.com/shopspring/decimal"
)

// LineDTO is a cart line priced at the current charge price.
type LineDTO struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Image       string          `json:"image"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	ListPrice   decimal.Decimal `json:"price"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// View is the full cart with recomputed totals.
type View struct {
	Items    []LineDTO       `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// Mutation is returned by add, update and remove.
type Mutation struct {
	Message   string `json:"message"`
	CartCount int64  `json:"cart_count"`
}
