package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderItem is the immutable snapshot of a cart line captured at checkout.
type OrderItem struct {
	ProductName string          `json:"product_name"`
	ProductID   uint            `json:"product_id"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// OrderItems stores the snapshot list as a JSON document.
type OrderItems []OrderItem

// Value serializes the snapshot to JSON text.
func (o OrderItems) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]OrderItem(o))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes the JSON snapshot.
func (o *OrderItems) Scan(value interface{}) error {
	if value == nil {
		*o = OrderItems{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded []OrderItem
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode order items: %w", err)
	}
	*o = decoded
	return nil
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
