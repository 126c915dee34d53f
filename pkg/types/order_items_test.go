package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderItemsScanKeepsDecimalPrecision(t *testing.T) {
	items := OrderItems{{
		ProductName: "Equali-Tee",
		ProductID:   1,
		Size:        "M",
		Quantity:    2,
		Price:       decimal.RequireFromString("20.00"),
		Total:       decimal.RequireFromString("40.00"),
	}}
	raw, err := items.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded OrderItems
	if err := decoded.Scan([]byte(raw.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(decoded) != 1 || !decoded[0].Total.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("unexpected decoded snapshot %+v", decoded)
	}
}

func TestOrderItemsScanRejectsUnknownTypes(t *testing.T) {
	var decoded OrderItems
	if err := decoded.Scan(42); err == nil {
		t.Fatal("expected integer scan to fail")
	}
	if err := decoded.Scan(nil); err != nil || len(decoded) != 0 {
		t.Fatalf("nil scan should yield empty snapshot, got %v %v", decoded, err)
	}
}
