package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// OrderDTO is the confirmation payload. The payment reference stays internal.
type OrderDTO struct {
	OrderNumber   string              `json:"order_number"`
	Email         string              `json:"email"`
	FirstName     string              `json:"first_name"`
	LastName      string              `json:"last_name"`
	Address       string              `json:"address"`
	City          string              `json:"city"`
	State         string              `json:"state"`
	ZipCode       string              `json:"zip_code"`
	Country       string              `json:"country"`
	Items         types.OrderItems    `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Shipping      decimal.Decimal     `json:"shipping"`
	Total         decimal.Decimal     `json:"total"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time           `json:"created_at"`
}

func toDTO(o *models.Order) *OrderDTO {
	return &OrderDTO{
		OrderNumber:   o.OrderNumber,
		Email:         o.Email,
		FirstName:     o.FirstName,
		LastName:      o.LastName,
		Address:       o.Address,
		City:          o.City,
		State:         o.State,
		ZipCode:       o.ZipCode,
		Country:       o.Country,
		Items:         o.Items,
		Subtotal:      o.Subtotal,
		Shipping:      o.Shipping,
		Total:         o.Total,
		PaymentStatus: o.PaymentStatus,
		CreatedAt:     o.CreatedAt,
	}
}
