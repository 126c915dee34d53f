package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// DefaultCountry is stored when the buyer omits a country.
const DefaultCountry = "United States"

// Order is written once per successful checkout. Only PaymentStatus changes afterwards.
type Order struct {
	ID               uint                `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber      string              `gorm:"column:order_number;size:50;not null;uniqueIndex:idx_orders_order_number"`
	Email            string              `gorm:"column:email;size:120;not null"`
	FirstName        string              `gorm:"column:first_name;size:50;not null"`
	LastName         string              `gorm:"column:last_name;size:50;not null"`
	Address          string              `gorm:"column:address;size:200;not null"`
	City             string              `gorm:"column:city;size:100;not null"`
	State            string              `gorm:"column:state;size:50;not null"`
	ZipCode          string              `gorm:"column:zip_code;size:20;not null"`
	Country          string              `gorm:"column:country;size:50;not null;default:'United States'"`
	Items            types.OrderItems    `gorm:"column:items;type:text;not null"`
	Subtotal         decimal.Decimal     `gorm:"column:subtotal;type:decimal(10,2);not null"`
	Shipping         decimal.Decimal     `gorm:"column:shipping;type:decimal(10,2);not null"`
	Total            decimal.Decimal     `gorm:"column:total;type:decimal(10,2);not null"`
	PaymentReference *string             `gorm:"column:payment_reference;size:100;index"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;size:20;not null;default:'pending'"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
