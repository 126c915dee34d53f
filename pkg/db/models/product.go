package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a catalog listing. Price is the list price; the charge price is
// derived by the pricing policy and never stored.
type Product struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;size:100;not null"`
	Category    string          `gorm:"column:category;size:50;not null;index"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null"`
	Description string          `gorm:"column:description;type:text;not null;default:''"`
	Images      pq.StringArray  `gorm:"column:images;type:text"`
	Sizes       pq.StringArray  `gorm:"column:sizes;type:text"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// HasSize reports whether size is one of the product's offered sizes.
func (p *Product) HasSize(size string) bool {
	for _, candidate := range p.Sizes {
		if candidate == size {
			return true
		}
	}
	return false
}

// MainImage returns the first image or the storefront placeholder.
func (p *Product) MainImage() string {
	if len(p.Images) == 0 {
		return "placeholder.jpg"
	}
	return p.Images[0]
}
