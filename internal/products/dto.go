package product

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductDTO is the catalog payload returned to buyers. SalePrice is the charge price.
type ProductDTO struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	Description string          `json:"description"`
	Images      []string        `json:"images"`
	MainImage   string          `json:"main_image"`
	Sizes       []string        `json:"sizes"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FromModel maps a product row to its buyer-facing DTO.
func FromModel(p *models.Product, policy pricing.Policy) ProductDTO {
	images := append([]string{}, p.Images...)
	sizes := append([]string{}, p.Sizes...)
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price,
		SalePrice:   policy.ChargePrice(p.Price),
		Description: p.Description,
		Images:      images,
		MainImage:   p.MainImage(),
		Sizes:       sizes,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}
