package product

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type catalogRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	List(ctx context.Context, category string) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	CreateMany(ctx context.Context, products []models.Product) error
}

// Service exposes the buyer-facing catalog.
type Service interface {
	Get(ctx context.Context, id uint) (*ProductDTO, error)
	List(ctx context.Context, category string) ([]ProductDTO, error)
	Seed(ctx context.Context) (int, error)
}

type service struct {
	repo   catalogRepository
	policy pricing.Policy
}

// NewService builds the catalog service.
func NewService(repo catalogRepository, policy pricing.Policy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if !policy.DiscountFactor.IsPositive() {
		return nil, fmt.Errorf("pricing policy required")
	}
	return &service{repo: repo, policy: policy}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*ProductDTO, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(p, s.policy)
	return &dto, nil
}

func (s *service) List(ctx context.Context, category string) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i], s.policy))
	}
	return out, nil
}

// Seed inserts the sample catalog when the products table is empty and reports
// how many rows were written.
func (s *service) Seed(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	catalog := SampleCatalog()
	if err := s.repo.CreateMany(ctx, catalog); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed catalog")
	}
	return len(catalog), nil
}

var standardSizes = []string{"M", "L", "XL"}

// SampleCatalog is the launch catalog: five shirts and a crewneck.
func SampleCatalog() []models.Product {
	shirt := decimal.RequireFromString("50.00")
	crew := decimal.RequireFromString("75.00")

	out := []models.Product{
		sample("Equali-Tee", "shirts", shirt, 50, "shirt-1", "Classic cotton tee with the Equalitie mark."),
		sample("Green/Beige Polo", "shirts", shirt, 50, "shirt-2", "Two-tone knit polo in green and beige."),
		sample("Black/Green Polo", "shirts", shirt, 50, "shirt-3", "Two-tone knit polo in black and green."),
		sample("Black/Beige Polo", "shirts", shirt, 50, "shirt-4", "Two-tone knit polo in black and beige."),
		sample("White/Beige Polo", "shirts", shirt, 50, "shirt-5", "Two-tone knit polo in white and beige."),
		sample("Equalitie Crewneck", "crewnecks", crew, 30, "crew-1", "Heavyweight fleece crewneck."),
	}
	return out
}

func sample(name, category string, price decimal.Decimal, stock int, image, description string) models.Product {
	return models.Product{
		Name:        name,
		Category:    category,
		Price:       price,
		Description: description,
		Images:      []string{image + ".jpg", image + "-alt.jpg"},
		Sizes:       append([]string{}, standardSizes...),
		Stock:       stock,
	}
}
