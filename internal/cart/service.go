package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// LineStore is the persistence surface the cart service needs.
type LineStore interface {
	List(ctx context.Context, session string) ([]models.CartLine, error)
	Upsert(ctx context.Context, session string, productID uint, size string) (*models.CartLine, error)
	SetQuantity(ctx context.Context, lineID uint, session string, qty int) error
	Remove(ctx context.Context, lineID uint, session string) error
	Count(ctx context.Context, session string) (int64, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
}

// Service manages a session's cart. Every call takes the session token explicitly.
type Service interface {
	Add(ctx context.Context, session string, productID uint, size string) (*Mutation, error)
	Remove(ctx context.Context, session string, lineID uint) (*Mutation, error)
	UpdateQuantity(ctx context.Context, session string, lineID uint, qty int) (*Mutation, error)
	List(ctx context.Context, session string) (*View, error)
	Count(ctx context.Context, session string) (int64, error)
}

type service struct {
	lines    LineStore
	products productLoader
	policy   pricing.Policy
}

// NewService builds the cart service.
func NewService(lines LineStore, products productLoader, policy pricing.Policy) (Service, error) {
	if lines == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{lines: lines, products: products, policy: policy}, nil
}

func (s *service) Add(ctx context.Context, session string, productID uint, size string) (*Mutation, error) {
	size = strings.TrimSpace(size)
	if productID == 0 || size == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing product or size")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, err
	}
	if !product.HasSize(size) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid size").
			WithDetails(map[string]any{"field": "size", "allowed": []string(product.Sizes)})
	}
	if _, err := s.lines.Upsert(ctx, session, productID, size); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart line")
	}
	return s.mutation(ctx, session, "Item added to cart")
}

func (s *service) Remove(ctx context.Context, session string, lineID uint) (*Mutation, error) {
	if err := s.lines.Remove(ctx, lineID, session); err != nil {
		return nil, passThrough(err, "remove cart line")
	}
	return s.mutation(ctx, session, "Item removed from cart")
}

func (s *service) UpdateQuantity(ctx context.Context, session string, lineID uint, qty int) (*Mutation, error) {
	if err := s.lines.SetQuantity(ctx, lineID, session, qty); err != nil {
		return nil, passThrough(err, "update cart line")
	}
	return s.mutation(ctx, session, "Cart updated")
}

func (s *service) List(ctx context.Context, session string) (*View, error) {
	lines, err := s.lines.List(ctx, session)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	return BuildView(lines, s.policy), nil
}

func (s *service) Count(ctx context.Context, session string) (int64, error) {
	count, err := s.lines.Count(ctx, session)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart")
	}
	return count, nil
}

func (s *service) mutation(ctx context.Context, session, message string) (*Mutation, error) {
	count, err := s.Count(ctx, session)
	if err != nil {
		return nil, err
	}
	return &Mutation{Message: message, CartCount: count}, nil
}

// BuildView prices lines through policy. Lines whose product failed to load are skipped.
func BuildView(lines []models.CartLine, policy pricing.Policy) *View {
	items := make([]LineDTO, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		items = append(items, LineDTO{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: line.Product.Name,
			Image:       line.Product.MainImage(),
			Size:        line.Size,
			Quantity:    line.Quantity,
			ListPrice:   line.Product.Price,
			UnitPrice:   policy.ChargePrice(line.Product.Price),
			Total:       policy.LineTotal(line.Product.Price, line.Quantity),
		})
		priced = append(priced, pricing.Line{ListPrice: line.Product.Price, Quantity: line.Quantity})
	}
	totals := policy.Totals(priced)
	return &View{
		Items:    items,
		Subtotal: totals.Subtotal,
		Shipping: totals.Shipping,
		Total:    totals.Total,
		Count:    len(items),
	}
}

func passThrough(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
