package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository persists orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)
	ApplyPaymentStatus(ctx context.Context, reference string, status enums.PaymentStatus) (bool, error)
}
