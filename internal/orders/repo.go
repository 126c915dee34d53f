package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const orderNumberIndex = "idx_orders_order_number"

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order. A collision on the order number surfaces as
// DUPLICATE_ORDER_NUMBER so the caller can regenerate and retry.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if strings.TrimSpace(order.Country) == "" {
		order.Country = models.DefaultCountry
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = enums.PaymentStatusPending
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, orderNumberIndex) {
			return pkgerrors.Wrap(pkgerrors.CodeDuplicateOrderNumber, err, "order number already used")
		}
		return err
	}
	return nil
}

func (r *repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("order_number = ?", orderNumber).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	return count > 0, err
}

// ApplyPaymentStatus moves the order charged under reference to status when the
// transition is allowed. Repeats, downgrades and unknown references are no-ops
// and report false.
func (r *repository) ApplyPaymentStatus(ctx context.Context, reference string, status enums.PaymentStatus) (bool, error) {
	if strings.TrimSpace(reference) == "" {
		return false, nil
	}
	from := predecessors(status)
	if len(from) == 0 {
		return false, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_reference = ? AND payment_status IN ?", reference, from).
		Updates(map[string]any{
			"payment_status": status,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func predecessors(next enums.PaymentStatus) []enums.PaymentStatus {
	candidates := []enums.PaymentStatus{
		enums.PaymentStatusPending,
		enums.PaymentStatusSucceeded,
		enums.PaymentStatusFailed,
	}
	out := make([]enums.PaymentStatus, 0, len(candidates))
	for _, c := range candidates {
		if c.CanTransitionTo(next) {
			out = append(out, c)
		}
	}
	return out
}
