package cart

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository persists session-scoped cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// List returns the session's lines with their products, oldest first.
func (r *Repository) List(ctx context.Context, session string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("session_token = ?", session).
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Upsert adds one unit of (product, size) to the session cart. An existing line
// is incremented in place so concurrent adds never produce duplicate rows.
func (r *Repository) Upsert(ctx context.Context, session string, productID uint, size string) (*models.CartLine, error) {
	line := models.CartLine{
		SessionToken: session,
		ProductID:    productID,
		Size:         size,
		Quantity:     1,
	}
	err := r.db.WithContext(ctx).
		Omit("Product").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_token"}, {Name: "product_id"}, {Name: "size"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_lines.quantity + 1"),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&line).Error
	if err != nil {
		return nil, err
	}

	var stored models.CartLine
	err = r.db.WithContext(ctx).
		Where("session_token = ? AND product_id = ? AND size = ?", session, productID, size).
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// SetQuantity overwrites a line's quantity. A quantity of zero or less deletes the line.
func (r *Repository) SetQuantity(ctx context.Context, lineID uint, session string, qty int) error {
	if qty <= 0 {
		return r.Remove(ctx, lineID, session)
	}
	res := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ? AND session_token = ?", lineID, session).
		Updates(map[string]any{"quantity": qty, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Item not found")
	}
	return nil
}

// Remove deletes a line owned by session.
func (r *Repository) Remove(ctx context.Context, lineID uint, session string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND session_token = ?", lineID, session).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Item not found")
	}
	return nil
}

// Consume removes the quantities a checkout charged for. Each snapshot line is
// deleted when its stored quantity is fully covered, otherwise only the charged
// quantity is subtracted. Lines added or incremented after the snapshot survive.
func (r *Repository) Consume(ctx context.Context, session string, charged []models.CartLine) error {
	for _, line := range charged {
		res := r.db.WithContext(ctx).
			Where("id = ? AND session_token = ? AND quantity <= ?", line.ID, session, line.Quantity).
			Delete(&models.CartLine{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			continue
		}
		err := r.db.WithContext(ctx).
			Model(&models.CartLine{}).
			Where("id = ? AND session_token = ? AND quantity > ?", line.ID, session, line.Quantity).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity - ?", line.Quantity),
				"updated_at": time.Now().UTC(),
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of distinct lines in the session cart.
func (r *Repository) Count(ctx context.Context, session string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("session_token = ?", session).
		Count(&count).Error
	return count, err
}

// FindLine loads a single line owned by session.
func (r *Repository) FindLine(ctx context.Context, lineID uint, session string) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("id = ? AND session_token = ?", lineID, session).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Item not found")
		}
		return nil, err
	}
	return &line, nil
}
