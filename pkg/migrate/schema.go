package migrate

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Models lists every table owned by the storefront, in dependency order.
func Models() []any {
	return []any{
		&models.Product{},
		&models.CartLine{},
		&models.Order{},
	}
}

// AutoMigrate creates the storefront tables and their unique indexes with GORM.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
