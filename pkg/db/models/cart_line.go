package models

import "time"

// CartLine is one (session, product, size) entry in a buyer's cart.
type CartLine struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	SessionToken string    `gorm:"column:session_token;size:100;not null;uniqueIndex:idx_cart_lines_session_product_size,priority:1"`
	ProductID    uint      `gorm:"column:product_id;not null;uniqueIndex:idx_cart_lines_session_product_size,priority:2"`
	Size         string    `gorm:"column:size;size:10;not null;uniqueIndex:idx_cart_lines_session_product_size,priority:3"`
	Quantity     int       `gorm:"column:quantity;not null;default:1"`
	Product      *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
