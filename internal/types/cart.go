package types

import (
	"time"

	"github.com/google/uuid"
)

// Cart holds at most one row per user. Items are cleared when an order is
// placed from the cart.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"uniqueIndex;not null" json:"user_id"`
	User      *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Items     []CartItem `gorm:"foreignKey:CartID;references:ID" json:"items"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Cart) TableName() string {
	return "cart"
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CartID    uuid.UUID `gorm:"type:uuid;index:idx_cart_product,unique;not null" json:"cart_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index:idx_cart_product,unique;not null" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID;references:ID" json:"-"`
	Quantity  int       `gorm:"not null;column:quantity" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_item"
}
