package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Product prices are stored as integer cents. Stock must never go
// negative; decrements happen through conditional updates in the repo.
type Product struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"not null;column:name" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	PriceCents  int64          `gorm:"not null;column:price_cents" json:"price_cents"`
	Stock       int            `gorm:"not null;default:0;column:stock" json:"stock"`
	CategoryID  uuid.UUID      `gorm:"type:uuid;index;not null;column:category_id" json:"category_id"`
	Category    *Category      `gorm:"foreignKey:CategoryID;references:ID" json:"-"`
	Attributes  datatypes.JSON `gorm:"column:attributes" json:"attributes,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}
