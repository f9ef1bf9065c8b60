package types

import (
	"time"

	"github.com/google/uuid"
)

// Category is a catalog node. ParentID forms a self-referencing hierarchy;
// nil means top level.
type Category struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"not null;column:name" json:"name"`
	Slug      string     `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index;column:parent_id" json:"parent_id"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Category) TableName() string {
	return "category"
}
