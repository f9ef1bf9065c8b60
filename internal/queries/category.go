package queries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/logger"
	"storefront/internal/types"
)

type CategoryReadModel struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parent_id"`
}

type CategoryQueries interface {
	ListAll(ctx context.Context) ([]CategoryReadModel, error)
}

type categoryQueries struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryQueries(db *gorm.DB, baseLog *logger.Logger) CategoryQueries {
	return &categoryQueries{db: db, log: baseLog.With("queries", "CategoryQueries")}
}

func (cq *categoryQueries) ListAll(ctx context.Context) ([]CategoryReadModel, error) {
	var items []CategoryReadModel
	if err := cq.db.WithContext(ctx).
		Model(&types.Category{}).
		Select("id, name, slug, parent_id").
		Order("name ASC").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
