package queries

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/logger"
	"storefront/internal/types"
)

// ProductReadModel is the flattened read-side view of a product joined
// with its category name.
type ProductReadModel struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceCents   int64     `json:"price_cents"`
	Stock        int       `json:"stock"`
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type ProductPage struct {
	Items      []ProductReadModel `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

type ProductQueries interface {
	List(ctx context.Context, p Pagination, categoryID *uuid.UUID) (*ProductPage, error)
	Search(ctx context.Context, query string, p Pagination) (*ProductPage, error)
	Get(ctx context.Context, productID uuid.UUID) (*ProductReadModel, error)
}

type productQueries struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductQueries(db *gorm.DB, baseLog *logger.Logger) ProductQueries {
	return &productQueries{db: db, log: baseLog.With("queries", "ProductQueries")}
}

const productSelect = `"product".id, "product".name, "product".description, "product".price_cents, "product".stock, "product".category_id, "category".name AS category_name, "product".created_at`

func (pq *productQueries) base(ctx context.Context) *gorm.DB {
	return pq.db.WithContext(ctx).
		Model(&types.Product{}).
		Select(productSelect).
		Joins(`JOIN "category" ON "category".id = "product".category_id`)
}

func (pq *productQueries) List(ctx context.Context, p Pagination, categoryID *uuid.UUID) (*ProductPage, error) {
	p = p.Clamped()

	countQ := pq.db.WithContext(ctx).Model(&types.Product{})
	if categoryID != nil {
		countQ = countQ.Where("category_id = ?", *categoryID)
	}
	var total int64
	if err := countQ.Count(&total).Error; err != nil {
		return nil, err
	}

	q := pq.base(ctx)
	if categoryID != nil {
		q = q.Where(`"product".category_id = ?`, *categoryID)
	}

	var items []ProductReadModel
	if err := q.
		Order(`"product".created_at DESC`).
		Offset(p.Offset()).
		Limit(p.Limit()).
		Scan(&items).Error; err != nil {
		return nil, err
	}

	return &ProductPage{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages(total, p.PageSize),
	}, nil
}

// Search uses postgres full-text search ranked by ts_rank. On other
// dialects (sqlite in tests) it degrades to a LIKE match ordered by
// recency, so the query service stays usable without the tsvector column.
func (pq *productQueries) Search(ctx context.Context, query string, p Pagination) (*ProductPage, error) {
	p = p.Clamped()

	countQ := pq.db.WithContext(ctx).Model(&types.Product{})
	q := pq.base(ctx)

	if pq.db.Dialector.Name() == "postgres" {
		countQ = countQ.Where(`search_vector @@ plainto_tsquery('english', ?)`, query)
		q = q.Where(`"product".search_vector @@ plainto_tsquery('english', ?)`, query).
			Clauses(clause.OrderBy{Expression: clause.Expr{
				SQL:                `ts_rank("product".search_vector, plainto_tsquery('english', ?)) DESC`,
				Vars:               []interface{}{query},
				WithoutParentheses: true,
			}})
	} else {
		like := "%" + query + "%"
		countQ = countQ.Where("name LIKE ? OR description LIKE ?", like, like)
		q = q.Where(`"product".name LIKE ? OR "product".description LIKE ?`, like, like).
			Order(`"product".created_at DESC`)
	}

	var total int64
	if err := countQ.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []ProductReadModel
	if err := q.
		Offset(p.Offset()).
		Limit(p.Limit()).
		Scan(&items).Error; err != nil {
		return nil, err
	}

	return &ProductPage{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages(total, p.PageSize),
	}, nil
}

func (pq *productQueries) Get(ctx context.Context, productID uuid.UUID) (*ProductReadModel, error) {
	var item ProductReadModel
	err := pq.base(ctx).
		Where(`"product".id = ?`, productID).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
