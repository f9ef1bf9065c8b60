package queries

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/logger"
	"storefront/internal/types"
)

type OrderItemReadModel struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name"`
	Quantity        int       `json:"quantity"`
	UnitPriceCents  int64     `json:"unit_price_cents"`
	TotalPriceCents int64     `json:"total_price_cents"`
}

type OrderReadModel struct {
	ID         uuid.UUID            `json:"id"`
	UserID     uuid.UUID            `json:"user_id"`
	Items      []OrderItemReadModel `json:"items"`
	TotalCents int64                `json:"total_cents"`
	Status     types.OrderStatus    `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
}

type OrderPage struct {
	Items      []OrderReadModel `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

type OrderQueries interface {
	ListForUser(ctx context.Context, userID uuid.UUID, p Pagination) (*OrderPage, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderReadModel, error)
}

type orderQueries struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderQueries(db *gorm.DB, baseLog *logger.Logger) OrderQueries {
	return &orderQueries{db: db, log: baseLog.With("queries", "OrderQueries")}
}

func (oq *orderQueries) ListForUser(ctx context.Context, userID uuid.UUID, p Pagination) (*OrderPage, error) {
	p = p.Clamped()

	var total int64
	if err := oq.db.WithContext(ctx).
		Model(&types.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var orders []types.Order
	if err := oq.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(p.Offset()).
		Limit(p.Limit()).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	items := make([]OrderReadModel, 0, len(orders))
	for _, o := range orders {
		view, err := oq.readModel(ctx, &o)
		if err != nil {
			return nil, err
		}
		items = append(items, *view)
	}

	return &OrderPage{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages(total, p.PageSize),
	}, nil
}

func (oq *orderQueries) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderReadModel, error) {
	var order types.Order
	err := oq.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return oq.readModel(ctx, &order)
}

func (oq *orderQueries) readModel(ctx context.Context, order *types.Order) (*OrderReadModel, error) {
	var items []OrderItemReadModel
	if err := oq.db.WithContext(ctx).
		Model(&types.OrderItem{}).
		Select(`"order_item".id, "order_item".product_id, "product".name AS product_name, "order_item".quantity, "order_item".unit_price_cents`).
		Joins(`JOIN "product" ON "product".id = "order_item".product_id`).
		Where(`"order_item".order_id = ?`, order.ID).
		Scan(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		items[i].TotalPriceCents = items[i].UnitPriceCents * int64(items[i].Quantity)
	}
	return &OrderReadModel{
		ID:         order.ID,
		UserID:     order.UserID,
		Items:      items,
		TotalCents: order.TotalCents,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
	}, nil
}
