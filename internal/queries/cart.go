package queries

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/logger"
	"storefront/internal/types"
)

type CartItemReadModel struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name"`
	UnitPriceCents  int64     `json:"unit_price_cents"`
	Quantity        int       `json:"quantity"`
	TotalPriceCents int64     `json:"total_price_cents"`
}

type CartReadModel struct {
	ID         uuid.UUID           `json:"id"`
	UserID     uuid.UUID           `json:"user_id"`
	Items      []CartItemReadModel `json:"items"`
	TotalCents int64               `json:"total_cents"`
}

type CartQueries interface {
	GetForUser(ctx context.Context, userID uuid.UUID) (*CartReadModel, error)
}

type cartQueries struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartQueries(db *gorm.DB, baseLog *logger.Logger) CartQueries {
	return &cartQueries{db: db, log: baseLog.With("queries", "CartQueries")}
}

// GetForUser returns the cart view with current product prices (carts
// have no price snapshot; only orders do).
func (cq *cartQueries) GetForUser(ctx context.Context, userID uuid.UUID) (*CartReadModel, error) {
	var cart types.Cart
	err := cq.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var items []CartItemReadModel
	if err := cq.db.WithContext(ctx).
		Model(&types.CartItem{}).
		Select(`"cart_item".id, "cart_item".product_id, "product".name AS product_name, "product".price_cents AS unit_price_cents, "cart_item".quantity`).
		Joins(`JOIN "product" ON "product".id = "cart_item".product_id`).
		Where(`"cart_item".cart_id = ?`, cart.ID).
		Order(`"cart_item".created_at ASC`).
		Scan(&items).Error; err != nil {
		return nil, err
	}

	view := &CartReadModel{ID: cart.ID, UserID: cart.UserID, Items: items}
	for i := range view.Items {
		view.Items[i].TotalPriceCents = view.Items[i].UnitPriceCents * int64(view.Items[i].Quantity)
		view.TotalCents += view.Items[i].TotalPriceCents
	}
	return view, nil
}
