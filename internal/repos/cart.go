package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/logger"
	"storefront/internal/types"
)

type CartRepo interface {
	Create(ctx context.Context, tx *gorm.DB, cart *types.Cart) (*types.Cart, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Cart, error)
	UpsertItem(ctx context.Context, tx *gorm.DB, item *types.CartItem) error
	DeleteItem(ctx context.Context, tx *gorm.DB, cartID, itemID uuid.UUID) error
	ClearItems(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type cartRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartRepo(db *gorm.DB, baseLog *logger.Logger) CartRepo {
	return &cartRepo{db: db, log: baseLog.With("repo", "CartRepo")}
}

func (cr *cartRepo) Create(ctx context.Context, tx *gorm.DB, cart *types.Cart) (*types.Cart, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// GetByUserID loads the cart with its items. Returns types.ErrNotFound
// when the user has no cart yet.
func (cr *cartRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Cart, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var cart types.Cart
	err := transaction.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpsertItem accumulates quantity when the product is already in the
// cart, otherwise inserts the row.
func (cr *cartRepo) UpsertItem(ctx context.Context, tx *gorm.DB, item *types.CartItem) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.CartItem{}).
		Where("cart_id = ? AND product_id = ?", item.CartID, item.ProductID).
		Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	return transaction.WithContext(ctx).Create(item).Error
}

func (cr *cartRepo) DeleteItem(ctx context.Context, tx *gorm.DB, cartID, itemID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cartID, itemID).
		Delete(&types.CartItem{}).Error
}

func (cr *cartRepo) ClearItems(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&types.CartItem{}).Error
}
