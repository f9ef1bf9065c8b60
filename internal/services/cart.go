package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/logger"
	"storefront/internal/repos"
	"storefront/internal/types"
	"storefront/internal/uow"
)

type CartService interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
}

type cartService struct {
	db          *gorm.DB
	log         *logger.Logger
	unit        uow.UnitOfWork
	cartRepo    repos.CartRepo
	productRepo repos.ProductRepo
}

func NewCartService(
	db *gorm.DB,
	log *logger.Logger,
	unit uow.UnitOfWork,
	cartRepo repos.CartRepo,
	productRepo repos.ProductRepo,
) CartService {
	return &cartService{
		db:          db,
		log:         log.With("service", "CartService"),
		unit:        unit,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// AddItem creates the user's cart on first use. Adding a product that is
// already in the cart accumulates the quantity.
func (cs *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return types.ErrInvalidQuantity
	}
	return cs.unit.Do(ctx, func(tx *gorm.DB) error {
		products, err := cs.productRepo.GetByIDs(ctx, tx, []uuid.UUID{productID})
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
		if len(products) == 0 {
			return types.ErrNotFound
		}

		cart, err := cs.cartRepo.GetByUserID(ctx, tx, userID)
		if errors.Is(err, types.ErrNotFound) {
			cart, err = cs.cartRepo.Create(ctx, tx, &types.Cart{ID: uuid.New(), UserID: userID})
		}
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}

		item := &types.CartItem{
			ID:        uuid.New(),
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
		}
		if err := cs.cartRepo.UpsertItem(ctx, tx, item); err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}
		return nil
	})
}

func (cs *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return cs.unit.Do(ctx, func(tx *gorm.DB) error {
		cart, err := cs.cartRepo.GetByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		return cs.cartRepo.DeleteItem(ctx, tx, cart.ID, itemID)
	})
}
