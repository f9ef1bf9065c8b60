package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"storefront/internal/logger"
	"storefront/internal/repos"
	"storefront/internal/types"
	"storefront/internal/uow"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID) (*types.Order, error)
	PayOrder(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error)
	ShipOrder(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error)
	DeliverOrder(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error)
}

type orderService struct {
	db          *gorm.DB
	log         *logger.Logger
	unit        uow.UnitOfWork
	orderRepo   repos.OrderRepo
	cartRepo    repos.CartRepo
	productRepo repos.ProductRepo
	tracer      trace.Tracer
}

func NewOrderService(
	db *gorm.DB,
	log *logger.Logger,
	unit uow.UnitOfWork,
	orderRepo repos.OrderRepo,
	cartRepo repos.CartRepo,
	productRepo repos.ProductRepo,
) OrderService {
	return &orderService{
		db:          db,
		log:         log.With("service", "OrderService"),
		unit:        unit,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		tracer:      otel.Tracer("storefront/services/order"),
	}
}

// PlaceOrder converts the user's cart into an order inside a single
// transaction: every line either reserves its stock or the whole
// placement rolls back. Unit prices are snapshotted onto the order items
// and the cart is emptied on success.
func (os *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID) (*types.Order, error) {
	ctx, span := os.tracer.Start(ctx, "PlaceOrder",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	var order *types.Order
	err := os.unit.Do(ctx, func(tx *gorm.DB) error {
		cart, err := os.cartRepo.GetByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return types.ErrCartEmpty
		}

		productIDs := make([]uuid.UUID, 0, len(cart.Items))
		for _, item := range cart.Items {
			productIDs = append(productIDs, item.ProductID)
		}
		products, err := os.productRepo.GetByIDs(ctx, tx, productIDs)
		if err != nil {
			return fmt.Errorf("failed to load cart products: %w", err)
		}
		priceByProduct := make(map[uuid.UUID]int64, len(products))
		for _, p := range products {
			priceByProduct[p.ID] = p.PriceCents
		}

		for _, item := range cart.Items {
			if _, ok := priceByProduct[item.ProductID]; !ok {
				return types.ErrNotFound
			}
			ok, err := os.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			if !ok {
				available, err := os.productRepo.GetStock(ctx, tx, item.ProductID)
				if err != nil {
					return fmt.Errorf("failed to read stock: %w", err)
				}
				return &types.InsufficientStockError{
					ProductID: item.ProductID,
					Requested: item.Quantity,
					Available: available,
				}
			}
		}

		order = types.NewOrderFromCart(userID, cart.Items, priceByProduct)
		if _, err := os.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := os.cartRepo.ClearItems(ctx, tx, cart.ID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order_id", order.ID.String()),
		attribute.Int64("total_cents", order.TotalCents),
	)
	os.log.Info("Order placed", "order_id", order.ID, "user_id", userID, "total_cents", order.TotalCents)
	return order, nil
}

func (os *orderService) PayOrder(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error) {
	return os.transition(ctx, userID, orderID, (*types.Order).MarkPaid)
}

func (os *orderService) ShipOrder(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error) {
	return os.transition(ctx, userID, orderID, (*types.Order).MarkShipped)
}

func (os *orderService) DeliverOrder(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error) {
	return os.transition(ctx, userID, orderID, (*types.Order).MarkDelivered)
}

// CancelOrder also returns the reserved units to stock, in the same
// transaction as the status change.
func (os *orderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error) {
	var order *types.Order
	err := os.unit.Do(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = os.loadOwned(ctx, tx, userID, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := os.productRepo.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("failed to restock product: %w", err)
			}
		}
		return os.orderRepo.UpdateStatus(ctx, tx, order.ID, order.Status)
	})
	if err != nil {
		return nil, err
	}
	os.log.Info("Order cancelled", "order_id", order.ID, "user_id", userID)
	return order, nil
}

func (os *orderService) transition(ctx context.Context, userID, orderID uuid.UUID, apply func(*types.Order) error) (*types.Order, error) {
	var order *types.Order
	err := os.unit.Do(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = os.loadOwned(ctx, tx, userID, orderID)
		if err != nil {
			return err
		}
		if err := apply(order); err != nil {
			return err
		}
		return os.orderRepo.UpdateStatus(ctx, tx, order.ID, order.Status)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// loadOwned treats another user's order as not found rather than
// forbidden, so order IDs can't be probed.
func (os *orderService) loadOwned(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID) (*types.Order, error) {
	order, err := os.orderRepo.GetByID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, types.ErrNotFound
	}
	return order, nil
}
