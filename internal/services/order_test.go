package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/repos"
	"storefront/internal/testutil"
	"storefront/internal/types"
	"storefront/internal/uow"
)

type orderFixture struct {
	db       *gorm.DB
	svc      OrderService
	products repos.ProductRepo
	carts    repos.CartRepo
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	gdb := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	unit := uow.New(gdb, log)
	orderRepo := repos.NewOrderRepo(gdb, log)
	cartRepo := repos.NewCartRepo(gdb, log)
	productRepo := repos.NewProductRepo(gdb, log)
	return &orderFixture{
		db:       gdb,
		svc:      NewOrderService(gdb, log, unit, orderRepo, cartRepo, productRepo),
		products: productRepo,
		carts:    cartRepo,
	}
}

func TestPlaceOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, f.db, "buyer@example.com")
	category := testutil.SeedCategory(t, f.db, "Shoes", "shoes")
	product := testutil.SeedProduct(t, f.db, category.ID, "Boots", 1999, 5)
	cart := testutil.SeedCart(t, f.db, user.ID)
	testutil.SeedCartItem(t, f.db, cart.ID, product.ID, 2)

	order, err := f.svc.PlaceOrder(ctx, user.ID)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Status != types.OrderStatusPending {
		t.Errorf("status = %s, want pending", order.Status)
	}
	if order.TotalCents != 3998 {
		t.Errorf("total = %d, want 3998", order.TotalCents)
	}
	if len(order.Items) != 1 || order.Items[0].UnitPriceCents != 1999 {
		t.Errorf("items = %+v, want one line at 1999", order.Items)
	}

	stock, err := f.products.GetStock(ctx, nil, product.ID)
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if stock != 3 {
		t.Errorf("stock = %d, want 3", stock)
	}

	reloaded, err := f.carts.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(reloaded.Items) != 0 {
		t.Errorf("cart items = %d, want 0", len(reloaded.Items))
	}
}

func TestPlaceOrderSnapshotsPriceAtPurchase(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, f.db, "buyer@example.com")
	category := testutil.SeedCategory(t, f.db, "Shoes", "shoes")
	product := testutil.SeedProduct(t, f.db, category.ID, "Boots", 1000, 5)
	cart := testutil.SeedCart(t, f.db, user.ID)
	testutil.SeedCartItem(t, f.db, cart.ID, product.ID, 1)

	order, err := f.svc.PlaceOrder(ctx, user.ID)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	// Price hike after purchase must not touch the placed order.
	if err := f.db.Model(&types.Product{}).Where("id = ?", product.ID).Update("price_cents", 9999).Error; err != nil {
		t.Fatalf("update price: %v", err)
	}

	var persisted types.Order
	if err := f.db.Preload("Items").First(&persisted, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if persisted.TotalCents != 1000 || persisted.Items[0].UnitPriceCents != 1000 {
		t.Errorf("order total/unit = %d/%d, want 1000/1000", persisted.TotalCents, persisted.Items[0].UnitPriceCents)
	}
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, f.db, "buyer@example.com")
	category := testutil.SeedCategory(t, f.db, "Shoes", "shoes")
	plenty := testutil.SeedProduct(t, f.db, category.ID, "Socks", 500, 5)
	scarce := testutil.SeedProduct(t, f.db, category.ID, "Boots", 1999, 2)
	cart := testutil.SeedCart(t, f.db, user.ID)
	testutil.SeedCartItem(t, f.db, cart.ID, plenty.ID, 1)
	testutil.SeedCartItem(t, f.db, cart.ID, scarce.ID, 10)

	_, err := f.svc.PlaceOrder(ctx, user.ID)
	var stockErr *types.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("got %v, want InsufficientStockError", err)
	}
	if stockErr.ProductID != scarce.ID || stockErr.Requested != 10 || stockErr.Available != 2 {
		t.Errorf("stock error = %+v", stockErr)
	}

	// The whole placement rolled back: no order, no stock change, cart intact.
	var orderCount int64
	if err := f.db.Model(&types.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Errorf("orders = %d, want 0", orderCount)
	}
	for _, p := range []*types.Product{plenty, scarce} {
		stock, err := f.products.GetStock(ctx, nil, p.ID)
		if err != nil {
			t.Fatalf("GetStock: %v", err)
		}
		if stock != p.Stock {
			t.Errorf("stock of %s = %d, want %d", p.Name, stock, p.Stock)
		}
	}
	reloaded, err := f.carts.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(reloaded.Items) != 2 {
		t.Errorf("cart items = %d, want 2", len(reloaded.Items))
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, f.db, "buyer@example.com")
	testutil.SeedCart(t, f.db, user.ID)

	if _, err := f.svc.PlaceOrder(ctx, user.ID); !errors.Is(err, types.ErrCartEmpty) {
		t.Errorf("got %v, want ErrCartEmpty", err)
	}
}

func TestPlaceOrderConcurrentOversell(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	category := testutil.SeedCategory(t, f.db, "Shoes", "shoes")
	product := testutil.SeedProduct(t, f.db, category.ID, "Boots", 1999, 3)

	first := testutil.SeedUser(t, f.db, "first@example.com")
	firstCart := testutil.SeedCart(t, f.db, first.ID)
	testutil.SeedCartItem(t, f.db, firstCart.ID, product.ID, 2)

	second := testutil.SeedUser(t, f.db, "second@example.com")
	secondCart := testutil.SeedCart(t, f.db, second.ID)
	testutil.SeedCartItem(t, f.db, secondCart.ID, product.ID, 2)

	// Both placements race; together they ask for 4 of 3 units, so the
	// conditional decrement must let exactly one through.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(ctx, userID)
		}(i, userID)
	}
	wg.Wait()

	var succeeded, refused int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			var stockErr *types.InsufficientStockError
			if !errors.As(err, &stockErr) {
				t.Fatalf("got %v, want InsufficientStockError", err)
			}
			refused++
		}
	}
	if succeeded != 1 || refused != 1 {
		t.Fatalf("succeeded = %d, refused = %d, want 1 and 1", succeeded, refused)
	}

	stock, err := f.products.GetStock(ctx, nil, product.ID)
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if stock != 1 {
		t.Errorf("stock = %d, want 1", stock)
	}
}

func TestCancelOrderRestocks(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, f.db, "buyer@example.com")
	category := testutil.SeedCategory(t, f.db, "Shoes", "shoes")
	product := testutil.SeedProduct(t, f.db, category.ID, "Boots", 1999, 5)
	cart := testutil.SeedCart(t, f.db, user.ID)
	testutil.SeedCartItem(t, f.db, cart.ID, product.ID, 3)

	order, err := f.svc.PlaceOrder(ctx, user.ID)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	cancelled, err := f.svc.CancelOrder(ctx, user.ID, order.ID)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if cancelled.Status != types.OrderStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}

	stock, err := f.products.GetStock(ctx, nil, product.ID)
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if stock != 5 {
		t.Errorf("stock = %d, want 5", stock)
	}

	// Cancelling again must be refused, and must not restock again.
	_, err = f.svc.CancelOrder(ctx, user.ID, order.ID)
	var transitionErr *types.InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("second cancel: got %v, want InvalidTransitionError", err)
	}
	stock, err = f.products.GetStock(ctx, nil, product.ID)
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if stock != 5 {
		t.Errorf("stock after double cancel = %d, want 5", stock)
	}
}

func TestOrderTransitions(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, f.db, "buyer@example.com")
	category := testutil.SeedCategory(t, f.db, "Shoes", "shoes")
	product := testutil.SeedProduct(t, f.db, category.ID, "Boots", 1999, 5)
	cart := testutil.SeedCart(t, f.db, user.ID)
	testutil.SeedCartItem(t, f.db, cart.ID, product.ID, 1)

	order, err := f.svc.PlaceOrder(ctx, user.ID)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	// Shipping before payment is rejected.
	_, err = f.svc.ShipOrder(ctx, user.ID, order.ID)
	var transitionErr *types.InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("got %v, want InvalidTransitionError", err)
	}

	if _, err := f.svc.PayOrder(ctx, user.ID, order.ID); err != nil {
		t.Fatalf("PayOrder: %v", err)
	}
	if _, err := f.svc.ShipOrder(ctx, user.ID, order.ID); err != nil {
		t.Fatalf("ShipOrder: %v", err)
	}

	// Cancelling after shipment is rejected.
	if _, err := f.svc.CancelOrder(ctx, user.ID, order.ID); err == nil {
		t.Fatal("expected cancel after ship to fail")
	}

	delivered, err := f.svc.DeliverOrder(ctx, user.ID, order.ID)
	if err != nil {
		t.Fatalf("DeliverOrder: %v", err)
	}
	if delivered.Status != types.OrderStatusDelivered {
		t.Errorf("status = %s, want delivered", delivered.Status)
	}
}

func TestOrderOwnership(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, f.db, "owner@example.com")
	category := testutil.SeedCategory(t, f.db, "Shoes", "shoes")
	product := testutil.SeedProduct(t, f.db, category.ID, "Boots", 1999, 5)
	cart := testutil.SeedCart(t, f.db, owner.ID)
	testutil.SeedCartItem(t, f.db, cart.ID, product.ID, 1)

	order, err := f.svc.PlaceOrder(ctx, owner.ID)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if _, err := f.svc.PayOrder(ctx, uuid.New(), order.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound for foreign order", err)
	}
}
