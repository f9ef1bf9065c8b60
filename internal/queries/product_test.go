package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"storefront/internal/testutil"
	"storefront/internal/types"
)

func TestProductQueriesListAndGet(t *testing.T) {
	gdb := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	pq := NewProductQueries(gdb, log)
	ctx := context.Background()

	shoes := testutil.SeedCategory(t, gdb, "Shoes", "shoes")
	hats := testutil.SeedCategory(t, gdb, "Hats", "hats")
	boots := testutil.SeedProduct(t, gdb, shoes.ID, "Boots", 1999, 5)
	testutil.SeedProduct(t, gdb, shoes.ID, "Sandals", 999, 3)
	testutil.SeedProduct(t, gdb, hats.ID, "Beanie", 500, 10)

	page, err := pq.List(ctx, Pagination{Page: 1, PageSize: 2}, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || page.TotalPages != 2 {
		t.Errorf("page = total %d items %d pages %d", page.Total, len(page.Items), page.TotalPages)
	}

	filtered, err := pq.List(ctx, Pagination{}, &shoes.ID)
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if filtered.Total != 2 {
		t.Errorf("filtered total = %d, want 2", filtered.Total)
	}
	for _, item := range filtered.Items {
		if item.CategoryID != shoes.ID || item.CategoryName != "Shoes" {
			t.Errorf("item = %+v", item)
		}
	}

	view, err := pq.Get(ctx, boots.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Name != "Boots" || view.PriceCents != 1999 || view.CategoryName != "Shoes" {
		t.Errorf("view = %+v", view)
	}

	if _, err := pq.Get(ctx, uuid.New()); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestProductQueriesSearch(t *testing.T) {
	gdb := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	pq := NewProductQueries(gdb, log)
	ctx := context.Background()

	shoes := testutil.SeedCategory(t, gdb, "Shoes", "shoes")
	testutil.SeedProduct(t, gdb, shoes.ID, "Leather Boots", 1999, 5)
	testutil.SeedProduct(t, gdb, shoes.ID, "Rubber Boots", 1499, 5)
	testutil.SeedProduct(t, gdb, shoes.ID, "Sandals", 999, 3)

	page, err := pq.Search(ctx, "Boots", Pagination{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("total = %d, want 2", page.Total)
	}
	for _, item := range page.Items {
		if item.Name != "Leather Boots" && item.Name != "Rubber Boots" {
			t.Errorf("unexpected hit %q", item.Name)
		}
	}

	empty, err := pq.Search(ctx, "Umbrella", Pagination{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if empty.Total != 0 || len(empty.Items) != 0 {
		t.Errorf("empty search = %+v", empty)
	}
}

func TestCartQueriesGetForUser(t *testing.T) {
	gdb := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	cq := NewCartQueries(gdb, log)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "buyer@example.com")
	shoes := testutil.SeedCategory(t, gdb, "Shoes", "shoes")
	boots := testutil.SeedProduct(t, gdb, shoes.ID, "Boots", 1999, 5)
	socks := testutil.SeedProduct(t, gdb, shoes.ID, "Socks", 500, 50)
	cart := testutil.SeedCart(t, gdb, user.ID)
	testutil.SeedCartItem(t, gdb, cart.ID, boots.ID, 2)
	testutil.SeedCartItem(t, gdb, cart.ID, socks.ID, 3)

	view, err := cq.GetForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetForUser: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(view.Items))
	}
	if want := int64(2*1999 + 3*500); view.TotalCents != want {
		t.Errorf("total = %d, want %d", view.TotalCents, want)
	}

	if _, err := cq.GetForUser(ctx, uuid.New()); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestOrderQueriesListForUser(t *testing.T) {
	gdb := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	oq := NewOrderQueries(gdb, log)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "buyer@example.com")
	other := testutil.SeedUser(t, gdb, "other@example.com")
	shoes := testutil.SeedCategory(t, gdb, "Shoes", "shoes")
	boots := testutil.SeedProduct(t, gdb, shoes.ID, "Boots", 1999, 5)

	mine := types.NewOrderFromCart(user.ID, []types.CartItem{
		{ID: uuid.New(), ProductID: boots.ID, Quantity: 2},
	}, map[uuid.UUID]int64{boots.ID: 1999})
	theirs := types.NewOrderFromCart(other.ID, []types.CartItem{
		{ID: uuid.New(), ProductID: boots.ID, Quantity: 1},
	}, map[uuid.UUID]int64{boots.ID: 1999})
	for _, o := range []*types.Order{mine, theirs} {
		if err := gdb.Create(o).Error; err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}

	page, err := oq.ListForUser(ctx, user.ID, Pagination{})
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("page = %+v", page)
	}
	got := page.Items[0]
	if got.ID != mine.ID || got.TotalCents != 3998 {
		t.Errorf("order = %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].ProductName != "Boots" || got.Items[0].TotalPriceCents != 3998 {
		t.Errorf("order items = %+v", got.Items)
	}

	view, err := oq.GetForUser(ctx, user.ID, mine.ID)
	if err != nil {
		t.Fatalf("GetForUser: %v", err)
	}
	if view.ID != mine.ID {
		t.Errorf("view = %+v", view)
	}

	// Another user's order reads as missing.
	if _, err := oq.GetForUser(ctx, user.ID, theirs.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
