package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/cache"
	"storefront/internal/repos"
	"storefront/internal/testutil"
	"storefront/internal/types"
	"storefront/internal/uow"
)

type catalogFixture struct {
	db  *gorm.DB
	svc CatalogService
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	gdb := testutil.OpenDB(t)
	log := testutil.NewLogger(t)
	unit := uow.New(gdb, log)
	svc := NewCatalogService(
		gdb, log, unit,
		repos.NewCategoryRepo(gdb, log),
		repos.NewProductRepo(gdb, log),
		cache.Noop(),
	)
	return &catalogFixture{db: gdb, svc: svc}
}

func TestCreateCategory(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category, err := f.svc.CreateCategory(ctx, "  Winter   Boots ", nil)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if category.Name != "Winter Boots" {
		t.Errorf("name = %q", category.Name)
	}
	if category.Slug != "winter-boots" {
		t.Errorf("slug = %q, want winter-boots", category.Slug)
	}

	if _, err := f.svc.CreateCategory(ctx, "Winter Boots", nil); !errors.Is(err, types.ErrSlugTaken) {
		t.Errorf("duplicate: got %v, want ErrSlugTaken", err)
	}

	child, err := f.svc.CreateCategory(ctx, "Hiking Boots", &category.ID)
	if err != nil {
		t.Fatalf("CreateCategory child: %v", err)
	}
	if child.ParentID == nil || *child.ParentID != category.ID {
		t.Errorf("parent id = %v, want %s", child.ParentID, category.ID)
	}

	missing := uuid.New()
	if _, err := f.svc.CreateCategory(ctx, "Orphan", &missing); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("missing parent: got %v, want ErrNotFound", err)
	}
}

func TestCreateProduct(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category := testutil.SeedCategory(t, f.db, "Shoes", "shoes")

	product, err := f.svc.CreateProduct(ctx, CreateProductInput{
		Name:        "Boots",
		Description: "Sturdy",
		PriceCents:  1999,
		Stock:       10,
		CategoryID:  category.ID,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.ID == uuid.Nil || product.PriceCents != 1999 {
		t.Errorf("product = %+v", product)
	}

	_, err = f.svc.CreateProduct(ctx, CreateProductInput{
		Name:       "Orphan",
		PriceCents: 100,
		CategoryID: uuid.New(),
	})
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("missing category: got %v, want ErrNotFound", err)
	}
}

func TestImportProductsCSV(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category := testutil.SeedCategory(t, f.db, "Shoes", "shoes")

	csvData := strings.Join([]string{
		"name,description,price,stock",
		`Boots,Sturdy leather,19.99,5`,
		`Socks,"Wool, thick",4.50,100`,
		`Laces,Spare pair,0.99,40`,
	}, "\n")

	count, err := f.svc.ImportProductsCSV(ctx, category.ID, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ImportProductsCSV: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	var boots types.Product
	if err := f.db.Where("name = ?", "Boots").First(&boots).Error; err != nil {
		t.Fatalf("load boots: %v", err)
	}
	if boots.PriceCents != 1999 || boots.Stock != 5 || boots.CategoryID != category.ID {
		t.Errorf("boots = %+v", boots)
	}
	var socks types.Product
	if err := f.db.Where("name = ?", "Socks").First(&socks).Error; err != nil {
		t.Fatalf("load socks: %v", err)
	}
	if socks.Description != "Wool, thick" || socks.PriceCents != 450 {
		t.Errorf("socks = %+v", socks)
	}
}

func TestImportProductsCSVRejectsMalformedRows(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	category := testutil.SeedCategory(t, f.db, "Shoes", "shoes")

	csvData := "Boots,Sturdy,19.99,5\nBad,row,not-a-price,3\n"
	if _, err := f.svc.ImportProductsCSV(ctx, category.ID, strings.NewReader(csvData)); err == nil {
		t.Fatal("expected error for malformed price")
	}

	// Nothing was written.
	var count int64
	if err := f.db.Model(&types.Product{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("products = %d, want 0", count)
	}

	if _, err := f.svc.ImportProductsCSV(ctx, uuid.New(), strings.NewReader(csvData)); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("unknown category: got %v, want ErrNotFound", err)
	}
}

func TestParsePriceCents(t *testing.T) {
	valid := map[string]int64{
		"19.99": 1999,
		"7":     700,
		"0.5":   50,
		".99":   99,
		"0":     0,
		" 4.50": 450,
	}
	for in, want := range valid {
		got, err := ParsePriceCents(in)
		if err != nil {
			t.Errorf("ParsePriceCents(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParsePriceCents(%q) = %d, want %d", in, got, want)
		}
	}
	for _, in := range []string{"", "abc", "-1", "1.999", "1.2.3", "1.x", "19.-9", "1.+5", "+5", "."} {
		if _, err := ParsePriceCents(in); err == nil {
			t.Errorf("ParsePriceCents(%q) should fail", in)
		}
	}
}
