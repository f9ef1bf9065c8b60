package testutil

import (
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/types"
)

const FixturePassword = "Sup3rSecret!"

func SeedUser(t testing.TB, gdb *gorm.DB, email string) *types.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashed),
		Username:     "fixture",
		IsActive:     true,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func SeedCategory(t testing.TB, gdb *gorm.DB, name, slug string) *types.Category {
	t.Helper()
	category := &types.Category{
		ID:   uuid.New(),
		Name: name,
		Slug: slug,
	}
	if err := gdb.Create(category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return category
}

func SeedProduct(t testing.TB, gdb *gorm.DB, categoryID uuid.UUID, name string, priceCents int64, stock int) *types.Product {
	t.Helper()
	product := &types.Product{
		ID:         uuid.New(),
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
		CategoryID: categoryID,
	}
	if err := gdb.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func SeedCart(t testing.TB, gdb *gorm.DB, userID uuid.UUID) *types.Cart {
	t.Helper()
	cart := &types.Cart{ID: uuid.New(), UserID: userID}
	if err := gdb.Create(cart).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	return cart
}

func SeedCartItem(t testing.TB, gdb *gorm.DB, cartID, productID uuid.UUID, quantity int) *types.CartItem {
	t.Helper()
	item := &types.CartItem{
		ID:        uuid.New(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := gdb.Create(item).Error; err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
	return item
}
