package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/logger"
	"storefront/internal/types"
)

type ProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) ([]*types.Product, error)
	// DecrementStock conditionally subtracts quantity from stock. It is the
	// oversell guard: the UPDATE only matches while stock >= quantity, so
	// concurrent placements conflict at the row and at most one wins the
	// last units.
	DecrementStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int) (bool, error)
	IncrementStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int) error
	GetStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (pr *productRepo) Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(products) == 0 {
		return []*types.Product{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (pr *productRepo) GetByIDs(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Product
	if len(productIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *productRepo) DecrementStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (pr *productRepo) IncrementStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error
}

func (pr *productRepo) GetStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var stock int
	err := transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ?", productID).
		Pluck("stock", &stock).Error
	if err != nil {
		return 0, err
	}
	return stock, nil
}
