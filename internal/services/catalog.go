package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"storefront/internal/cache"
	"storefront/internal/logger"
	"storefront/internal/normalization"
	"storefront/internal/repos"
	"storefront/internal/types"
	"storefront/internal/uow"
)

const importBatchSize = 200

type CreateProductInput struct {
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	CategoryID  uuid.UUID
	Attributes  datatypes.JSON
}

type CatalogService interface {
	CreateCategory(ctx context.Context, name string, parentID *uuid.UUID) (*types.Category, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*types.Product, error)
	ImportProductsCSV(ctx context.Context, categoryID uuid.UUID, r io.Reader) (int, error)
}

type catalogService struct {
	db           *gorm.DB
	log          *logger.Logger
	unit         uow.UnitOfWork
	categoryRepo repos.CategoryRepo
	productRepo  repos.ProductRepo
	catalogCache cache.CatalogCache
}

func NewCatalogService(
	db *gorm.DB,
	log *logger.Logger,
	unit uow.UnitOfWork,
	categoryRepo repos.CategoryRepo,
	productRepo repos.ProductRepo,
	catalogCache cache.CatalogCache,
) CatalogService {
	return &catalogService{
		db:           db,
		log:          log.With("service", "CatalogService"),
		unit:         unit,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		catalogCache: catalogCache,
	}
}

func (cs *catalogService) CreateCategory(ctx context.Context, name string, parentID *uuid.UUID) (*types.Category, error) {
	name = normalization.ParseInputString(name)
	if name == "" {
		return nil, fmt.Errorf("a category name is required")
	}
	slug := normalization.Slugify(name)

	category := &types.Category{
		ID:       uuid.New(),
		Name:     name,
		Slug:     slug,
		ParentID: parentID,
	}
	err := cs.unit.Do(ctx, func(tx *gorm.DB) error {
		exists, err := cs.categoryRepo.SlugExists(ctx, tx, slug)
		if err != nil {
			return fmt.Errorf("failed to check category slug: %w", err)
		}
		if exists {
			return types.ErrSlugTaken
		}
		if parentID != nil {
			parents, err := cs.categoryRepo.GetByIDs(ctx, tx, []uuid.UUID{*parentID})
			if err != nil {
				return fmt.Errorf("failed to load parent category: %w", err)
			}
			if len(parents) == 0 {
				return types.ErrNotFound
			}
		}
		_, err = cs.categoryRepo.Create(ctx, tx, []*types.Category{category})
		return err
	})
	if err != nil {
		return nil, err
	}
	cs.catalogCache.InvalidateCategories(ctx)
	return category, nil
}

func (cs *catalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*types.Product, error) {
	input.Name = normalization.ParseInputString(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("a product name is required")
	}
	if input.PriceCents < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}
	if input.Stock < 0 {
		return nil, fmt.Errorf("stock must not be negative")
	}

	product := &types.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: normalization.ParseInputString(input.Description),
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		Attributes:  input.Attributes,
	}
	err := cs.unit.Do(ctx, func(tx *gorm.DB) error {
		categories, err := cs.categoryRepo.GetByIDs(ctx, tx, []uuid.UUID{input.CategoryID})
		if err != nil {
			return fmt.Errorf("failed to load category: %w", err)
		}
		if len(categories) == 0 {
			return types.ErrNotFound
		}
		_, err = cs.productRepo.Create(ctx, tx, []*types.Product{product})
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// ImportProductsCSV reads rows of name,description,price,stock (header
// optional) and inserts them under the given category. Batches are
// written concurrently; a malformed row aborts the import before any
// writes happen.
func (cs *catalogService) ImportProductsCSV(ctx context.Context, categoryID uuid.UUID, r io.Reader) (int, error) {
	categories, err := cs.categoryRepo.GetByIDs(ctx, nil, []uuid.UUID{categoryID})
	if err != nil {
		return 0, fmt.Errorf("failed to load category: %w", err)
	}
	if len(categories) == 0 {
		return 0, types.ErrNotFound
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	var products []*types.Product
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("csv read: %w", err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}
		product, err := parseProductRecord(record, categoryID)
		if err != nil {
			return 0, fmt.Errorf("csv line %d: %w", line, err)
		}
		products = append(products, product)
	}
	if len(products) == 0 {
		return 0, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	for start := 0; start < len(products); start += importBatchSize {
		end := start + importBatchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[start:end]
		group.Go(func() error {
			_, err := cs.productRepo.Create(groupCtx, nil, batch)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return 0, fmt.Errorf("failed to insert products: %w", err)
	}

	cs.log.Info("Products imported", "count", len(products), "category_id", categoryID)
	return len(products), nil
}

func parseProductRecord(record []string, categoryID uuid.UUID) (*types.Product, error) {
	name := normalization.ParseInputString(record[0])
	if name == "" {
		return nil, fmt.Errorf("missing product name")
	}
	priceCents, err := ParsePriceCents(record[2])
	if err != nil {
		return nil, err
	}
	stock, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil || stock < 0 {
		return nil, fmt.Errorf("invalid stock %q", record[3])
	}
	return &types.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: normalization.ParseInputString(record[1]),
		PriceCents:  priceCents,
		Stock:       stock,
		CategoryID:  categoryID,
	}, nil
}

// ParsePriceCents converts a decimal price string ("19.99", "7") to
// integer cents without going through floats.
func ParsePriceCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if whole == "" {
		whole = "0"
	}
	// ParseInt alone would admit signs ("19.-9"), so both parts must be
	// bare digits first.
	if !allDigits(whole) || (frac != "" && !allDigits(frac)) {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	cents := units * 100
	switch len(frac) {
	case 0:
	case 1:
		d, _ := strconv.ParseInt(frac, 10, 64)
		cents += d * 10
	case 2:
		d, _ := strconv.ParseInt(frac, 10, 64)
		cents += d
	default:
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return cents, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
