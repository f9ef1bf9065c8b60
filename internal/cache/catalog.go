package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"storefront/internal/logger"
	"storefront/internal/queries"
)

// CatalogCache is a read-through cache for the hot catalog reads (single
// product view, category listing). Misses fall through to the query
// services; catalog writes invalidate.
type CatalogCache interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*queries.ProductReadModel, bool)
	SetProduct(ctx context.Context, product *queries.ProductReadModel)
	InvalidateProduct(ctx context.Context, productID uuid.UUID)
	GetCategories(ctx context.Context) ([]queries.CategoryReadModel, bool)
	SetCategories(ctx context.Context, categories []queries.CategoryReadModel)
	InvalidateCategories(ctx context.Context)
	Close() error
}

type catalogCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewCatalogCache(log *logger.Logger, addr string, ttl time.Duration) (CatalogCache, error) {
	cacheLog := log.With("service", "CatalogCache")
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &catalogCache{log: cacheLog, rdb: rdb, ttl: ttl}, nil
}

func productKey(id uuid.UUID) string { return "catalog:product:" + id.String() }

const categoriesKey = "catalog:categories"

func (c *catalogCache) GetProduct(ctx context.Context, productID uuid.UUID) (*queries.ProductReadModel, bool) {
	raw, err := c.rdb.Get(ctx, productKey(productID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Product cache read failed", "error", err)
		}
		return nil, false
	}
	var product queries.ProductReadModel
	if err := json.Unmarshal(raw, &product); err != nil {
		c.log.Warn("Product cache entry corrupt, dropping", "error", err)
		c.rdb.Del(ctx, productKey(productID))
		return nil, false
	}
	return &product, true
}

func (c *catalogCache) SetProduct(ctx context.Context, product *queries.ProductReadModel) {
	raw, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, productKey(product.ID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Product cache write failed", "error", err)
	}
}

func (c *catalogCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) {
	if err := c.rdb.Del(ctx, productKey(productID)).Err(); err != nil {
		c.log.Warn("Product cache invalidation failed", "error", err)
	}
}

func (c *catalogCache) GetCategories(ctx context.Context) ([]queries.CategoryReadModel, bool) {
	raw, err := c.rdb.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Category cache read failed", "error", err)
		}
		return nil, false
	}
	var categories []queries.CategoryReadModel
	if err := json.Unmarshal(raw, &categories); err != nil {
		c.rdb.Del(ctx, categoriesKey)
		return nil, false
	}
	return categories, true
}

func (c *catalogCache) SetCategories(ctx context.Context, categories []queries.CategoryReadModel) {
	raw, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, categoriesKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("Category cache write failed", "error", err)
	}
}

func (c *catalogCache) InvalidateCategories(ctx context.Context) {
	if err := c.rdb.Del(ctx, categoriesKey).Err(); err != nil {
		c.log.Warn("Category cache invalidation failed", "error", err)
	}
}

func (c *catalogCache) Close() error {
	return c.rdb.Close()
}

// Noop returns a cache that never hits; used when REDIS_ADDR is unset.
func Noop() CatalogCache { return noopCache{} }

type noopCache struct{}

func (noopCache) GetProduct(context.Context, uuid.UUID) (*queries.ProductReadModel, bool) {
	return nil, false
}
func (noopCache) SetProduct(context.Context, *queries.ProductReadModel)       {}
func (noopCache) InvalidateProduct(context.Context, uuid.UUID)                {}
func (noopCache) GetCategories(context.Context) ([]queries.CategoryReadModel, bool) {
	return nil, false
}
func (noopCache) SetCategories(context.Context, []queries.CategoryReadModel) {}
func (noopCache) InvalidateCategories(context.Context)                       {}
func (noopCache) Close() error                                               { return nil }
