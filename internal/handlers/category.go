package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/cache"
	"storefront/internal/queries"
	"storefront/internal/services"
)

type CategoryHandler struct {
	catalogService  services.CatalogService
	categoryQueries queries.CategoryQueries
	catalogCache    cache.CatalogCache
}

func NewCategoryHandler(
	catalogService services.CatalogService,
	categoryQueries queries.CategoryQueries,
	catalogCache cache.CatalogCache,
) *CategoryHandler {
	return &CategoryHandler{
		catalogService:  catalogService,
		categoryQueries: categoryQueries,
		catalogCache:    catalogCache,
	}
}

func (ch *CategoryHandler) List(c *gin.Context) {
	if cached, ok := ch.catalogCache.GetCategories(c.Request.Context()); ok {
		c.JSON(http.StatusOK, gin.H{"items": cached})
		return
	}
	categories, err := ch.categoryQueries.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ch.catalogCache.SetCategories(c.Request.Context(), categories)
	c.JSON(http.StatusOK, gin.H{"items": categories})
}

func (ch *CategoryHandler) Create(c *gin.Context) {
	var req struct {
		Name     string     `json:"name"`
		ParentID *uuid.UUID `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	category, err := ch.catalogService.CreateCategory(c.Request.Context(), req.Name, req.ParentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}
