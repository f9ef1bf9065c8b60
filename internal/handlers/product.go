package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"storefront/internal/cache"
	"storefront/internal/queries"
	"storefront/internal/services"
)

const maxUploadBytes = 10 << 20

type ProductHandler struct {
	catalogService services.CatalogService
	imageService   services.ImageService
	productQueries queries.ProductQueries
	catalogCache   cache.CatalogCache
}

func NewProductHandler(
	catalogService services.CatalogService,
	imageService services.ImageService,
	productQueries queries.ProductQueries,
	catalogCache cache.CatalogCache,
) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		imageService:   imageService,
		productQueries: productQueries,
		catalogCache:   catalogCache,
	}
}

func (ph *ProductHandler) List(c *gin.Context) {
	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
			return
		}
		categoryID = &id
	}
	page, err := ph.productQueries.List(c.Request.Context(), paginationFromQuery(c), categoryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ph *ProductHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	page, err := ph.productQueries.Search(c.Request.Context(), query, paginationFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ph *ProductHandler) Get(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	if cached, ok := ph.catalogCache.GetProduct(c.Request.Context(), productID); ok {
		c.JSON(http.StatusOK, cached)
		return
	}
	product, err := ph.productQueries.Get(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	ph.catalogCache.SetProduct(c.Request.Context(), product)
	c.JSON(http.StatusOK, product)
}

func (ph *ProductHandler) Create(c *gin.Context) {
	var req struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       string          `json:"price"`
		Stock       int             `json:"stock"`
		CategoryID  uuid.UUID       `json:"category_id"`
		Attributes  json.RawMessage `json:"attributes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	priceCents, err := services.ParsePriceCents(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product, err := ph.catalogService.CreateProduct(c.Request.Context(), services.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  priceCents,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		Attributes:  datatypes.JSON(req.Attributes),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// Import ingests a CSV file (multipart field "file") of
// name,description,price,stock rows into the category given by the
// category_id form field.
func (ph *ProductHandler) Import(c *gin.Context) {
	categoryID, err := uuid.Parse(c.PostForm("category_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing csv file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	count, err := ph.catalogService.ImportProductsCSV(c.Request.Context(), categoryID, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": count})
}

// ResizeImage scales an uploaded image (multipart field "image") to the
// requested dimensions and returns the PNG. Without an upload it renders
// a placeholder labelled with the product name.
func (ph *ProductHandler) ResizeImage(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	width, err := strconv.Atoi(c.DefaultQuery("width", "512"))
	if err != nil || width <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid width"})
		return
	}
	height, err := strconv.Atoi(c.DefaultQuery("height", "512"))
	if err != nil || height <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid height"})
		return
	}

	var out []byte
	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		file.Close()
		if err != nil {
			respondError(c, err)
			return
		}
		out, err = ph.imageService.ResizeImage(raw, width, height)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else {
		product, err := ph.productQueries.Get(c.Request.Context(), productID)
		if err != nil {
			respondError(c, err)
			return
		}
		out, err = ph.imageService.GeneratePlaceholder(product.Name, width, height)
		if err != nil {
			respondError(c, err)
			return
		}
	}
	c.Data(http.StatusOK, "image/png", out)
}

func paginationFromQuery(c *gin.Context) queries.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(queries.DefaultPageSize)))
	return queries.Pagination{Page: page, PageSize: pageSize}
}
