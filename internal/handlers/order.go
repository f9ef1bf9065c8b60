package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/cache"
	"storefront/internal/queries"
	"storefront/internal/requestdata"
	"storefront/internal/services"
	"storefront/internal/types"
)

type OrderHandler struct {
	orderService services.OrderService
	orderQueries queries.OrderQueries
	catalogCache cache.CatalogCache
}

func NewOrderHandler(orderService services.OrderService, orderQueries queries.OrderQueries, catalogCache cache.CatalogCache) *OrderHandler {
	return &OrderHandler{orderService: orderService, orderQueries: orderQueries, catalogCache: catalogCache}
}

func (oh *OrderHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	page, err := oh.orderQueries.ListForUser(c.Request.Context(), rd.UserID, paginationFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (oh *OrderHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := oh.orderQueries.GetForUser(c.Request.Context(), rd.UserID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (oh *OrderHandler) Place(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	order, err := oh.orderService.PlaceOrder(c.Request.Context(), rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	oh.invalidateOrderProducts(c.Request.Context(), order)
	c.JSON(http.StatusCreated, order)
}

func (oh *OrderHandler) Pay(c *gin.Context) {
	oh.transition(c, oh.orderService.PayOrder)
}

func (oh *OrderHandler) Ship(c *gin.Context) {
	oh.transition(c, oh.orderService.ShipOrder)
}

func (oh *OrderHandler) Deliver(c *gin.Context) {
	oh.transition(c, oh.orderService.DeliverOrder)
}

// Cancel restocks the order's products, so their cached read models go
// stale and get dropped here.
func (oh *OrderHandler) Cancel(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := oh.orderService.CancelOrder(c.Request.Context(), rd.UserID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	oh.invalidateOrderProducts(c.Request.Context(), order)
	c.JSON(http.StatusOK, order)
}

// invalidateOrderProducts drops the cached product views whose stock an
// order placement or cancellation just changed.
func (oh *OrderHandler) invalidateOrderProducts(ctx context.Context, order *types.Order) {
	for _, item := range order.Items {
		oh.catalogCache.InvalidateProduct(ctx, item.ProductID)
	}
}

func (oh *OrderHandler) transition(c *gin.Context, apply func(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error)) {
	rd := requestdata.GetRequestData(c.Request.Context())
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := apply(c.Request.Context(), rd.UserID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
