package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/queries"
	"storefront/internal/requestdata"
	"storefront/internal/services"
	"storefront/internal/types"
)

type CartHandler struct {
	cartService services.CartService
	cartQueries queries.CartQueries
}

func NewCartHandler(cartService services.CartService, cartQueries queries.CartQueries) *CartHandler {
	return &CartHandler{cartService: cartService, cartQueries: cartQueries}
}

// Get returns the cart view. A user who never added anything gets an
// empty cart, not a 404.
func (ch *CartHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	cart, err := ch.cartQueries.GetForUser(c.Request.Context(), rd.UserID)
	if errors.Is(err, types.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":     rd.UserID,
			"items":       []queries.CartItemReadModel{},
			"total_cents": 0,
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (ch *CartHandler) AddItem(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		ProductID uuid.UUID `json:"product_id"`
		Quantity  int       `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := ch.cartService.AddItem(c.Request.Context(), rd.UserID, req.ProductID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item added"})
}

func (ch *CartHandler) RemoveItem(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	if err := ch.cartService.RemoveItem(c.Request.Context(), rd.UserID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item removed"})
}
