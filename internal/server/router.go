package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/middleware"
)

type RouterConfig struct {
	Log             *logger.Logger
	AuthMiddleware  *middleware.AuthMiddleware
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	CategoryHandler *handlers.CategoryHandler
	ProductHandler  *handlers.ProductHandler
	CartHandler     *handlers.CartHandler
	OrderHandler    *handlers.OrderHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLog(cfg.Log))
	router.Use(otelgin.Middleware("storefront"))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/password-reset/request", cfg.AuthHandler.RequestPasswordReset)
		api.POST("/password-reset/confirm", cfg.AuthHandler.ConfirmPasswordReset)

		api.GET("/products", cfg.ProductHandler.List)
		api.GET("/products/search", cfg.ProductHandler.Search)
		api.GET("/products/:id", cfg.ProductHandler.Get)
		api.GET("/categories", cfg.CategoryHandler.List)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	// Catalog writes
	protected.POST("/categories", cfg.CategoryHandler.Create)
	protected.POST("/products", cfg.ProductHandler.Create)
	protected.POST("/products/import", cfg.ProductHandler.Import)
	protected.POST("/products/:id/resize-image", cfg.ProductHandler.ResizeImage)
	// Cart
	protected.GET("/cart", cfg.CartHandler.Get)
	protected.POST("/cart/items", cfg.CartHandler.AddItem)
	protected.DELETE("/cart/items/:id", cfg.CartHandler.RemoveItem)
	// Orders
	protected.GET("/orders", cfg.OrderHandler.List)
	protected.GET("/orders/:id", cfg.OrderHandler.Get)
	protected.POST("/orders", cfg.OrderHandler.Place)
	protected.POST("/orders/:id/pay", cfg.OrderHandler.Pay)
	protected.POST("/orders/:id/ship", cfg.OrderHandler.Ship)
	protected.POST("/orders/:id/deliver", cfg.OrderHandler.Deliver)
	protected.POST("/orders/:id/cancel", cfg.OrderHandler.Cancel)

	return router
}
