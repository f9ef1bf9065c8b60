package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"storefront/internal/app"
	"storefront/internal/cache"
	"storefront/internal/clients/mail"
	"storefront/internal/db"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/observability"
	"storefront/internal/queries"
	"storefront/internal/repos"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/internal/uow"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Fatal("Could not load configuration", "error", err)
	}

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "storefront",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()
	unit := uow.New(thePG, log)

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	resetTokenRepo := repos.NewPasswordResetTokenRepo(thePG, log)
	categoryRepo := repos.NewCategoryRepo(thePG, log)
	productRepo := repos.NewProductRepo(thePG, log)
	cartRepo := repos.NewCartRepo(thePG, log)
	orderRepo := repos.NewOrderRepo(thePG, log)

	// Queries
	productQueries := queries.NewProductQueries(thePG, log)
	categoryQueries := queries.NewCategoryQueries(thePG, log)
	cartQueries := queries.NewCartQueries(thePG, log)
	orderQueries := queries.NewOrderQueries(thePG, log)

	// Cache
	catalogCache := cache.Noop()
	if cfg.RedisAddr != "" {
		catalogCache, err = cache.NewCatalogCache(log, cfg.RedisAddr, time.Duration(cfg.CacheTTLSecs)*time.Second)
		if err != nil {
			log.Warn("Redis cache init failed, continuing without cache", "error", err)
			catalogCache = cache.Noop()
		}
	}
	defer catalogCache.Close()

	// Mail
	mailClient := mail.Disabled(log)
	if cfg.MailAPIKey != "" {
		mailClient, err = mail.New(log, mail.Config{
			APIKey:    cfg.MailAPIKey,
			BaseURL:   cfg.MailBaseURL,
			FromEmail: cfg.MailFromEmail,
			FromName:  cfg.MailFromName,
		})
		if err != nil {
			log.Fatal("Could not init mail client", "error", err)
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(
		thePG, log, unit,
		userRepo, userTokenRepo, resetTokenRepo, mailClient,
		cfg.JWTSecretKey, cfg.AppURL,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.ResetTokenTTL,
	)
	userService := services.NewUserService(thePG, log, userRepo)
	catalogService := services.NewCatalogService(thePG, log, unit, categoryRepo, productRepo, catalogCache)
	imageService, err := services.NewImageService(log, cfg.PlaceholderTTF)
	if err != nil {
		log.Fatal("Could not init ImageService", "error", err)
	}
	cartService := services.NewCartService(thePG, log, unit, cartRepo, productRepo)
	orderService := services.NewOrderService(thePG, log, unit, orderRepo, cartRepo, productRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(catalogService, categoryQueries, catalogCache)
	productHandler := handlers.NewProductHandler(catalogService, imageService, productQueries, catalogCache)
	cartHandler := handlers.NewCartHandler(cartService, cartQueries)
	orderHandler := handlers.NewOrderHandler(orderService, orderQueries, catalogCache)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:             log,
		AuthMiddleware:  authMiddleware,
		AuthHandler:     authHandler,
		UserHandler:     userHandler,
		CategoryHandler: categoryHandler,
		ProductHandler:  productHandler,
		CartHandler:     cartHandler,
		OrderHandler:    orderHandler,
	})

	log.Info("Server listening", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
