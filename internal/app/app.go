// Package app wires repositories, services and handlers into a Fiber app.
package app

import (
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// BodyLimit bounds request bodies; product payloads carry their images inline.
const BodyLimit = 32 << 20

// Deps are the resources the API needs.
type Deps struct {
	DB        *gorm.DB
	JWTSecret string
	Storage   storage.Storage
	// StaticDir is served under StaticPrefix when images are stored locally.
	StaticDir    string
	StaticPrefix string
	// Events may be nil.
	Events services.EventPublisher
	Logger *zap.Logger
}

// OpenDatabase connects to the configured database.
func OpenDatabase(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown DATABASE_DRIVER: %s", cfg.DatabaseDriver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductSize{},
		&models.ProductImage{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// New builds the Fiber app and returns it with the auth service, which tests
// use to mint tokens.
func New(d Deps) (*fiber.App, *services.AuthService) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	productRepo := repositories.NewGORMProductRepository(d.DB)
	userRepo := repositories.NewGORMUserRepository(d.DB)
	cartRepo := repositories.NewGORMCartRepository(d.DB)
	orderRepo := repositories.NewGORMOrderRepository(d.DB)

	authService := services.NewAuthService(userRepo, d.JWTSecret, logger)
	productService := services.NewProductService(productRepo, d.Storage, d.Events, logger)
	cartService := services.NewCartService(cartRepo, productRepo)
	purchaseService := services.NewPurchaseService(orderRepo, cartRepo, productRepo, d.Events, logger)

	app := fiber.New(fiber.Config{
		AppName:   "storefront",
		BodyLimit: BodyLimit,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger))

	if d.StaticDir != "" && d.StaticPrefix != "" {
		app.Static(d.StaticPrefix, d.StaticDir)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		events := "disabled"
		if d.Events != nil {
			events = "enabled"
		}
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": events,
		})
	})

	api := app.Group("/api")
	optionalAuth := middleware.OptionalAuth(authService, logger)
	authRequired := middleware.AuthRequired(authService, logger)

	handlers.NewAuthHandler(authService, logger).RegisterRoutes(api)
	handlers.NewProductHandler(productService, logger).RegisterRoutes(api, optionalAuth)
	handlers.NewSaleHandler(productService, logger).RegisterRoutes(api, authRequired)
	handlers.NewCartHandler(cartService, logger).RegisterRoutes(api, authRequired)
	handlers.NewPurchaseHandler(purchaseService, logger).RegisterRoutes(api, authRequired)
	handlers.NewUserHandler(authService, logger).RegisterRoutes(api, authRequired)

	return app, authService
}
