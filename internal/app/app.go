package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ferreteria/internal/config"
	"ferreteria/internal/database"
	"ferreteria/internal/handlers"
	"ferreteria/internal/middleware"
	"ferreteria/internal/repositories"
	"ferreteria/internal/services"
	"ferreteria/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the wired catalog service: backends, store, services and the
// Fiber application.
type App struct {
	Config  *config.AppConfig
	Fiber   *fiber.App
	Store   *services.CatalogStore
	Sales   *services.SaleService
	Reports *services.ReportService
	Auth    *services.AuthService
	Repos   Repositories

	mq      *rabbitmq.Client
	closers []func() error
}

// Repositories groups the backends selected by catalog.backend.
type Repositories struct {
	Products repositories.ProductRepository
	Sales    repositories.SaleRepository
	Staff    repositories.StaffRepository
}

// NewApp connects the configured backends and builds the HTTP application.
// The initial catalog fetch is attempted but its failure is not fatal: the
// store stays in fetch_failed until a refresh succeeds.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{Config: cfg}

	repos, err := a.openRepositories(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repos = repos

	var publisher services.EventPublisher
	if cfg.RabbitMQ.Enabled {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		a.mq = mq
		a.closers = append(a.closers, mq.Close)
		publisher = mq
	}

	a.Store = services.NewCatalogStore(repos.Products,
		services.WithEventPublisher(publisher),
		services.WithRequiredCategory(cfg.Catalog.RequireCategory),
	)
	a.Sales = services.NewSaleService(a.Store, repos.Sales, publisher)
	a.Reports = services.NewReportService(a.Store, repos.Sales)
	a.Auth = services.NewAuthService(repos.Staff, cfg.App.JWTSecret)

	if err := a.Store.FetchAll(ctx); err != nil {
		zap.S().Warnf("Initial catalog fetch failed, serving an empty catalog until refreshed: %v", err)
	}

	a.Fiber = a.newFiber()
	return a, nil
}

func (a *App) openRepositories(ctx context.Context) (Repositories, error) {
	cfg := a.Config
	switch cfg.Catalog.Backend {
	case "memory":
		products := repositories.NewMemoryProductRepository()
		if _, err := Seed(ctx, products); err != nil {
			return Repositories{}, err
		}
		return Repositories{
			Products: products,
			Sales:    repositories.NewMemorySaleRepository(),
			Staff:    repositories.NewMemoryStaffRepository(),
		}, nil

	case "mongo":
		mongoDB, err := database.NewMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return Repositories{}, err
		}
		a.closers = append(a.closers, mongoDB.Close)

		// sales and staff accounts are relational; keep them in SQLite
		db, err := a.openSQL("sqlite", cfg.Database.DSN)
		if err != nil {
			return Repositories{}, err
		}
		if err := repositories.Migrate(db); err != nil {
			return Repositories{}, err
		}
		return Repositories{
			Products: repositories.NewMongoProductRepository(mongoDB.Database, cfg.Catalog.Collection),
			Sales:    repositories.NewGORMSaleRepository(db),
			Staff:    repositories.NewGORMStaffRepository(db),
		}, nil

	case "postgres", "sqlite":
		db, err := a.openSQL(cfg.Catalog.Backend, cfg.Database.DSN)
		if err != nil {
			return Repositories{}, err
		}
		if err := repositories.Migrate(db); err != nil {
			return Repositories{}, err
		}
		return Repositories{
			Products: repositories.NewGORMProductRepository(db),
			Sales:    repositories.NewGORMSaleRepository(db),
			Staff:    repositories.NewGORMStaffRepository(db),
		}, nil
	}
	return Repositories{}, fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
}

// openSQL opens a GORM connection and registers it for Close.
func (a *App) openSQL(driver, dsn string) (*gorm.DB, error) {
	db, err := database.OpenSQL(driver, dsn)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s connection pool: %w", driver, err)
	}
	a.closers = append(a.closers, sqlDB.Close)
	return db, nil
}

func (a *App) newFiber() *fiber.App {
	app := fiber.New(fiber.Config{AppName: "ferreteria"})

	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		rabbit := "disabled"
		if a.mq != nil {
			rabbit = "connected"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"catalog":  a.Store.State().String(),
			"backend":  a.Config.Catalog.Backend,
			"rabbitMQ": rabbit,
		})
	})

	apiV1 := app.Group("/api/v1")

	handlers.NewAuthHandler(a.Auth).RegisterRoutes(apiV1)

	store := apiV1.Group("/" + handlers.StorefrontView.Name)
	handlers.NewProductHandler(a.Store, a.Sales, handlers.StorefrontView).RegisterRoutes(store)

	manage := apiV1.Group("/"+handlers.ManagementView.Name, middleware.AuthRequired(a.Auth))
	handlers.NewProductHandler(a.Store, a.Sales, handlers.ManagementView).RegisterRoutes(manage)
	handlers.NewReportHandler(a.Reports, a.Sales).RegisterRoutes(manage)

	return app
}

// StartConsumer logs every event arriving on the catalog queue. It is a no-op
// when RabbitMQ is disabled.
func (a *App) StartConsumer() error {
	if a.mq == nil {
		return nil
	}
	return a.mq.Consume(LogCatalogEvent)
}

// LogCatalogEvent is the consumer handler of the serve command. Malformed
// bodies are logged and acknowledged so they are not redelivered forever.
func LogCatalogEvent(msg amqp.Delivery) error {
	var event services.CatalogEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		zap.L().Warn("discarding malformed catalog event",
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err))
		return nil
	}
	zap.L().Info("catalog event",
		zap.String("type", msg.Type),
		zap.String("product_id", event.ProductID),
		zap.Time("occurred_at", event.OccurredAt))
	return nil
}

// Close releases backend connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
