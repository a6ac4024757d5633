package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"kasir/internal/config"
	"kasir/internal/events"
	"kasir/internal/gateway"
	"kasir/internal/handlers"
	"kasir/internal/middleware"
	"kasir/internal/models"
	"kasir/internal/repositories"
	"kasir/internal/services"
	"kasir/pkg/kafka"
	"kasir/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Storage ---
	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	repos := newRepositories(db)

	if cfg.SeedProducts {
		seedProducts(repos.products)
	}

	// --- Order events ---
	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s publisher: %v", cfg.EventBroker, err)
	}
	defer closePublisher()

	// --- Payment provider ---
	gw := gateway.NewClient(cfg.Paymob, nil)

	app := newApp(cfg, repos, gw, publisher)

	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	log.Println("Server gracefully stopped")
}

type repositorySet struct {
	products repositories.ProductRepository
	orders   repositories.OrderRepository
	payments repositories.PaymentRepository
	tx       repositories.Transactor
}

// newRepositories returns GORM repositories, or in-memory ones when db is nil.
func newRepositories(db *gorm.DB) repositorySet {
	if db == nil {
		orders := repositories.NewMockOrderRepository()
		payments := repositories.NewMockPaymentRepository()
		return repositorySet{
			products: repositories.NewMockProductRepository(),
			orders:   orders,
			payments: payments,
			tx:       repositories.NewMockTransactor(orders, payments),
		}
	}
	return repositorySet{
		products: repositories.NewGORMProductRepository(db),
		orders:   repositories.NewGORMOrderRepository(db),
		payments: repositories.NewGORMPaymentRepository(db),
		tx:       repositories.NewGORMTransactor(db),
	}
}

// openDatabase connects and migrates the schema. The memory driver has no
// database and returns nil.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	case "memory":
		log.Println("Using in-memory repositories; data is lost on restart")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DatabaseDriver, err)
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}, &models.Payment{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// newPublisher connects the configured broker. The returned func closes it.
func newPublisher(cfg *config.Config) (events.Publisher, func(), error) {
	switch cfg.EventBroker {
	case "rabbitmq":
		mqClient, err := rabbitmq.NewClient(rabbitmq.DefaultConfig(cfg.RabbitMQURL))
		if err != nil {
			return nil, nil, err
		}
		// Audit consumer: logs every order event that reaches the bound queue.
		err = mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			log.Printf("Order event %s: %s", msg.RoutingKey, string(msg.Body))
			return nil
		})
		if err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
		return events.NewRabbitPublisher(mqClient), func() {
			if err := mqClient.Close(); err != nil {
				log.Printf("Error closing RabbitMQ client: %v", err)
			}
		}, nil
	case "kafka":
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Printf("Publishing order events to Kafka topic %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
		return events.NewKafkaPublisher(producer), func() {
			if err := producer.Close(); err != nil {
				log.Printf("Error closing Kafka producer: %v", err)
			}
		}, nil
	default:
		return events.NopPublisher{}, func() {}, nil
	}
}

// newApp wires services and handlers into a Fiber app.
func newApp(cfg *config.Config, repos repositorySet, gw services.PaymentGateway, publisher events.Publisher) *fiber.App {
	productService := services.NewProductService(repos.products)
	orderService := services.NewOrderService(repos.orders, repos.products, publisher)
	checkoutService := services.NewCheckoutService(orderService, repos.orders, gw, publisher)
	webhookService := services.NewWebhookService(cfg.Paymob.HMACSecret, repos.tx, publisher)
	paymentService := services.NewPaymentService(repos.payments, repos.orders)
	authService := services.NewAuthService(cfg.JWTSecret)

	app := fiber.New(fiber.Config{
		AppName: "kasir",
		// Gateway calls are bounded by PAYMOB_TIMEOUT; allow three of them.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3*cfg.Paymob.Timeout + 10*time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"broker": cfg.EventBroker,
		})
	})

	// Provider callbacks authenticate by signature, not by JWT.
	handlers.NewWebhookHandler(webhookService).RegisterRoutes(app)

	apiV1 := app.Group("/api/v1", middleware.AuthRequired(authService))
	handlers.NewProductHandler(productService).RegisterRoutes(apiV1)
	handlers.NewOrderHandler(orderService, checkoutService).RegisterRoutes(apiV1)
	handlers.NewPaymentHandler(paymentService).RegisterRoutes(apiV1)

	return app
}

// seedProducts populates the catalog with some initial data.
func seedProducts(repo repositories.ProductRepository) {
	ctx := context.Background()
	existing, err := repo.GetAll(ctx)
	if err != nil {
		log.Printf("Error checking catalog before seeding: %v", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	products := []models.Product{
		{ID: "prod-1", Name: "Laptop", Description: "High performance laptop", Price: decimal.RequireFromString("1200.00")},
		{ID: "prod-2", Name: "Keyboard", Description: "Mechanical keyboard", Price: decimal.RequireFromString("75.00")},
		{ID: "prod-3", Name: "Mouse", Description: "Ergonomic wireless mouse", Price: decimal.RequireFromString("25.50")},
	}
	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
		} else {
			log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
		}
	}
}
