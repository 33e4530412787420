package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/repositories"
	"catalog/internal/server"
	"catalog/internal/services"
	"catalog/pkg/logger"
	"catalog/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	// --- Repositories ---
	var (
		productRepo repositories.ProductRepository
		userRepo    repositories.UserRepository
		healthCheck func(ctx context.Context) error
	)
	if cfg.DBDriver == config.DriverMemory {
		productRepo = repositories.NewMemoryProductRepository()
		userRepo = repositories.NewMemoryUserRepository()
		zlog.Warn("using in-memory storage, data is lost on restart")
	} else {
		db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, zlog)
		if err != nil {
			zlog.Fatal("failed to open database", zap.Error(err))
		}
		defer func() {
			if err := database.Close(db); err != nil {
				zlog.Error("failed to close database", zap.Error(err))
			}
		}()
		if cfg.DBAutoMigrate {
			if err := database.Migrate(db); err != nil {
				zlog.Fatal("failed to migrate database", zap.Error(err))
			}
		}
		productRepo = repositories.NewGORMProductRepository(db)
		userRepo = repositories.NewGORMUserRepository(db)
		healthCheck = func(ctx context.Context) error { return database.Ping(ctx, db) }
	}

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.RabbitMQExchange,
			Queue:    cfg.RabbitMQQueue,
		}, zlog)
		if err != nil {
			zlog.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer func() {
			if err := mqClient.Close(); err != nil {
				zlog.Error("failed to close RabbitMQ client", zap.Error(err))
			}
		}()
		publisher = mqClient

		if cfg.ConsumeEvents {
			handler := func(msg amqp.Delivery) error {
				zlog.Info("received product event",
					zap.String("routing_key", msg.RoutingKey),
					zap.String("message_id", msg.MessageId),
					zap.ByteString("body", msg.Body))
				return nil
			}
			if err := mqClient.ConsumeProductEvents(handler); err != nil {
				zlog.Error("failed to start RabbitMQ consumer", zap.Error(err))
			}
		}
	} else {
		zlog.Info("RABBITMQ_URL not set, product events disabled")
	}

	// --- Services ---
	productService := services.NewProductService(productRepo, publisher, zlog)
	var authService *services.AuthService
	if cfg.AuthEnabled {
		authService = services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	}

	app := server.New(server.Options{
		Products:    productService,
		Auth:        authService,
		HealthCheck: healthCheck,
		Logger:      zlog,
	})

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zlog.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("db_driver", cfg.DBDriver))
		if err := app.Listen(cfg.AppPort); err != nil {
			zlog.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	zlog.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		zlog.Error("error during Fiber shutdown", zap.Error(err))
	}
	zlog.Info("server gracefully stopped")
}
