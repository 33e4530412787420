package server

import (
	"context"
	"time"

	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// Options wires the app's collaborators.
type Options struct {
	Products *services.ProductService
	// Auth enables /auth routes and guards product writes when non-nil.
	Auth *services.AuthService
	// HealthCheck reports datastore health; nil means there is nothing to check.
	HealthCheck      func(ctx context.Context) error
	Logger           *zap.Logger
	DisableAccessLog bool
}

// New builds the Fiber app with middleware, the error translator and all routes.
func New(opts Options) *fiber.App {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "catalog",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(fiberrecover.New())
	app.Use(requestid.New())
	if !opts.DisableAccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	app.Get("/health", healthHandler(opts.HealthCheck))

	validate := handlers.NewValidator()

	var writeGuards []fiber.Handler
	if opts.Auth != nil {
		handlers.NewAuthHandler(opts.Auth, validate).RegisterRoutes(app)
		writeGuards = append(writeGuards, middleware.AuthRequired(opts.Auth))
	}

	handlers.NewProductHandler(opts.Products, validate).RegisterRoutes(app, writeGuards...)

	return app
}

func healthHandler(check func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		database := "not configured"
		if check != nil {
			if err := check(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":   "unhealthy",
					"time":     time.Now().Format(time.RFC3339),
					"database": err.Error(),
				})
			}
			database = "ok"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": database,
		})
	}
}
