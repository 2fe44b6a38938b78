// Package main provides the Fluxion API server implementation.
package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/fluxionhq/fluxion/pkg/eventbus"
	"github.com/fluxionhq/fluxion/pkg/persistence"
	"github.com/fluxionhq/fluxion/pkg/ratelimit"
	"github.com/fluxionhq/fluxion/pkg/registry"
	"github.com/fluxionhq/fluxion/pkg/services"
	"github.com/fluxionhq/fluxion/pkg/web"
)

type API struct {
	logger           *slog.Logger
	persistence      persistence.Persistence
	registry         *registry.Registry
	eventBus         eventbus.EventBus
	limiter          ratelimit.Limiter
	validate         *validator.Validate
	executionTimeout time.Duration
	maxConcurrent    int64
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	limiter ratelimit.Limiter,
	executionTimeout time.Duration,
	maxConcurrent int64,
) *API {
	return &API{
		logger:           logger,
		persistence:      persistence,
		registry:         registry,
		eventBus:         eventBus,
		limiter:          limiter,
		validate:         validator.New(validator.WithRequiredStructEnabled()),
		executionTimeout: executionTimeout,
		maxConcurrent:    maxConcurrent,
	}
}

func (a *API) App() *fiber.App {
	deploymentService := services.NewDeployment(a.persistence, a.registry, a.eventBus, a.logger)
	executionService := services.NewExecution(a.persistence, a.registry, a.eventBus, a.logger,
		services.WithTimeout(a.executionTimeout),
		services.WithMaxConcurrent(a.maxConcurrent),
	)

	handlers := web.NewAPIHandlers(deploymentService, executionService, a.limiter, a.validate, a.registry, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Fluxion API")
	})

	app.Post("/deploy", handlers.Deploy)
	app.Get("/deployments", handlers.GetDeployments)

	w := app.Group("/workflows")
	w.Get("/:slug", handlers.GetWorkflow)
	w.Get("/:slug/schema", handlers.GetSchema)
	w.Get("/:slug/docs", handlers.GetDocs)
	w.Post("/:slug/execute", handlers.Execute)
	w.Get("/:slug/executions", handlers.GetExecutions)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/regenerate-key", handlers.RegenerateKey)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
