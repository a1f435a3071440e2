package main

import (
	"log/slog"

	"github.com/dukex/fluxrt/pkg/registry"
	"github.com/dukex/fluxrt/pkg/web"
	"github.com/dukex/fluxrt/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type API struct {
	logger     *slog.Logger
	repository *workflow.Repository
	manager    *workflow.Manager
	registry   *registry.Registry
	gatherer   prometheus.Gatherer
	validate   *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	repository *workflow.Repository,
	manager *workflow.Manager,
	registry *registry.Registry,
	gatherer prometheus.Gatherer,
) *API {
	return &API{
		logger:     logger,
		repository: repository,
		manager:    manager,
		registry:   registry,
		gatherer:   gatherer,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.repository, a.manager, a.registry, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("fluxrt")
	})

	if a.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))
	}

	handlers.Routes(app)

	return app
}
