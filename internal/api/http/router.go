package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/query-service/internal/api/http/handlers"
	"github.com/spec-kit/query-service/internal/auth"
	"github.com/spec-kit/query-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Queries        *handlers.QueriesHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	MetricsPath    string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, cfg.Metrics.Handler())
	}

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	tickets.Get("/", auth.RequireAdmin(), cfg.Queries.ListAll)
	tickets.Get("/mine", cfg.Queries.ListMine)
	tickets.Post("/", auth.RequireStudent(), cfg.Queries.Create)
	tickets.Get("/:id", cfg.Queries.Get)
	tickets.Post("/:id/reply", cfg.Queries.Reply)
	tickets.Put("/:id/status", cfg.Queries.SetStatus)
	tickets.Put("/:id/priority", auth.RequireAdmin(), cfg.Queries.SetPriority)
	tickets.Put("/:id/favorite", cfg.Queries.ToggleFavorite)
	tickets.Put("/:id/read", cfg.Queries.MarkRead)
	tickets.Delete("/:id", cfg.Queries.Delete)
}
