package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Complaints      *handlers.ComplaintsHandler
	Teams           *handlers.TeamsHandler
	ActorMiddleware *auth.ActorMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	protected := app.Group("", cfg.ActorMiddleware.Handle)

	complaints := protected.Group("/complaints")
	complaints.Get("/:id", cfg.Complaints.Get)
	complaints.Post("/:id/assign", cfg.Complaints.Assign)
	complaints.Post("/:id/advance", cfg.Complaints.Advance)
	complaints.Post("/:id/rating", cfg.Complaints.Rate)

	teams := protected.Group("/teams")
	teams.Get("/:id/workers", cfg.Teams.ListWorkers)
}
