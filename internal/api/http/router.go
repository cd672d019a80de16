package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Approvals      *handlers.ApprovalsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Post("/tickets/:id/transition", cfg.Tickets.TransitionTicket)
	api.Post("/tickets/:id/comments", cfg.Tickets.AddComment)
	api.Get("/tickets/:id/comments", cfg.Tickets.ListComments)

	api.Post("/tickets/:id/approval", cfg.Approvals.Decide)
	api.Get("/approvals/pending", cfg.Approvals.ListPending)
}
