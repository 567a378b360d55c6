package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/wallboard-service/internal/api/http/handlers"
	"github.com/spec-kit/wallboard-service/internal/auth"
	"github.com/spec-kit/wallboard-service/internal/domain"
	"github.com/spec-kit/wallboard-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Accounts       *handlers.AccountsHandler
	Teams          *handlers.TeamsHandler
	Presence       *handlers.PresenceHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/auth/me", auth.RequireAuthenticated(), cfg.Auth.Me)
	protected.Get("/teams", auth.RequireAuthenticated(), cfg.Teams.List)

	staff := auth.RequireRole(domain.RoleAdmin, domain.RoleSupervisor)
	adminOnly := auth.RequireRole(domain.RoleAdmin)

	users := protected.Group("/users")
	users.Get("/", staff, cfg.Accounts.List)
	users.Get("/:id", staff, cfg.Accounts.Get)
	users.Post("/", adminOnly, cfg.Accounts.Create)
	users.Put("/:id", adminOnly, cfg.Accounts.Update)
	users.Delete("/:id", adminOnly, cfg.Accounts.Delete)

	status := protected.Group("/status")
	status.Post("/", auth.RequireAuthenticated(), cfg.Presence.RecordStatus)
	status.Get("/:code", auth.RequireAuthenticated(), cfg.Presence.CurrentStatus)
	status.Get("/:code/history", staff, cfg.Presence.History)

	messages := protected.Group("/messages")
	messages.Post("/", staff, cfg.Presence.SendMessage)
	messages.Get("/inbox", auth.RequireAuthenticated(), cfg.Presence.Inbox)
}
