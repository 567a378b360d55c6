package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/wallboard-service/internal/persistence"
)

const readinessTimeout = 2 * time.Second

type dependencyCheck struct {
	name string
	// ping is nil when the dependency is served by an in-memory store.
	ping func(context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	checks      []dependencyCheck
}

// NewHealthHandler returns a new handler instance. A postgres handle without a
// pool or a nil mongo handle is reported as "memory" and never fails readiness.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis, mongo *persistence.Mongo) *HealthHandler {
	checks := []dependencyCheck{{name: "postgres"}, {name: "redis", ping: redis.Ping}, {name: "mongo"}}
	if !postgres.InMemory() {
		checks[0].ping = postgres.Ping
	}
	if mongo != nil {
		checks[2].ping = mongo.Ping
	}
	return &HealthHandler{serviceName: serviceName, version: version, checks: checks}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for _, check := range h.checks {
		switch {
		case check.ping == nil:
			depStatus[check.name] = "memory"
		default:
			if err := check.ping(ctx); err != nil {
				depStatus[check.name] = err.Error()
				ready = false
				continue
			}
			depStatus[check.name] = "ok"
		}
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": depStatus,
			},
		})
	}
	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": depStatus,
	})
}
