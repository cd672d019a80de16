package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// HealthHandler exposes liveness/readiness probes.
type HealthHandler struct {
	pg    *persistence.Postgres
	redis *persistence.Redis
}

// NewHealthHandler constructs handler.
func NewHealthHandler(pg *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{pg: pg, redis: redis}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready GET /health/ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{"postgres": "ok", "redis": "ok"}
	healthy := true

	if h.pg == nil || h.pg.Pool == nil {
		checks["postgres"] = "unavailable"
		healthy = false
	} else if err := h.pg.Pool.Ping(c.Context()); err != nil {
		checks["postgres"] = "unreachable"
		healthy = false
	}
	// Redis only backs the reference cache; report but stay ready.
	if err := h.redis.Ping(c.Context()); err != nil {
		checks["redis"] = "unreachable"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"checks": checks})
}
