package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"medremind/internal/database"
	"medremind/internal/jobs"
)

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	db        *database.DB
	jobs      *jobs.Runner
	startedAt time.Time
	version   string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *database.DB, jobRunner *jobs.Runner, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		jobs:      jobRunner,
		startedAt: time.Now(),
		version:   version,
	}
}

// Health reports liveness plus database and job scheduler status
// GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := "ok"
	dbStatus := "ok"
	if err := h.db.Ping(); err != nil {
		status = "degraded"
		dbStatus = err.Error()
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"version":  h.version,
		"uptime":   time.Since(h.startedAt).String(),
		"database": dbStatus,
		"jobs":     h.jobs.Status(),
	})
}
