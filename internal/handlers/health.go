package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/database"
)

// HealthHandler reports dependency health.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Database pings the database.
func (h *HealthHandler) Database(c *fiber.Ctx) error {
	started := time.Now()
	if err := database.Ping(c.UserContext(), h.db); err != nil {
		return apperr.Unavailable("database is unreachable", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"status":    "ok",
			"latencyMs": time.Since(started).Milliseconds(),
		},
	})
}
