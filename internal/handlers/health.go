package handlers

import (
	"strategiz/internal/repositories/cache"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	cache *cache.CacheService
}

func NewHealthHandler(db *gorm.DB, cacheService *cache.CacheService) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cacheService,
	}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := fiber.StatusOK
	services := fiber.Map{}

	if h.db != nil {
		services["database"] = "connected"
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.Ping() != nil {
			services["database"] = "unreachable"
			status = fiber.StatusServiceUnavailable
		}
	} else {
		services["database"] = "embedded"
	}

	if h.cache != nil {
		services["redis"] = "connected"
		if err := h.cache.HealthCheck(c.Context()); err != nil {
			services["redis"] = "unreachable"
			status = fiber.StatusServiceUnavailable
		}
	} else {
		services["redis"] = "disabled"
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"services": services,
	})
}
