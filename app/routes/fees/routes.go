package fees

import (
	"github.com/gofiber/fiber/v2"

	"trinity-schools/app/routes/auth"
)

// SetupFeesRoutes sets up the fees routes
func SetupFeesRoutes(app fiber.Router, h *Handler) {
	feesAPI := app.Group("/api/fees")
	feesAPI.Use(auth.AuthMiddleware)

	feesAPI.Get("/pupils/:id", h.GetPupilFeesAPI)
	feesAPI.Post("/batch", h.BatchFeesAPI)

	feesAPI.Get("/cache/stats", h.CacheStatsAPI)
	feesAPI.Post("/cache/invalidate", h.InvalidateCacheAPI)
	feesAPI.Delete("/cache", auth.RoleMiddleware("admin"), h.ClearCacheAPI)
}
