package pupils

import (
	"github.com/gofiber/fiber/v2"

	"trinity-schools/app/routes/auth"
)

// SetupPupilsRoutes sets up the pupil history routes
func SetupPupilsRoutes(app fiber.Router, h *Handler) {
	pupilsAPI := app.Group("/api/pupils")
	pupilsAPI.Use(auth.AuthMiddleware)

	pupilsAPI.Get("/:id/valid-terms", h.GetValidTermsAPI)
	pupilsAPI.Get("/:id/previous-periods", h.GetPreviousPeriodsAPI)
	pupilsAPI.Get("/:id/requirements", h.GetRequirementsAPI)
	pupilsAPI.Get("/:id/terms/:termId/snapshot", h.GetTermSnapshotAPI)
}
