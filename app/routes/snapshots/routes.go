package snapshots

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"trinity-schools/app/routes/auth"
	"trinity-schools/app/routes/helpers"
	"trinity-schools/app/services"
)

type freezeRequest struct {
	TermID string `json:"term_id" validate:"required"`
}

// Handler serves the snapshot endpoints.
type Handler struct {
	Repo services.SnapshotRepository
	Now  func() time.Time
}

func NewHandler(repo services.SnapshotRepository) *Handler {
	return &Handler{Repo: repo, Now: time.Now}
}

// SetupSnapshotsRoutes sets up the snapshot routes
func SetupSnapshotsRoutes(app fiber.Router, h *Handler) {
	snapshotsAPI := app.Group("/api/snapshots")
	snapshotsAPI.Use(auth.AuthMiddleware)

	snapshotsAPI.Post("/freeze", auth.RoleMiddleware("admin"), h.FreezeTermAPI)
}

// FreezeTermAPI freezes the attributes of every active pupil for an ended term
func (h *Handler) FreezeTermAPI(c *fiber.Ctx) error {
	var req freezeRequest
	if err := helpers.BindJSON(c, &req); err != nil {
		return err
	}

	res, err := services.FreezeTermSnapshots(c.UserContext(), h.Repo, req.TermID, h.Now())
	switch {
	case errors.Is(err, services.ErrTermNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Term not found")
	case errors.Is(err, services.ErrTermStillOpen):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		log.Printf("[SNAPSHOT] Freeze of %s failed: %v", req.TermID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to freeze term")
	}

	return helpers.Success(c, res)
}
