package academic

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"trinity-schools/app/models"
	"trinity-schools/app/routes/auth"
	"trinity-schools/app/routes/helpers"
)

// Calendar is the academic calendar source. *database.Repository implements it.
type Calendar interface {
	GetAcademicYearsWithTerms(ctx context.Context) ([]*models.AcademicYear, error)
}

// Handler serves the read-only academic calendar.
type Handler struct {
	Calendar Calendar
	Now      func() time.Time
}

func NewHandler(calendar Calendar) *Handler {
	return &Handler{Calendar: calendar, Now: time.Now}
}

// RegisterRoutes registers the academic year and term routes
func RegisterRoutes(app fiber.Router, h *Handler) {
	academicAPI := app.Group("/api/academic-years")
	academicAPI.Use(auth.AuthMiddleware)

	academicAPI.Get("/", h.GetAllAcademicYearsAPI)
	academicAPI.Get("/current", h.GetCurrentTermAPI)
}

func (h *Handler) years(c *fiber.Ctx) ([]*models.AcademicYear, error) {
	years, err := h.Calendar.GetAcademicYearsWithTerms(c.UserContext())
	if err != nil {
		log.Printf("[ACADEMIC] Failed to load academic years: %v", err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load academic years")
	}
	return models.SortAcademicYears(years), nil
}

// GetAllAcademicYearsAPI returns every academic year with its terms
func (h *Handler) GetAllAcademicYearsAPI(c *fiber.Ctx) error {
	years, err := h.years(c)
	if err != nil {
		return err
	}
	return helpers.Success(c, years)
}

// GetCurrentTermAPI returns the current term and its academic year
func (h *Handler) GetCurrentTermAPI(c *fiber.Ctx) error {
	years, err := h.years(c)
	if err != nil {
		return err
	}

	year, term := models.FindCurrentTerm(years, h.Now())
	if term == nil {
		return fiber.NewError(fiber.StatusNotFound, "No current term")
	}
	return helpers.Success(c, fiber.Map{
		"academic_year_id":   year.ID,
		"academic_year_name": year.Name,
		"term":               term,
		"has_ended":          term.HasEnded(h.Now()),
	})
}
