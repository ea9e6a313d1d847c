package pupils

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"trinity-schools/app/database"
	"trinity-schools/app/models"
	"trinity-schools/app/requirements"
	"trinity-schools/app/routes/helpers"
	"trinity-schools/app/temporal"
)

// DataSource is what the pupil history endpoints read. *database.Repository implements it.
type DataSource interface {
	GetAcademicYearsWithTerms(ctx context.Context) ([]*models.AcademicYear, error)
	GetPupilByID(ctx context.Context, id string) (*models.Pupil, error)
	GetActiveRequirements(ctx context.Context) ([]*models.Requirement, error)
}

// Handler serves the pupil history endpoints.
type Handler struct {
	Source   DataSource
	Resolver requirements.HistoricalResolver
	Now      func() time.Time
}

func NewHandler(source DataSource, resolver requirements.HistoricalResolver) *Handler {
	return &Handler{Source: source, Resolver: resolver, Now: time.Now}
}

// TermResponse is a term flattened with its academic year.
type TermResponse struct {
	AcademicYearID   string            `json:"academic_year_id"`
	AcademicYearName string            `json:"academic_year_name"`
	TermID           string            `json:"term_id"`
	TermName         string            `json:"term_name"`
	StartDate        models.CustomTime `json:"start_date"`
	EndDate          models.CustomTime `json:"end_date"`
}

func termResponse(year *models.AcademicYear, term *models.Term) TermResponse {
	return TermResponse{
		AcademicYearID:   year.ID,
		AcademicYearName: year.Name,
		TermID:           term.ID,
		TermName:         term.Name,
		StartDate:        term.StartDate,
		EndDate:          term.EndDate,
	}
}

func statusFor(err error, what string) error {
	if errors.Is(err, database.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, what+" not found")
	}
	log.Printf("[PUPILS] %s: %v", what, err)
	return fiber.NewError(fiber.StatusInternalServerError, "Failed to load "+what)
}

func (h *Handler) load(c *fiber.Ctx) (*models.Pupil, []*models.AcademicYear, error) {
	ctx := c.UserContext()
	pupil, err := h.Source.GetPupilByID(ctx, c.Params("id"))
	if err != nil {
		return nil, nil, statusFor(err, "Pupil")
	}
	years, err := h.Source.GetAcademicYearsWithTerms(ctx)
	if err != nil {
		return nil, nil, statusFor(err, "Academic years")
	}
	return pupil, models.SortAcademicYears(years), nil
}

// GetValidTermsAPI lists the terms the pupil was enrolled for, oldest first
func (h *Handler) GetValidTermsAPI(c *fiber.Ctx) error {
	pupil, years, err := h.load(c)
	if err != nil {
		return err
	}

	reg := pupil.RegisteredOn()
	terms := []TermResponse{}
	for _, year := range temporal.GetValidAcademicYearsForPupil(years, reg) {
		for _, term := range temporal.GetValidTermsForPupil(year, reg) {
			terms = append(terms, termResponse(year, term))
		}
	}

	return helpers.Success(c, terms)
}

// GetPreviousPeriodsAPI lists the pupil's terms before term_id (default: the current term)
func (h *Handler) GetPreviousPeriodsAPI(c *fiber.Ctx) error {
	pupil, years, err := h.load(c)
	if err != nil {
		return err
	}

	var year *models.AcademicYear
	termID := c.Query("term_id")
	if termID == "" {
		var term *models.Term
		year, term = models.FindCurrentTerm(years, h.Now())
		if term == nil {
			return fiber.NewError(fiber.StatusBadRequest, "term_id is required: no current term")
		}
		termID = term.ID
	} else {
		year = models.FindAcademicYearForTerm(years, termID)
		if year == nil {
			return fiber.NewError(fiber.StatusNotFound, "Term not found in any academic year")
		}
	}

	periods := []TermResponse{}
	for _, p := range temporal.GetPreviousPeriods(termID, year, years, pupil.RegisteredOn()) {
		periods = append(periods, termResponse(p.AcademicYear, p.Term))
	}

	return helpers.Success(c, periods)
}

// GetRequirementsAPI lists the requirements that applied to the pupil in each term
func (h *Handler) GetRequirementsAPI(c *fiber.Ctx) error {
	pupil, years, err := h.load(c)
	if err != nil {
		return err
	}

	reqs, err := h.Source.GetActiveRequirements(c.UserContext())
	if err != nil {
		return statusFor(err, "Requirements")
	}

	terms := requirements.GetApplicableRequirements(c.UserContext(), h.Resolver, pupil, reqs, years)
	if terms == nil {
		terms = []requirements.TermRequirements{}
	}
	return helpers.Success(c, terms)
}

// GetTermSnapshotAPI returns the class and section that applied to the pupil in a term
func (h *Handler) GetTermSnapshotAPI(c *fiber.Ctx) error {
	pupil, years, err := h.load(c)
	if err != nil {
		return err
	}

	termID := c.Params("termId")
	year := models.FindAcademicYearForTerm(years, termID)
	if year == nil {
		return fiber.NewError(fiber.StatusNotFound, "Term not found in any academic year")
	}

	res := h.Resolver.GetHistoricalPupilDataForTerm(c.UserContext(), pupil, termID, year)
	return helpers.Success(c, fiber.Map{
		"pupil_id":   pupil.ID,
		"term":       termResponse(year, year.FindTerm(termID)),
		"term_valid": temporal.IsTermValidForPupil(year.FindTerm(termID), pupil.RegisteredOn()),
		"resolution": res,
	})
}
