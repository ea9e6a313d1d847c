package fees

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"trinity-schools/app/database"
	engine "trinity-schools/app/fees"
	"trinity-schools/app/models"
	"trinity-schools/app/routes/helpers"
	"trinity-schools/app/snapshots"
	"trinity-schools/app/temporal"
)

// DataSource is what the fee endpoints read. *database.Repository implements it.
type DataSource interface {
	GetAcademicYearsWithTerms(ctx context.Context) ([]*models.AcademicYear, error)
	GetPupilByID(ctx context.Context, id string) (*models.Pupil, error)
	GetActivePupils(ctx context.Context, classIDs []string) ([]*models.Pupil, error)
	GetFeeStructuresForTerm(ctx context.Context, academicYearID, termID string) ([]*models.FeeStructure, error)
	GetPaymentsForPupils(ctx context.Context, pupilIDs []string, academicYearID, termID string) (map[string][]*models.Payment, error)
}

// Handler serves the fee endpoints.
type Handler struct {
	Source   DataSource
	Cache    *engine.Cache
	Resolver engine.AttributeResolver
	Now      func() time.Time
}

// NewHandler wires the fee endpoints. resolver may be nil.
func NewHandler(source DataSource, cache *engine.Cache, resolver engine.AttributeResolver) *Handler {
	return &Handler{Source: source, Cache: cache, Resolver: resolver, Now: time.Now}
}

// PupilFeesResponse is a single pupil's breakdown with the context it was computed in.
type PupilFeesResponse struct {
	*engine.OptimizedPupilFees
	AcademicYearID string                `json:"academic_year_id"`
	TermID         string                `json:"term_id"`
	TermValid      bool                  `json:"term_valid"`
	Source         snapshots.Source      `json:"source"`
	Resolved       *snapshots.Attributes `json:"resolved,omitempty"`
}

type batchRequest struct {
	TermID   string   `json:"term_id" validate:"required"`
	ClassIDs []string `json:"class_ids" validate:"omitempty,dive,required"`
}

type invalidateRequest struct {
	AcademicYearID string `json:"academic_year_id" validate:"required"`
	TermID         string `json:"term_id" validate:"required"`
}

func statusFor(err error, what string) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, what+" not found")
	case errors.Is(err, engine.ErrAcademicYearNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Term not found in any academic year")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Request timed out")
	}
	log.Printf("[FEES] %s: %v", what, err)
	return fiber.NewError(fiber.StatusInternalServerError, "Failed to calculate fees")
}

// resolveTerm picks the requested term, or the current one when termID is empty.
func (h *Handler) resolveTerm(years []*models.AcademicYear, termID string) (*models.AcademicYear, *models.Term, error) {
	if termID == "" {
		year, term := models.FindCurrentTerm(years, h.Now())
		if term == nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "term_id is required: no current term")
		}
		return year, term, nil
	}
	year := models.FindAcademicYearForTerm(years, termID)
	if year == nil {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "Term not found in any academic year")
	}
	return year, year.FindTerm(termID), nil
}

// GetPupilFeesAPI returns one pupil's fee breakdown for a term
func (h *Handler) GetPupilFeesAPI(c *fiber.Ctx) error {
	ctx := c.UserContext()

	years, err := h.Source.GetAcademicYearsWithTerms(ctx)
	if err != nil {
		return statusFor(err, "Academic years")
	}
	year, term, err := h.resolveTerm(years, c.Query("term_id"))
	if err != nil {
		return err
	}

	pupil, err := h.Source.GetPupilByID(ctx, c.Params("id"))
	if err != nil {
		return statusFor(err, "Pupil")
	}

	feeStructures, err := h.Source.GetFeeStructuresForTerm(ctx, year.ID, term.ID)
	if err != nil {
		return statusFor(err, "Fee structures")
	}
	payments, err := h.Source.GetPaymentsForPupils(ctx, []string{pupil.ID}, year.ID, term.ID)
	if err != nil {
		return statusFor(err, "Payments")
	}

	resp := PupilFeesResponse{
		AcademicYearID: year.ID,
		TermID:         term.ID,
		TermValid:      temporal.IsTermValidForPupil(term, pupil.RegisteredOn()),
		Source:         snapshots.SourceLive,
	}

	subject := pupil
	if h.Resolver != nil {
		projected, res := h.Resolver.ProjectPupil(ctx, pupil, term.ID, year)
		subject = projected
		if res != nil {
			resp.Source = res.Source
			resp.Resolved = &res.Attributes
		}
	}

	h.Cache.GroupPupilsByFeeCharacteristics([]*models.Pupil{subject}, year.ID, term.ID)
	result, err := h.Cache.GetOptimizedPupilFees(subject, feeStructures, payments[pupil.ID], years, term.ID)
	if err != nil {
		return statusFor(err, "Pupil fees")
	}
	resp.OptimizedPupilFees = result

	return helpers.Success(c, resp)
}

// BatchFeesAPI computes breakdowns for every active pupil, optionally limited to some classes
func (h *Handler) BatchFeesAPI(c *fiber.Ctx) error {
	var req batchRequest
	if err := helpers.BindJSON(c, &req); err != nil {
		return err
	}
	ctx := c.UserContext()

	years, err := h.Source.GetAcademicYearsWithTerms(ctx)
	if err != nil {
		return statusFor(err, "Academic years")
	}
	year, term, err := h.resolveTerm(years, req.TermID)
	if err != nil {
		return err
	}

	pupils, err := h.Source.GetActivePupils(ctx, req.ClassIDs)
	if err != nil {
		return statusFor(err, "Pupils")
	}
	feeStructures, err := h.Source.GetFeeStructuresForTerm(ctx, year.ID, term.ID)
	if err != nil {
		return statusFor(err, "Fee structures")
	}

	ids := make([]string, len(pupils))
	for i, p := range pupils {
		ids[i] = p.ID
	}
	payments, err := h.Source.GetPaymentsForPupils(ctx, ids, year.ID, term.ID)
	if err != nil {
		return statusFor(err, "Payments")
	}

	results, err := h.Cache.BatchProcessPupils(ctx, pupils, feeStructures, payments, years, term.ID)
	if err != nil {
		return statusFor(err, "Batch fees")
	}

	return helpers.Success(c, fiber.Map{
		"academic_year_id": year.ID,
		"term_id":          term.ID,
		"count":            len(results),
		"results":          results,
		"stats":            h.Cache.GetCacheStats(),
	})
}

// InvalidateCacheAPI drops cached group fees for one term
func (h *Handler) InvalidateCacheAPI(c *fiber.Ctx) error {
	var req invalidateRequest
	if err := helpers.BindJSON(c, &req); err != nil {
		return err
	}

	removed := h.Cache.InvalidateCacheForTerm(req.AcademicYearID, req.TermID)
	return helpers.Success(c, fiber.Map{"removed": removed})
}

// ClearCacheAPI resets the whole fee cache
func (h *Handler) ClearCacheAPI(c *fiber.Ctx) error {
	h.Cache.ClearCache()
	return helpers.Success(c, h.Cache.GetCacheStats())
}

// CacheStatsAPI reports cache size and efficiency
func (h *Handler) CacheStatsAPI(c *fiber.Ctx) error {
	return helpers.Success(c, h.Cache.GetCacheStats())
}
