package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"trinity-schools/app/models"
	"trinity-schools/app/temporal"
)

var (
	// ErrTermNotFound is returned when the requested term is in no academic year.
	ErrTermNotFound = errors.New("term not found")
	// ErrTermStillOpen is returned when freezing a term whose end date has not passed.
	ErrTermStillOpen = errors.New("term has not ended")
)

// SnapshotRepository is the persistence the snapshot recorder needs.
type SnapshotRepository interface {
	GetAcademicYearsWithTerms(ctx context.Context) ([]*models.AcademicYear, error)
	GetPupilsWithoutSnapshot(ctx context.Context, termID string) ([]*models.Pupil, error)
	InsertPupilTermSnapshot(ctx context.Context, snap *models.PupilTermSnapshot) (bool, error)
}

// FreezeResult summarises one freeze run.
type FreezeResult struct {
	TermsFrozen int `json:"terms_frozen"`
	Created     int `json:"created"`
	Failed      int `json:"failed"`
}

// FreezeEndedTermSnapshots writes a snapshot for every active pupil lacking
// one in each term that ended before now and no more than window ago; a zero
// window takes every ended term. Running it again creates nothing new.
//
// Older terms are left alone: the pupil's current class may already differ
// from the one they had then, and those terms resolve as fallback_live
// instead. FreezeTermSnapshots freezes such a term on request.
func FreezeEndedTermSnapshots(ctx context.Context, repo SnapshotRepository, now time.Time, window time.Duration) (FreezeResult, error) {
	log.Println("[SNAPSHOT] Starting ended-term snapshot freeze...")

	years, err := repo.GetAcademicYearsWithTerms(ctx)
	if err != nil {
		return FreezeResult{}, errors.Wrap(err, "load academic years")
	}

	var total FreezeResult
	for _, year := range years {
		for _, term := range year.Terms {
			if !term.HasEnded(now) || !endedWithin(term, now, window) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return total, err
			}

			res, err := freezeTerm(ctx, repo, year, term, now)
			if err != nil {
				log.Printf("[SNAPSHOT] Failed to freeze term %s (%s): %v", term.Name, term.ID, err)
				continue
			}
			total.TermsFrozen++
			total.Created += res.Created
			total.Failed += res.Failed
		}
	}

	log.Printf("[SNAPSHOT] Freeze completed. Terms: %d, created: %d, failed: %d",
		total.TermsFrozen, total.Created, total.Failed)
	return total, nil
}

// FreezeTermSnapshots freezes a single ended term.
func FreezeTermSnapshots(ctx context.Context, repo SnapshotRepository, termID string, now time.Time) (FreezeResult, error) {
	years, err := repo.GetAcademicYearsWithTerms(ctx)
	if err != nil {
		return FreezeResult{}, errors.Wrap(err, "load academic years")
	}

	year := models.FindAcademicYearForTerm(years, termID)
	if year == nil {
		return FreezeResult{}, errors.Wrapf(ErrTermNotFound, "term %s", termID)
	}
	term := year.FindTerm(termID)
	if !term.HasEnded(now) {
		return FreezeResult{}, errors.Wrapf(ErrTermStillOpen, "term %s ends %s", term.Name, term.EndDate.Format("2006-01-02"))
	}

	res, err := freezeTerm(ctx, repo, year, term, now)
	if err != nil {
		return FreezeResult{}, err
	}
	res.TermsFrozen = 1
	return res, nil
}

func endedWithin(term *models.Term, now time.Time, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	closed := models.StartOfDay(term.EndDate.Time).AddDate(0, 0, 1)
	return models.StartOfDay(now).Sub(closed) <= window
}

func freezeTerm(ctx context.Context, repo SnapshotRepository, year *models.AcademicYear, term *models.Term, now time.Time) (FreezeResult, error) {
	pupils, err := repo.GetPupilsWithoutSnapshot(ctx, term.ID)
	if err != nil {
		return FreezeResult{}, errors.Wrap(err, "load pupils without snapshot")
	}

	var res FreezeResult
	for _, p := range pupils {
		// Pupils registered after the term started were never in it.
		if !temporal.IsTermValidForPupil(term, p.RegisteredOn()) {
			continue
		}

		snap := &models.PupilTermSnapshot{
			ID:              uuid.NewString(),
			PupilID:         p.ID,
			TermID:          term.ID,
			AcademicYearID:  year.ID,
			ClassID:         p.ClassID,
			Section:         p.Section.OrDefault(),
			AdmissionNumber: p.AdmissionNumber,
			DateOfBirth:     p.DateOfBirth,
			FrozenAt:        now,
		}

		created, err := repo.InsertPupilTermSnapshot(ctx, snap)
		if err != nil {
			res.Failed++
			log.Printf("[SNAPSHOT] Failed to create snapshot for %s in %s: %v", p.FullName(), term.Name, err)
			continue
		}
		if created {
			res.Created++
		}
	}

	if res.Created > 0 {
		log.Printf("[SNAPSHOT] Froze %d pupils for %s", res.Created, term.Name)
	}
	return res, nil
}
