package fees

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"trinity-schools/app/models"
	"trinity-schools/app/snapshots"
)

const batchConcurrency = 32

// AttributeResolver projects a pupil onto the attributes that applied in a term.
// *snapshots.Resolver implements it.
type AttributeResolver interface {
	ProjectPupil(ctx context.Context, pupil *models.Pupil, termID string, year *models.AcademicYear) (*models.Pupil, *snapshots.Resolution)
}

// BatchProcessPupils computes fee breakdowns for a whole roster. Every distinct
// group is computed once up front; pupils are then composed concurrently
// against the warm cache. A failure for one pupil yields a zeroed result for
// that pupil only.
func (c *Cache) BatchProcessPupils(ctx context.Context, pupils []*models.Pupil, feeStructures []*models.FeeStructure, paymentsByPupil map[string][]*models.Payment, academicYears []*models.AcademicYear, termID string) (map[string]*OptimizedPupilFees, error) {
	start := time.Now()

	year := models.FindAcademicYearForTerm(academicYears, termID)
	if year == nil {
		return nil, errors.Wrapf(ErrAcademicYearNotFound, "term %s", termID)
	}

	roster := pupils
	if c.resolver != nil {
		roster = make([]*models.Pupil, len(pupils))
		for i, p := range pupils {
			roster[i], _ = c.resolver.ProjectPupil(ctx, p, termID, year)
		}
	}

	groups := c.GroupPupilsByFeeCharacteristics(roster, year.ID, termID)
	keyOf := make(map[string]GroupKey, len(roster))
	for key, group := range groups {
		for _, id := range group.PupilIDs {
			keyOf[id] = key
		}
	}

	var warm errgroup.Group
	warm.SetLimit(batchConcurrency)
	for _, group := range groups {
		group := group
		warm.Go(func() error {
			_, _, err := c.groupFees(group, feeStructures, academicYears)
			return err
		})
	}
	if err := warm.Wait(); err != nil {
		return nil, errors.Wrap(err, "pre-warm group fees")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make(map[string]*OptimizedPupilFees, len(roster))
	var mu sync.Mutex

	var compose errgroup.Group
	compose.SetLimit(batchConcurrency)
	for _, p := range roster {
		p := p
		compose.Go(func() error {
			res, err := c.composeIsolated(p, keyOf[p.ID], feeStructures, paymentsByPupil[p.ID], academicYears)
			if err != nil {
				log.Printf("[FEE-CACHE] fee calculation failed for pupil %s: %v", p.ID, err)
				res = zeroFees(p.ID)
			}
			mu.Lock()
			results[p.ID] = res
			mu.Unlock()
			return nil
		})
	}
	_ = compose.Wait()

	log.Printf("[FEE-CACHE] batch processed %d pupils in %d groups in %s", len(results), len(groups), time.Since(start))
	return results, nil
}

// composeIsolated composes against the batch's own grouping, so concurrent
// requests regrouping the same pupils cannot change the key used here.
func (c *Cache) composeIsolated(p *models.Pupil, key GroupKey, feeStructures []*models.FeeStructure, payments []*models.Payment, academicYears []*models.AcademicYear) (res *OptimizedPupilFees, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return c.composePupilFees(time.Now(), p, key, feeStructures, payments, academicYears)
}
