// Package requirements lists the term requirements (uniform, stationery and
// similar items) a pupil is accountable for, using the class and section the
// pupil actually had in each term.
package requirements

import (
	"context"

	"trinity-schools/app/models"
	"trinity-schools/app/snapshots"
	"trinity-schools/app/temporal"
)

// HistoricalResolver resolves a pupil's attributes for a term.
type HistoricalResolver interface {
	GetHistoricalPupilDataForTerm(ctx context.Context, pupil *models.Pupil, termID string, year *models.AcademicYear) *snapshots.Resolution
}

// TermRequirements groups the requirements that applied to a pupil in one term.
type TermRequirements struct {
	AcademicYearID string                `json:"academic_year_id"`
	TermID         string                `json:"term_id"`
	TermName       string                `json:"term_name"`
	ClassID        string                `json:"class_id"`
	Section        models.Section        `json:"section"`
	Source         snapshots.Source      `json:"source"`
	Items          []*models.Requirement `json:"items"`
	TotalValue     float64               `json:"total_value"`
}

func matches(r *models.Requirement, yearID, termID string, attrs snapshots.Attributes) bool {
	if !r.IsActive || r.AcademicYearID != yearID || r.TermID != termID {
		return false
	}
	if r.ClassID != "" && r.ClassID != attrs.ClassID {
		return false
	}
	return r.Section == "" || r.Section == attrs.Section
}

// GetApplicableRequirements walks every academic year and term valid for the
// pupil and returns the requirements that applied in each term. Terms with no
// matching requirement are omitted.
func GetApplicableRequirements(ctx context.Context, resolver HistoricalResolver, pupil *models.Pupil, reqs []*models.Requirement, years []*models.AcademicYear) []TermRequirements {
	reg := pupil.RegisteredOn()
	var out []TermRequirements

	for _, year := range temporal.GetValidAcademicYearsForPupil(years, reg) {
		for _, term := range temporal.GetValidTermsForPupil(year, reg) {
			res := resolver.GetHistoricalPupilDataForTerm(ctx, pupil, term.ID, year)
			if res == nil {
				continue
			}

			tr := TermRequirements{
				AcademicYearID: year.ID,
				TermID:         term.ID,
				TermName:       term.Name,
				ClassID:        res.ClassID,
				Section:        res.Section,
				Source:         res.Source,
			}
			for _, r := range reqs {
				if matches(r, year.ID, term.ID, res.Attributes) {
					tr.Items = append(tr.Items, r)
					tr.TotalValue += float64(r.Quantity) * r.UnitPrice
				}
			}
			if len(tr.Items) > 0 {
				out = append(out, tr)
			}
		}
	}
	return out
}
