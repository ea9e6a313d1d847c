// Package temporal decides which academic years and terms apply to a pupil
// given the date the pupil was registered in the system.
package temporal

import (
	"time"

	"trinity-schools/app/models"
)

// Period is a term together with the academic year that owns it.
type Period struct {
	Term         *models.Term         `json:"term"`
	AcademicYear *models.AcademicYear `json:"academic_year"`
}

// IsAcademicYearValidForPupil reports whether the year ends on or after the
// registration date. Pupils without a registration date see every year.
func IsAcademicYearValidForPupil(year *models.AcademicYear, registrationDate *time.Time) bool {
	if registrationDate == nil {
		return true
	}
	return !models.StartOfDay(year.EndDate.Time).Before(models.StartOfDay(*registrationDate))
}

// IsTermValidForPupil reports whether the pupil was registered on or before
// the term's first day. Pupils without a registration date see every term.
func IsTermValidForPupil(term *models.Term, registrationDate *time.Time) bool {
	if registrationDate == nil {
		return true
	}
	return !models.StartOfDay(*registrationDate).After(models.StartOfDay(term.StartDate.Time))
}

// GetValidAcademicYearsForPupil filters years with IsAcademicYearValidForPupil.
func GetValidAcademicYearsForPupil(years []*models.AcademicYear, registrationDate *time.Time) []*models.AcademicYear {
	if registrationDate == nil {
		return years
	}
	valid := make([]*models.AcademicYear, 0, len(years))
	for _, y := range years {
		if IsAcademicYearValidForPupil(y, registrationDate) {
			valid = append(valid, y)
		}
	}
	return valid
}

// GetValidTermsForPupil filters the year's terms with IsTermValidForPupil.
func GetValidTermsForPupil(year *models.AcademicYear, registrationDate *time.Time) []*models.Term {
	if registrationDate == nil {
		return year.Terms
	}
	valid := make([]*models.Term, 0, len(year.Terms))
	for _, t := range year.Terms {
		if IsTermValidForPupil(t, registrationDate) {
			valid = append(valid, t)
		}
	}
	return valid
}

// GetPreviousPeriods lists, oldest first, every term before currentTermID that
// is valid for the pupil. Years starting after currentYear are never included.
//
// When currentTermID is not part of currentYear no term of currentYear is
// returned; earlier years are unaffected.
func GetPreviousPeriods(currentTermID string, currentYear *models.AcademicYear, allYears []*models.AcademicYear, registrationDate *time.Time) []Period {
	sorted := models.SortAcademicYears(allYears)

	currentStart := currentYear.StartDate.Time
	currentIndex := currentYear.TermIndex(currentTermID)

	var periods []Period
	for _, year := range sorted {
		if year.StartDate.After(currentStart) {
			continue
		}
		if !IsAcademicYearValidForPupil(year, registrationDate) {
			continue
		}

		if year.ID == currentYear.ID {
			for i, term := range year.Terms {
				if i >= currentIndex {
					break
				}
				if IsTermValidForPupil(term, registrationDate) {
					periods = append(periods, Period{Term: term, AcademicYear: year})
				}
			}
			continue
		}

		for _, term := range year.Terms {
			if IsTermValidForPupil(term, registrationDate) {
				periods = append(periods, Period{Term: term, AcademicYear: year})
			}
		}
	}
	return periods
}
