package database

import (
	"context"

	"github.com/pkg/errors"

	"trinity-schools/app/models"
)

// GetAcademicYearsWithTerms loads every academic year with its terms ordered
// by start date.
func (r *Repository) GetAcademicYearsWithTerms(ctx context.Context) ([]*models.AcademicYear, error) {
	query := `SELECT id, name, start_date, end_date, is_current, is_active, created_at, updated_at
			  FROM academic_years
			  WHERE deleted_at IS NULL
			  ORDER BY start_date ASC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "query academic years")
	}
	defer rows.Close()

	years := []*models.AcademicYear{}
	byID := make(map[string]*models.AcademicYear)
	for rows.Next() {
		year := &models.AcademicYear{Terms: []*models.Term{}}
		if err := rows.Scan(&year.ID, &year.Name, &year.StartDate, &year.EndDate,
			&year.IsCurrent, &year.IsActive, &year.CreatedAt, &year.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan academic year")
		}
		years = append(years, year)
		byID[year.ID] = year
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate academic years")
	}

	termQuery := `SELECT id, academic_year_id, name, start_date, end_date, is_current, created_at, updated_at
				  FROM terms
				  WHERE deleted_at IS NULL
				  ORDER BY start_date ASC`

	termRows, err := r.DB.QueryContext(ctx, termQuery)
	if err != nil {
		return nil, errors.Wrap(err, "query terms")
	}
	defer termRows.Close()

	for termRows.Next() {
		term := &models.Term{}
		if err := termRows.Scan(&term.ID, &term.AcademicYearID, &term.Name, &term.StartDate, &term.EndDate,
			&term.IsCurrent, &term.CreatedAt, &term.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan term")
		}
		if year, ok := byID[term.AcademicYearID]; ok {
			year.Terms = append(year.Terms, term)
		}
	}
	return years, errors.Wrap(termRows.Err(), "iterate terms")
}
