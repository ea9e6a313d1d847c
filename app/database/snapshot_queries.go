package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"trinity-schools/app/models"
)

// GetPupilTermSnapshot returns the frozen attributes of a pupil for a term,
// or (nil, nil) when the term was never frozen for that pupil.
func (r *Repository) GetPupilTermSnapshot(ctx context.Context, pupilID, termID string) (*models.PupilTermSnapshot, error) {
	query := `SELECT id, pupil_id, term_id, academic_year_id, COALESCE(class_id::text, ''), COALESCE(section, ''),
			  COALESCE(admission_number, ''), date_of_birth, frozen_at
			  FROM pupil_term_snapshots
			  WHERE pupil_id = $1 AND term_id = $2`

	snap := &models.PupilTermSnapshot{}
	var section string
	err := r.DB.QueryRowContext(ctx, query, pupilID, termID).Scan(&snap.ID, &snap.PupilID, &snap.TermID,
		&snap.AcademicYearID, &snap.ClassID, &section, &snap.AdmissionNumber, &snap.DateOfBirth, &snap.FrozenAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query pupil term snapshot")
	}
	snap.Section = models.Section(section)
	return snap, nil
}

// GetPupilsWithoutSnapshot lists active pupils that have no snapshot for termID.
func (r *Repository) GetPupilsWithoutSnapshot(ctx context.Context, termID string) ([]*models.Pupil, error) {
	query := `SELECT ` + pupilColumns + `
			  FROM pupils p
			  WHERE p.deleted_at IS NULL AND p.status = 'Active'
			  AND NOT EXISTS (
				  SELECT 1 FROM pupil_term_snapshots s
				  WHERE s.pupil_id = p.id AND s.term_id = $1
			  )`

	rows, err := r.DB.QueryContext(ctx, query, termID)
	if err != nil {
		return nil, errors.Wrap(err, "query pupils without snapshot")
	}
	defer rows.Close()

	var pupils []*models.Pupil
	for rows.Next() {
		p, err := scanPupil(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan pupil")
		}
		pupils = append(pupils, p)
	}
	return pupils, errors.Wrap(rows.Err(), "iterate pupils without snapshot")
}

// InsertPupilTermSnapshot stores a snapshot. A second snapshot for the same
// pupil and term is ignored; it reports whether a row was written.
func (r *Repository) InsertPupilTermSnapshot(ctx context.Context, snap *models.PupilTermSnapshot) (bool, error) {
	query := `INSERT INTO pupil_term_snapshots
			  (id, pupil_id, term_id, academic_year_id, class_id, section, admission_number, date_of_birth, frozen_at)
			  VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8, $9)
			  ON CONFLICT (pupil_id, term_id) DO NOTHING`

	res, err := r.DB.ExecContext(ctx, query, snap.ID, snap.PupilID, snap.TermID, snap.AcademicYearID,
		snap.ClassID, string(snap.Section), snap.AdmissionNumber, snap.DateOfBirth, snap.FrozenAt)
	if err != nil {
		return false, errors.Wrap(err, "insert pupil term snapshot")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
