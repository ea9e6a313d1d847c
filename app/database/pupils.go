package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"trinity-schools/app/models"
)

const pupilColumns = `p.id, p.first_name, p.last_name, p.class_id, p.section, p.admission_number,
			  p.registration_date, p.date_of_birth, p.status, p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPupil(row rowScanner) (*models.Pupil, error) {
	var classID, section, admissionNumber *string
	var registrationDate, dateOfBirth *time.Time
	var status string

	p := &models.Pupil{}
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &classID, &section, &admissionNumber,
		&registrationDate, &dateOfBirth, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if classID != nil {
		p.ClassID = *classID
	}
	if section != nil {
		p.Section = models.Section(*section)
	}
	if admissionNumber != nil {
		p.AdmissionNumber = *admissionNumber
	}
	if registrationDate != nil {
		p.RegistrationDate = &models.CustomTime{Time: *registrationDate}
	}
	if dateOfBirth != nil {
		p.DateOfBirth = models.CustomTime{Time: *dateOfBirth}
	}
	p.Status = models.PupilStatus(status)
	return p, nil
}

// GetPupilByID loads one pupil with its individually assigned fees.
func (r *Repository) GetPupilByID(ctx context.Context, id string) (*models.Pupil, error) {
	query := `SELECT ` + pupilColumns + `
			  FROM pupils p
			  WHERE p.id = $1 AND p.deleted_at IS NULL`

	p, err := scanPupil(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "pupil %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query pupil")
	}

	if err := r.attachAssignedFees(ctx, []*models.Pupil{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// GetActivePupils loads active pupils, optionally restricted to classIDs.
func (r *Repository) GetActivePupils(ctx context.Context, classIDs []string) ([]*models.Pupil, error) {
	query := `SELECT ` + pupilColumns + `
			  FROM pupils p
			  WHERE p.deleted_at IS NULL AND p.status = 'Active'`
	var args []interface{}
	if len(classIDs) > 0 {
		query += ` AND p.class_id = ANY($1)`
		args = append(args, pq.Array(classIDs))
	}
	query += ` ORDER BY p.last_name, p.first_name`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query pupils")
	}
	defer rows.Close()

	pupils := []*models.Pupil{}
	for rows.Next() {
		p, err := scanPupil(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan pupil")
		}
		pupils = append(pupils, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate pupils")
	}

	if err := r.attachAssignedFees(ctx, pupils); err != nil {
		return nil, err
	}
	return pupils, nil
}

func (r *Repository) attachAssignedFees(ctx context.Context, pupils []*models.Pupil) error {
	if len(pupils) == 0 {
		return nil
	}
	byID := make(map[string]*models.Pupil, len(pupils))
	ids := make([]string, 0, len(pupils))
	for _, p := range pupils {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT pupil_id, fee_structure_id, assigned_at
			  FROM pupil_assigned_fees
			  WHERE pupil_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "query assigned fees")
	}
	defer rows.Close()

	for rows.Next() {
		af := &models.AssignedFee{}
		if err := rows.Scan(&af.PupilID, &af.FeeStructureID, &af.AssignedAt); err != nil {
			return errors.Wrap(err, "scan assigned fee")
		}
		if p, ok := byID[af.PupilID]; ok {
			p.AssignedFees = append(p.AssignedFees, af)
		}
	}
	return errors.Wrap(rows.Err(), "iterate assigned fees")
}
