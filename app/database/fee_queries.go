package database

import (
	"context"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"trinity-schools/app/models"
)

// GetFeeStructuresForTerm loads the active fee catalogue of one term.
func (r *Repository) GetFeeStructuresForTerm(ctx context.Context, academicYearID, termID string) ([]*models.FeeStructure, error) {
	query := `SELECT id, name, amount, COALESCE(category, ''), COALESCE(class_id::text, ''), COALESCE(section, ''),
			  academic_year_id, term_id, is_assignment_fee, is_required, linked_fee_id, is_active, created_at, updated_at
			  FROM fee_structures
			  WHERE academic_year_id = $1 AND term_id = $2 AND is_active = true AND deleted_at IS NULL
			  ORDER BY created_at`

	rows, err := r.DB.QueryContext(ctx, query, academicYearID, termID)
	if err != nil {
		return nil, errors.Wrap(err, "query fee structures")
	}
	defer rows.Close()

	structures := []*models.FeeStructure{}
	for rows.Next() {
		f := &models.FeeStructure{}
		var section string
		if err := rows.Scan(&f.ID, &f.Name, &f.Amount, &f.Category, &f.ClassID, &section,
			&f.AcademicYearID, &f.TermID, &f.IsAssignmentFee, &f.IsRequired, &f.LinkedFeeID,
			&f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan fee structure")
		}
		f.Section = models.Section(section)
		structures = append(structures, f)
	}
	return structures, errors.Wrap(rows.Err(), "iterate fee structures")
}

// GetPaymentsForPupils loads the payments of pupilIDs made against fee
// structures of the given term, keyed by pupil ID.
func (r *Repository) GetPaymentsForPupils(ctx context.Context, pupilIDs []string, academicYearID, termID string) (map[string][]*models.Payment, error) {
	byPupil := make(map[string][]*models.Payment, len(pupilIDs))
	if len(pupilIDs) == 0 {
		return byPupil, nil
	}

	query := `SELECT pay.id, pay.pupil_id, pay.fee_id, pay.amount, pay.payment_date,
			  COALESCE(pay.payment_method, ''), pay.reference, pay.created_at
			  FROM payments pay
			  JOIN fee_structures fs ON fs.id = pay.fee_id
			  WHERE pay.pupil_id = ANY($1) AND fs.academic_year_id = $2 AND fs.term_id = $3
			  ORDER BY pay.payment_date`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(pupilIDs), academicYearID, termID)
	if err != nil {
		return nil, errors.Wrap(err, "query payments")
	}
	defer rows.Close()

	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.PupilID, &p.FeeID, &p.Amount, &p.PaymentDate,
			&p.PaymentMethod, &p.Reference, &p.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan payment")
		}
		byPupil[p.PupilID] = append(byPupil[p.PupilID], p)
	}
	return byPupil, errors.Wrap(rows.Err(), "iterate payments")
}

// GetActiveRequirements loads every active term requirement.
func (r *Repository) GetActiveRequirements(ctx context.Context) ([]*models.Requirement, error) {
	query := `SELECT id, name, COALESCE(class_id::text, ''), COALESCE(section, ''), academic_year_id, term_id,
			  quantity, unit_price, is_active, created_at
			  FROM requirements
			  WHERE is_active = true AND deleted_at IS NULL`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "query requirements")
	}
	defer rows.Close()

	reqs := []*models.Requirement{}
	for rows.Next() {
		req := &models.Requirement{}
		var section string
		if err := rows.Scan(&req.ID, &req.Name, &req.ClassID, &section, &req.AcademicYearID, &req.TermID,
			&req.Quantity, &req.UnitPrice, &req.IsActive, &req.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan requirement")
		}
		req.Section = models.Section(section)
		reqs = append(reqs, req)
	}
	return reqs, errors.Wrap(rows.Err(), "iterate requirements")
}
