package fees

import (
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"trinity-schools/app/models"
)

// PupilVariableComponents are the fee inputs specific to one pupil.
type PupilVariableComponents struct {
	PupilID        string                 `json:"pupil_id"`
	AssignmentFees []*models.FeeStructure `json:"assignment_fees"`
	Discounts      []*models.FeeStructure `json:"discounts"`
	TotalPaid      float64                `json:"total_paid"`
	LastCalculated time.Time              `json:"last_calculated"`
}

// AppliedDiscount merges every discount linked to one base fee.
type AppliedDiscount struct {
	FeeStructureIDs []string `json:"fee_structure_ids"`
	Name            string   `json:"name"`
	Amount          float64  `json:"amount"`
}

// FeeLine is one line of a pupil's fee breakdown.
type FeeLine struct {
	FeeStructureID  string           `json:"fee_structure_id"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	Amount          float64          `json:"amount"`
	OriginalAmount  *float64         `json:"original_amount,omitempty"`
	Discount        *AppliedDiscount `json:"discount,omitempty"`
	IsRequired      bool             `json:"is_required"`
	IsAssignmentFee bool             `json:"is_assignment_fee"`
	Paid            float64          `json:"paid"`
	Balance         float64          `json:"balance"`
}

// OptimizedPupilFees is a pupil's complete fee breakdown for a term.
type OptimizedPupilFees struct {
	PupilID         string        `json:"pupil_id"`
	TotalFees       float64       `json:"total_fees"`
	TotalPaid       float64       `json:"total_paid"`
	Balance         float64       `json:"balance"`
	ApplicableFees  []FeeLine     `json:"applicable_fees"`
	FromCache       bool          `json:"from_cache"`
	CalculationTime time.Duration `json:"calculation_time"`
}

func zeroFees(pupilID string) *OptimizedPupilFees {
	return &OptimizedPupilFees{PupilID: pupilID, ApplicableFees: []FeeLine{}}
}

// discountAmount is the reduction a discount entry grants; discounts may be
// stored as negative amounts or as positive amounts in the Discount category.
func discountAmount(f *models.FeeStructure) float64 {
	return math.Abs(f.Amount)
}

func (c *Cache) calculateVariableComponents(pupil *models.Pupil, feeStructures []*models.FeeStructure, payments []*models.Payment, key GroupKey) *PupilVariableComponents {
	vc := &PupilVariableComponents{
		PupilID:        pupil.ID,
		AssignmentFees: make([]*models.FeeStructure, 0),
		Discounts:      make([]*models.FeeStructure, 0),
		LastCalculated: c.now(),
	}

	for _, f := range feeStructures {
		if !f.AppliesToTerm(key.AcademicYearID, key.TermID) || !pupil.HasAssignedFee(f.ID) {
			continue
		}
		switch {
		case f.IsDiscount():
			vc.Discounts = append(vc.Discounts, f)
		case f.IsAssignmentFee && f.Amount > 0:
			vc.AssignmentFees = append(vc.AssignmentFees, f)
		}
	}

	for _, p := range payments {
		if p.PupilID == pupil.ID {
			vc.TotalPaid += p.Amount
		}
	}

	c.mu.Lock()
	c.variables[pupilTermKey{PupilID: pupil.ID, AcademicYearID: key.AcademicYearID, TermID: key.TermID}] = vc
	c.mu.Unlock()
	return vc
}

// GetOptimizedPupilFees merges the pupil's cached group base fees with the
// pupil's own charges, discounts and payments. The pupil must have been
// grouped for termID with GroupPupilsByFeeCharacteristics first.
func (c *Cache) GetOptimizedPupilFees(pupil *models.Pupil, feeStructures []*models.FeeStructure, payments []*models.Payment, academicYears []*models.AcademicYear, termID string) (*OptimizedPupilFees, error) {
	start := time.Now()

	year := models.FindAcademicYearForTerm(academicYears, termID)
	if year == nil {
		return nil, errors.Wrapf(ErrAcademicYearNotFound, "term %s", termID)
	}

	c.mu.RLock()
	m, ok := c.pupilGroups[pupilTermKey{PupilID: pupil.ID, AcademicYearID: year.ID, TermID: termID}]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrPupilNotGrouped, "pupil %s term %s", pupil.ID, termID)
	}

	return c.composePupilFees(start, pupil, m.key, feeStructures, payments, academicYears)
}

// composePupilFees builds the breakdown of a pupil already placed in the group key.
func (c *Cache) composePupilFees(start time.Time, pupil *models.Pupil, key GroupKey, feeStructures []*models.FeeStructure, payments []*models.Payment, academicYears []*models.AcademicYear) (*OptimizedPupilFees, error) {
	groupFees, fromCache, err := c.groupFees(&PupilGroup{Key: key, PupilIDs: []string{pupil.ID}}, feeStructures, academicYears)
	if err != nil {
		return nil, err
	}

	vc := c.calculateVariableComponents(pupil, feeStructures, payments, key)

	paidByFee := make(map[string]float64)
	for _, p := range payments {
		if p.PupilID == pupil.ID {
			paidByFee[p.FeeID] += p.Amount
		}
	}

	linked := make(map[string][]*models.FeeStructure)
	for _, d := range vc.Discounts {
		if d.LinkedFeeID != nil && *d.LinkedFeeID != "" {
			linked[*d.LinkedFeeID] = append(linked[*d.LinkedFeeID], d)
		}
	}

	lines := make([]FeeLine, 0, len(groupFees.BaseFees)+len(vc.AssignmentFees))
	var total float64

	for _, bf := range groupFees.BaseFees {
		line := FeeLine{
			FeeStructureID: bf.FeeStructureID,
			Name:           bf.Name,
			Category:       bf.Category,
			Amount:         bf.Amount,
			IsRequired:     bf.IsRequired,
		}

		if discounts := linked[bf.FeeStructureID]; len(discounts) > 0 {
			applied := &AppliedDiscount{}
			names := make([]string, 0, len(discounts))
			for _, d := range discounts {
				applied.FeeStructureIDs = append(applied.FeeStructureIDs, d.ID)
				applied.Amount += discountAmount(d)
				names = append(names, d.Name)
			}
			applied.Name = strings.Join(names, ", ")

			original := bf.Amount
			line.OriginalAmount = &original
			line.Amount = math.Max(0, bf.Amount-applied.Amount)
			line.Discount = applied
		}

		line.Paid = paidByFee[bf.FeeStructureID]
		line.Balance = math.Max(0, line.Amount-line.Paid)
		total += line.Amount
		lines = append(lines, line)
	}

	for _, af := range vc.AssignmentFees {
		line := FeeLine{
			FeeStructureID:  af.ID,
			Name:            af.Name,
			Category:        af.Category,
			Amount:          af.Amount,
			IsRequired:      af.IsRequired,
			IsAssignmentFee: true,
			Paid:            paidByFee[af.ID],
		}
		line.Balance = math.Max(0, line.Amount-line.Paid)
		total += line.Amount
		lines = append(lines, line)
	}

	return &OptimizedPupilFees{
		PupilID:         pupil.ID,
		TotalFees:       total,
		TotalPaid:       vc.TotalPaid,
		Balance:         math.Max(0, total-vc.TotalPaid),
		ApplicableFees:  lines,
		FromCache:       fromCache,
		CalculationTime: time.Since(start),
	}, nil
}
