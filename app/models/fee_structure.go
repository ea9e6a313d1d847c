package models

import "time"

// FeeStructure is a catalogue entry describing a charge (or a discount when the
// amount is negative or the category is Discount) for a class in a term.
type FeeStructure struct {
	ID              string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	Name            string    `json:"name" gorm:"not null" validate:"required"`
	Amount          float64   `json:"amount" gorm:"not null;type:numeric"`
	Category        string    `json:"category" gorm:"type:varchar(50);index"`
	ClassID         string    `json:"class_id,omitempty" gorm:"index;type:uuid"`
	Section         Section   `json:"section,omitempty" gorm:"type:varchar(20)"`
	AcademicYearID  string    `json:"academic_year_id" gorm:"not null;index;type:uuid"`
	TermID          string    `json:"term_id" gorm:"not null;index;type:uuid"`
	IsAssignmentFee bool      `json:"is_assignment_fee" gorm:"default:false"`
	IsRequired      bool      `json:"is_required" gorm:"default:true"`
	LinkedFeeID     *string   `json:"linked_fee_id,omitempty" gorm:"index;type:uuid"`
	IsActive        bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsDiscount reports whether the entry reduces what a pupil owes.
func (f *FeeStructure) IsDiscount() bool {
	return f.Category == CategoryDiscount || f.Amount < 0
}

// AppliesToTerm reports whether the entry belongs to the given year and term.
func (f *FeeStructure) AppliesToTerm(academicYearID, termID string) bool {
	return f.AcademicYearID == academicYearID && f.TermID == termID
}
