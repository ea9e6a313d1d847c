package models

import "time"

// Pupil is a learner enrolled in a class. The fee core only reads pupils.
type Pupil struct {
	ID               string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	FirstName        string         `json:"first_name" gorm:"not null" validate:"required"`
	LastName         string         `json:"last_name" gorm:"not null" validate:"required"`
	ClassID          string         `json:"class_id" gorm:"index;type:uuid"`
	Section          Section        `json:"section" gorm:"type:varchar(20);default:'day'" validate:"omitempty,oneof=day boarding"`
	AdmissionNumber  string         `json:"admission_number" gorm:"uniqueIndex"`
	RegistrationDate *CustomTime    `json:"registration_date,omitempty" gorm:"type:date"`
	DateOfBirth      CustomTime     `json:"date_of_birth" gorm:"type:date"`
	Status           PupilStatus    `json:"status" gorm:"type:varchar(20);default:'Active';index"`
	AssignedFees     []*AssignedFee `json:"assigned_fees,omitempty" gorm:"foreignKey:PupilID;references:ID"`
	CreatedAt        time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// AssignedFee links an individual fee structure (extra charge or discount) to a pupil.
type AssignedFee struct {
	PupilID        string    `json:"pupil_id" gorm:"primaryKey;type:uuid"`
	FeeStructureID string    `json:"fee_structure_id" gorm:"primaryKey;type:uuid"`
	AssignedAt     time.Time `json:"assigned_at" gorm:"autoCreateTime"`
}

// FullName returns the pupil's display name.
func (p *Pupil) FullName() string {
	return p.FirstName + " " + p.LastName
}

// RegisteredOn returns the registration date, or nil when unknown.
func (p *Pupil) RegisteredOn() *time.Time {
	if p.RegistrationDate == nil || p.RegistrationDate.IsZero() {
		return nil
	}
	t := p.RegistrationDate.Time
	return &t
}

// HasAssignedFee reports whether feeStructureID is individually assigned to the pupil.
func (p *Pupil) HasAssignedFee(feeStructureID string) bool {
	for _, af := range p.AssignedFees {
		if af.FeeStructureID == feeStructureID {
			return true
		}
	}
	return false
}
