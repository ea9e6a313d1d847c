package models

import "time"

// PupilTermSnapshot freezes the attributes a pupil had when a term closed so
// historical fees, attendance and certificates stay consistent after promotions.
type PupilTermSnapshot struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid"`
	PupilID         string     `json:"pupil_id" gorm:"not null;uniqueIndex:idx_pupil_term;type:uuid"`
	TermID          string     `json:"term_id" gorm:"not null;uniqueIndex:idx_pupil_term;type:uuid"`
	AcademicYearID  string     `json:"academic_year_id" gorm:"not null;index;type:uuid"`
	ClassID         string     `json:"class_id" gorm:"type:uuid"`
	Section         Section    `json:"section" gorm:"type:varchar(20)"`
	AdmissionNumber string     `json:"admission_number"`
	DateOfBirth     CustomTime `json:"date_of_birth" gorm:"type:date"`
	FrozenAt        time.Time  `json:"frozen_at" gorm:"not null"`
}
