package models

import "time"

// Requirement is an item pupils of a class must bring or buy in a term
// (uniform pieces, stationery, cleaning supplies).
type Requirement struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name           string    `json:"name" gorm:"not null"`
	ClassID        string    `json:"class_id,omitempty" gorm:"index;type:uuid"`
	Section        Section   `json:"section,omitempty" gorm:"type:varchar(20)"`
	AcademicYearID string    `json:"academic_year_id" gorm:"not null;index;type:uuid"`
	TermID         string    `json:"term_id" gorm:"not null;index;type:uuid"`
	Quantity       int       `json:"quantity" gorm:"default:1"`
	UnitPrice      float64   `json:"unit_price" gorm:"type:numeric;default:0"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}
