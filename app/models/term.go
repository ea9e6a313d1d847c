package models

import "time"

// Term represents a term within an academic year
type Term struct {
	ID             string     `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	AcademicYearID string     `json:"academic_year_id" gorm:"not null;index;type:uuid"`
	Name           string     `json:"name" gorm:"not null"`
	StartDate      CustomTime `json:"start_date" gorm:"not null;type:date"`
	EndDate        CustomTime `json:"end_date" gorm:"not null;type:date"`
	IsCurrent      bool       `json:"is_current" gorm:"default:false"`
	CreatedAt      time.Time  `json:"created_at" gorm:"default:now()"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"default:now()"`
}

// HasEnded reports whether the term's last day is strictly before now's calendar day.
func (t *Term) HasEnded(now time.Time) bool {
	return StartOfDay(now).After(StartOfDay(t.EndDate.Time))
}

// StartOfDay truncates t to midnight UTC of its own calendar date so that
// date-only values from different sources compare by day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
