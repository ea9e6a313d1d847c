package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// CustomTime allows parsing dates in YYYY-MM-DD format
type CustomTime struct {
	time.Time
}

// NewDate builds a date-only CustomTime in UTC.
func NewDate(year int, month time.Month, day int) CustomTime {
	return CustomTime{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// UnmarshalJSON parses dates in YYYY-MM-DD format, falling back to RFC3339
func (ct *CustomTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == "" || s == `""` {
		ct.Time = time.Time{}
		return nil
	}

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}

	ct.Time = t
	return nil
}

// MarshalJSON formats dates in YYYY-MM-DD format
func (ct CustomTime) MarshalJSON() ([]byte, error) {
	if ct.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf(`"%s"`, ct.Time.Format(dateLayout))), nil
}

// Scan implements the Scanner interface for database reading
func (ct *CustomTime) Scan(value interface{}) error {
	if value == nil {
		ct.Time = time.Time{}
		return nil
	}

	if t, ok := value.(time.Time); ok {
		ct.Time = t
		return nil
	}

	return fmt.Errorf("cannot scan %T into CustomTime", value)
}

// Value implements the Valuer interface for database writing
func (ct CustomTime) Value() (driver.Value, error) {
	if ct.Time.IsZero() {
		return nil, nil
	}
	return ct.Time, nil
}

// AcademicYear represents a school year and its ordered terms
type AcademicYear struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	Name      string     `json:"name" gorm:"uniqueIndex;not null" validate:"required"`
	StartDate CustomTime `json:"start_date" gorm:"not null;index" validate:"required"`
	EndDate   CustomTime `json:"end_date" gorm:"not null;index" validate:"required"`
	IsCurrent bool       `json:"is_current" gorm:"default:false;index"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	Terms     []*Term    `json:"terms" gorm:"foreignKey:AcademicYearID;references:ID"`
}

// TermIndex returns the position of termID within the year, or -1.
func (ay *AcademicYear) TermIndex(termID string) int {
	for i, t := range ay.Terms {
		if t.ID == termID {
			return i
		}
	}
	return -1
}

// FindTerm returns the term with the given ID, or nil.
func (ay *AcademicYear) FindTerm(termID string) *Term {
	if i := ay.TermIndex(termID); i >= 0 {
		return ay.Terms[i]
	}
	return nil
}

// FindAcademicYearForTerm returns the year owning termID, or nil.
func FindAcademicYearForTerm(years []*AcademicYear, termID string) *AcademicYear {
	for _, y := range years {
		if y.TermIndex(termID) >= 0 {
			return y
		}
	}
	return nil
}

// FindCurrentTerm returns the term flagged current, or failing that the term
// whose dates contain now. Both are nil when no term qualifies.
func FindCurrentTerm(years []*AcademicYear, now time.Time) (*AcademicYear, *Term) {
	for _, y := range years {
		for _, t := range y.Terms {
			if t.IsCurrent {
				return y, t
			}
		}
	}
	today := StartOfDay(now)
	for _, y := range years {
		for _, t := range y.Terms {
			if !today.Before(StartOfDay(t.StartDate.Time)) && !today.After(StartOfDay(t.EndDate.Time)) {
				return y, t
			}
		}
	}
	return nil, nil
}

// SortAcademicYears returns a copy of years ordered by start date.
func SortAcademicYears(years []*AcademicYear) []*AcademicYear {
	sorted := make([]*AcademicYear, len(years))
	copy(sorted, years)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate.Time)
	})
	return sorted
}
