package models

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomTimeJSON(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{in: `"2024-05-20"`, want: time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC)},
		{in: `"2024-05-20T09:30:00Z"`, want: time.Date(2024, time.May, 20, 9, 30, 0, 0, time.UTC)},
		{in: `null`},
		{in: `""`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var ct CustomTime
			require.NoError(t, ct.UnmarshalJSON([]byte(tt.in)))
			assert.True(t, tt.want.Equal(ct.Time))
		})
	}

	var bad CustomTime
	assert.Error(t, bad.UnmarshalJSON([]byte(`"20/05/2024"`)))

	out, err := sonic.Marshal(struct {
		A CustomTime `json:"a"`
		B CustomTime `json:"b"`
	}{A: NewDate(2024, time.May, 20)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"2024-05-20","b":null}`, string(out))
}

func TestTermHasEnded(t *testing.T) {
	term := &Term{EndDate: NewDate(2024, time.April, 26)}
	eat := time.FixedZone("EAT", 3*60*60)

	assert.False(t, term.HasEnded(time.Date(2024, time.April, 26, 23, 59, 0, 0, time.UTC)))
	assert.False(t, term.HasEnded(time.Date(2024, time.April, 26, 23, 30, 0, 0, eat)))
	assert.True(t, term.HasEnded(time.Date(2024, time.April, 27, 0, 0, 0, 0, time.UTC)))
}

func TestFindCurrentTerm(t *testing.T) {
	y := &AcademicYear{ID: "y2024", Terms: []*Term{
		{ID: "t1", StartDate: NewDate(2024, time.February, 5), EndDate: NewDate(2024, time.April, 26)},
		{ID: "t2", StartDate: NewDate(2024, time.May, 20), EndDate: NewDate(2024, time.August, 15)},
	}}
	years := []*AcademicYear{y}

	_, term := FindCurrentTerm(years, time.Date(2024, time.May, 20, 7, 0, 0, 0, time.UTC))
	require.NotNil(t, term)
	assert.Equal(t, "t2", term.ID)

	_, term = FindCurrentTerm(years, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	assert.Nil(t, term)

	y.Terms[0].IsCurrent = true
	year, term := FindCurrentTerm(years, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "y2024", year.ID)
	assert.Equal(t, "t1", term.ID)
}

func TestSortAcademicYears(t *testing.T) {
	years := []*AcademicYear{
		{ID: "2025", StartDate: NewDate(2025, time.February, 1)},
		{ID: "2023", StartDate: NewDate(2023, time.February, 1)},
		{ID: "2024", StartDate: NewDate(2024, time.February, 1)},
	}

	sorted := SortAcademicYears(years)
	assert.Equal(t, "2023", sorted[0].ID)
	assert.Equal(t, "2025", sorted[2].ID)
	assert.Equal(t, "2025", years[0].ID)
}

func TestPupilHelpers(t *testing.T) {
	p := &Pupil{FirstName: "Amina", LastName: "Nakato", AssignedFees: []*AssignedFee{{FeeStructureID: "swimming"}}}
	assert.Equal(t, "Amina Nakato", p.FullName())
	assert.Nil(t, p.RegisteredOn())
	assert.True(t, p.HasAssignedFee("swimming"))
	assert.False(t, p.HasAssignedFee("bus"))

	zero := CustomTime{}
	p.RegistrationDate = &zero
	assert.Nil(t, p.RegisteredOn())

	reg := NewDate(2024, time.January, 8)
	p.RegistrationDate = &reg
	require.NotNil(t, p.RegisteredOn())
	assert.Equal(t, reg.Time, *p.RegisteredOn())
}

func TestFeeStructureIsDiscount(t *testing.T) {
	assert.True(t, (&FeeStructure{Category: CategoryDiscount, Amount: 10000}).IsDiscount())
	assert.True(t, (&FeeStructure{Category: CategoryTuition, Amount: -5000}).IsDiscount())
	assert.False(t, (&FeeStructure{Category: CategoryTuition, Amount: 5000}).IsDiscount())
}
