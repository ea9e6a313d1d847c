package pupils

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trinity-schools/app/database"
	"trinity-schools/app/models"
	"trinity-schools/app/routes/auth"
	"trinity-schools/app/snapshots"
)

type fakeSource struct {
	years []*models.AcademicYear
	pupil *models.Pupil
	reqs  []*models.Requirement
}

func (s *fakeSource) GetAcademicYearsWithTerms(ctx context.Context) ([]*models.AcademicYear, error) {
	return s.years, nil
}

func (s *fakeSource) GetPupilByID(ctx context.Context, id string) (*models.Pupil, error) {
	if id != s.pupil.ID {
		return nil, errors.Wrapf(database.ErrNotFound, "pupil %s", id)
	}
	return s.pupil, nil
}

func (s *fakeSource) GetActiveRequirements(ctx context.Context) ([]*models.Requirement, error) {
	return s.reqs, nil
}

type snapshotStore map[string]*models.PupilTermSnapshot

func (s snapshotStore) GetPupilTermSnapshot(ctx context.Context, pupilID, termID string) (*models.PupilTermSnapshot, error) {
	return s[pupilID+"/"+termID], nil
}

func term(id, yearID string, start, end models.CustomTime) *models.Term {
	return &models.Term{ID: id, AcademicYearID: yearID, Name: id, StartDate: start, EndDate: end}
}

func setup(t *testing.T) *fiber.App {
	t.Helper()
	reg := models.NewDate(2023, time.May, 15)
	d := models.NewDate

	source := &fakeSource{
		years: []*models.AcademicYear{
			{ID: "y2024", Name: "2024", StartDate: d(2024, time.February, 1), EndDate: d(2024, time.December, 10), Terms: []*models.Term{
				term("y2024-t1", "y2024", d(2024, time.February, 5), d(2024, time.April, 26)),
				{ID: "y2024-t2", AcademicYearID: "y2024", Name: "y2024-t2", IsCurrent: true, StartDate: d(2024, time.May, 20), EndDate: d(2024, time.August, 15)},
			}},
			{ID: "y2023", Name: "2023", StartDate: d(2023, time.February, 1), EndDate: d(2023, time.December, 10), Terms: []*models.Term{
				term("y2023-t1", "y2023", d(2023, time.February, 6), d(2023, time.April, 28)),
				term("y2023-t2", "y2023", d(2023, time.May, 29), d(2023, time.August, 18)),
				term("y2023-t3", "y2023", d(2023, time.September, 11), d(2023, time.December, 1)),
			}},
		},
		pupil: &models.Pupil{ID: "p1", FirstName: "Amina", LastName: "Nakato", ClassID: "P4", RegistrationDate: &reg},
		reqs: []*models.Requirement{
			{ID: "books", Name: "Exercise books", ClassID: "P3", AcademicYearID: "y2023", TermID: "y2023-t2", Quantity: 10, UnitPrice: 1000, IsActive: true},
			{ID: "ream", Name: "Ream of paper", ClassID: "P4", AcademicYearID: "y2023", TermID: "y2023-t3", Quantity: 1, UnitPrice: 18000, IsActive: true},
			{ID: "sweater", Name: "Sweater", ClassID: "P4", AcademicYearID: "y2024", TermID: "y2024-t2", Quantity: 1, UnitPrice: 25000, IsActive: true},
			{ID: "mattress", Name: "Mattress", Section: models.SectionBoarding, AcademicYearID: "y2024", TermID: "y2024-t2", Quantity: 1, UnitPrice: 90000, IsActive: true},
		},
	}

	store := snapshotStore{
		"p1/y2023-t2": {PupilID: "p1", TermID: "y2023-t2", AcademicYearID: "y2023", ClassID: "P3", Section: models.SectionDay},
	}
	resolver := snapshots.NewResolver(store).WithClock(func() time.Time {
		return time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)
	})

	h := NewHandler(source, resolver)
	h.Now = func() time.Time { return time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC) }

	app := fiber.New()
	SetupPupilsRoutes(app, h)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, interface{}) {
	t.Helper()
	tok, err := auth.GenerateJWT("test-client", "Test", nil, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, sonic.Unmarshal(raw, &out))
	return resp.StatusCode, out["data"]
}

func termIDs(t *testing.T, data interface{}) []string {
	t.Helper()
	var ids []string
	for _, item := range data.([]interface{}) {
		ids = append(ids, item.(map[string]interface{})["term_id"].(string))
	}
	return ids
}

func TestGetValidTermsAPI(t *testing.T) {
	app := setup(t)

	status, data := get(t, app, "/api/pupils/p1/valid-terms")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"y2023-t2", "y2023-t3", "y2024-t1", "y2024-t2"}, termIDs(t, data))
}

func TestGetPreviousPeriodsAPI(t *testing.T) {
	app := setup(t)
	want := []string{"y2023-t2", "y2023-t3", "y2024-t1"}

	status, data := get(t, app, "/api/pupils/p1/previous-periods?term_id=y2024-t2")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, want, termIDs(t, data))

	status, data = get(t, app, "/api/pupils/p1/previous-periods")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, want, termIDs(t, data))

	status, data = get(t, app, "/api/pupils/p1/previous-periods?term_id=y2023-t3")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"y2023-t2"}, termIDs(t, data))

	status, _ = get(t, app, "/api/pupils/p1/previous-periods?term_id=nope")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetTermSnapshotAPI(t *testing.T) {
	app := setup(t)

	tests := []struct {
		termID string
		source snapshots.Source
		class  string
	}{
		{termID: "y2023-t2", source: snapshots.SourceSnapshot, class: "P3"},
		{termID: "y2023-t3", source: snapshots.SourceFallbackLive, class: "P4"},
		{termID: "y2024-t2", source: snapshots.SourceLive, class: "P4"},
	}

	for _, tt := range tests {
		t.Run(tt.termID, func(t *testing.T) {
			status, data := get(t, app, "/api/pupils/p1/terms/"+tt.termID+"/snapshot")
			require.Equal(t, http.StatusOK, status)
			res := data.(map[string]interface{})["resolution"].(map[string]interface{})
			assert.Equal(t, string(tt.source), res["source"])
			assert.Equal(t, tt.class, res["class_id"])
		})
	}

	status, _ := get(t, app, "/api/pupils/p1/terms/nope/snapshot")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = get(t, app, "/api/pupils/ghost/terms/y2024-t2/snapshot")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetRequirementsAPI(t *testing.T) {
	app := setup(t)

	status, data := get(t, app, "/api/pupils/p1/requirements")
	require.Equal(t, http.StatusOK, status)

	terms := data.([]interface{})
	require.Len(t, terms, 3)

	first := terms[0].(map[string]interface{})
	assert.Equal(t, "y2023-t2", first["term_id"])
	assert.Equal(t, "P3", first["class_id"])
	assert.Equal(t, 10000.0, first["total_value"])

	last := terms[2].(map[string]interface{})
	assert.Equal(t, "y2024-t2", last["term_id"])
	assert.Len(t, last["items"], 1)
}
