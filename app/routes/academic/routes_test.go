package academic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trinity-schools/app/models"
	"trinity-schools/app/routes/auth"
)

type calendar struct {
	years []*models.AcademicYear
	err   error
}

func (c calendar) GetAcademicYearsWithTerms(ctx context.Context) ([]*models.AcademicYear, error) {
	return c.years, c.err
}

func testYears() []*models.AcademicYear {
	return []*models.AcademicYear{
		{ID: "y2024", Name: "2024", StartDate: models.NewDate(2024, time.February, 1), Terms: []*models.Term{
			{ID: "y2024-t1", Name: "Term 1", StartDate: models.NewDate(2024, time.February, 5), EndDate: models.NewDate(2024, time.April, 26)},
			{ID: "y2024-t2", Name: "Term 2", StartDate: models.NewDate(2024, time.May, 20), EndDate: models.NewDate(2024, time.August, 15)},
		}},
		{ID: "y2023", Name: "2023", StartDate: models.NewDate(2023, time.February, 1)},
	}
}

func request(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	tok, err := auth.GenerateJWT("test-client", "Test", nil, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func newApp(cal Calendar, now time.Time) *fiber.App {
	h := NewHandler(cal)
	h.Now = func() time.Time { return now }
	app := fiber.New()
	RegisterRoutes(app, h)
	return app
}

func TestGetAllAcademicYearsAPI(t *testing.T) {
	app := newApp(calendar{years: testYears()}, time.Now())

	status, body := request(t, app, "/api/academic-years")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"id":"y2023"`)
	assert.Less(t, strings.Index(body, `"id":"y2023"`), strings.Index(body, `"id":"y2024"`))
	assert.Contains(t, body, `"start_date":"2024-05-20"`)

	app = newApp(calendar{err: errors.New("db down")}, time.Now())
	status, _ = request(t, app, "/api/academic-years")
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestGetCurrentTermAPI(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		want     int
		contains string
	}{
		{name: "inside term two", now: time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC), want: http.StatusOK, contains: `"id":"y2024-t2"`},
		{name: "last day of term one", now: time.Date(2024, time.April, 26, 18, 0, 0, 0, time.UTC), want: http.StatusOK, contains: `"has_ended":false`},
		{name: "holiday", now: time.Date(2024, time.May, 5, 0, 0, 0, 0, time.UTC), want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := request(t, newApp(calendar{years: testYears()}, tt.now), "/api/academic-years/current")
			assert.Equal(t, tt.want, status)
			if tt.contains != "" {
				assert.Contains(t, body, tt.contains)
			}
		})
	}
}

