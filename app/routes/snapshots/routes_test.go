package snapshots

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trinity-schools/app/models"
	"trinity-schools/app/routes/auth"
)

type memRepo struct {
	created []*models.PupilTermSnapshot
}

func (r *memRepo) GetAcademicYearsWithTerms(ctx context.Context) ([]*models.AcademicYear, error) {
	return []*models.AcademicYear{{
		ID: "y2024",
		Terms: []*models.Term{
			{ID: "t1", Name: "Term 1", StartDate: models.NewDate(2024, time.February, 5), EndDate: models.NewDate(2024, time.April, 26)},
			{ID: "t2", Name: "Term 2", StartDate: models.NewDate(2024, time.May, 20), EndDate: models.NewDate(2024, time.August, 15)},
		},
	}}, nil
}

func (r *memRepo) GetPupilsWithoutSnapshot(ctx context.Context, termID string) ([]*models.Pupil, error) {
	if len(r.created) > 0 {
		return nil, nil
	}
	return []*models.Pupil{{ID: "p1", ClassID: "P4"}}, nil
}

func (r *memRepo) InsertPupilTermSnapshot(ctx context.Context, snap *models.PupilTermSnapshot) (bool, error) {
	r.created = append(r.created, snap)
	return true, nil
}

func TestFreezeTermAPI(t *testing.T) {
	repo := &memRepo{}
	h := NewHandler(repo)
	h.Now = func() time.Time { return time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC) }

	app := fiber.New()
	SetupSnapshotsRoutes(app, h)

	admin, err := auth.GenerateJWT("ops", "Ops", []string{"admin"}, time.Hour)
	require.NoError(t, err)
	clerk, err := auth.GenerateJWT("clerk", "Clerk", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		body     string
		tok      string
		want     int
		contains string
	}{
		{name: "not admin", body: `{"term_id":"t1"}`, tok: clerk, want: http.StatusForbidden},
		{name: "missing term", body: `{}`, tok: admin, want: http.StatusBadRequest},
		{name: "unknown term", body: `{"term_id":"t9"}`, tok: admin, want: http.StatusNotFound},
		{name: "open term", body: `{"term_id":"t2"}`, tok: admin, want: http.StatusConflict},
		{name: "ended term", body: `{"term_id":"t1"}`, tok: admin, want: http.StatusOK, contains: `"created":1`},
		{name: "second run", body: `{"term_id":"t1"}`, tok: admin, want: http.StatusOK, contains: `"created":0`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/snapshots/freeze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+tt.tok)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.contains != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Contains(t, string(body), tt.contains)
			}
		})
	}
	assert.Len(t, repo.created, 1)
}
