package helpers

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invalidateRequest struct {
	AcademicYearID string   `json:"academic_year_id" validate:"required"`
	TermID         string   `json:"term_id" validate:"required"`
	ClassIDs       []string `json:"class_ids" validate:"omitempty,max=2"`
}

func TestBindJSON(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var req invalidateRequest
		if err := BindJSON(c, &req); err != nil {
			return err
		}
		return Success(c, req.TermID)
	})

	tests := []struct {
		name     string
		body     string
		want     int
		contains string
	}{
		{name: "valid", body: `{"academic_year_id":"y","term_id":"t"}`, want: 200, contains: `"data":"t"`},
		{name: "missing term", body: `{"academic_year_id":"y"}`, want: 400, contains: "term_id is required"},
		{name: "too many classes", body: `{"academic_year_id":"y","term_id":"t","class_ids":["a","b","c"]}`, want: 400, contains: "class_ids failed max=2"},
		{name: "malformed", body: `{`, want: 400, contains: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), tt.contains)
		})
	}
}
