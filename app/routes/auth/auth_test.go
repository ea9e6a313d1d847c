package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trinity-schools/app/config"
)

func newApp() *fiber.App {
	app := fiber.New()
	api := app.Group("/api", AuthMiddleware)
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("client_id").(string))
	})
	api.Delete("/admin", RoleMiddleware("admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT("bursar-portal", "Bursar Portal", []string{"bursar"}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "bursar-portal", claims.ClientID)
	assert.True(t, claims.HasRole("bursar"))
	assert.False(t, claims.HasRole("admin"))
	assert.NotEmpty(t, claims.ID)
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	token, err := GenerateJWT("old", "Old", nil, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp()
	token, err := GenerateJWT("bursar-portal", "Bursar Portal", []string{"bursar"}, time.Hour)
	require.NoError(t, err)
	admin, err := GenerateJWT("ops", "Ops", []string{"admin"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		cookie string
		want   int
	}{
		{name: "missing token", method: "GET", path: "/api/ping", want: fiber.StatusUnauthorized},
		{name: "garbage token", method: "GET", path: "/api/ping", header: "Bearer nope", want: fiber.StatusUnauthorized},
		{name: "bearer token", method: "GET", path: "/api/ping", header: "Bearer " + token, want: fiber.StatusOK},
		{name: "cookie token", method: "GET", path: "/api/ping", cookie: token, want: fiber.StatusOK},
		{name: "role missing", method: "DELETE", path: "/api/admin", header: "Bearer " + token, want: fiber.StatusForbidden},
		{name: "role present", method: "DELETE", path: "/api/admin", header: "Bearer " + admin, want: fiber.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", "jwt_token="+tt.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestCheckSecret(t *testing.T) {
	orig := config.Conf
	t.Cleanup(func() { config.Conf = orig })

	tests := []struct {
		name    string
		secret  string
		localDB bool
		wantErr bool
	}{
		{name: "secret set", secret: "s3cret"},
		{name: "local development", localDB: true},
		{name: "missing in production", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.Conf = config.New()
			config.Conf.Set("jwt_secret", tt.secret)
			config.Conf.Set("local_db", tt.localDB)

			err := CheckSecret()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMissingSecret), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
