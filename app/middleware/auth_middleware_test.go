package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/app/services"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestApp(t *testing.T) (*fiber.App, services.TokenService) {
	t.Helper()
	tokens, err := services.NewTokenService(
		15*time.Minute,
		24*time.Hour,
		"vitrine-test",
		"vitrine-dashboard",
		false, "", "",
		"test-secret-key-for-jwt-signing-32-chars",
		services.NewMemoryRevocationStore(),
	)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/protected", NewAuthMiddleware(tokens).StaffAuthenticate(), func(c fiber.Ctx) error {
		staffID, _ := c.Locals(LocalStaffID).(uint)
		return c.JSON(fiber.Map{"staff_id": staffID})
	})
	return app, tokens
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Success bool            `json:"success"`
		Error   dto.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Code
}

func TestStaffAuthenticateRejections(t *testing.T) {
	app, tokens := newAuthTestApp(t)
	_, refresh, err := tokens.GenerateStaffTokens(7)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{name: "missing header", code: "MISSING_AUTHORIZATION_HEADER"},
		{name: "basic scheme", header: "Basic abc", code: "INVALID_AUTHORIZATION_FORMAT"},
		{name: "garbage token", header: "Bearer not.a.jwt", code: "TOKEN_INVALID"},
		{name: "refresh token", header: "Bearer " + refresh, code: "TOKEN_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, resp))
		})
	}
}

func TestStaffAuthenticateAccessToken(t *testing.T) {
	app, tokens := newAuthTestApp(t)
	access, _, err := tokens.GenerateStaffTokens(7)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]uint
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint(7), body["staff_id"])

	require.NoError(t, tokens.RevokeToken(context.Background(), access))
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "TOKEN_REVOKED", errorCode(t, resp))
}
