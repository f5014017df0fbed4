package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/Ejare/app/dto"
	"github.com/amirphl/Ejare/app/services"
	"github.com/amirphl/Ejare/models"
	"github.com/amirphl/Ejare/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) services.TokenService {
	t.Helper()
	svc, err := services.NewTokenService(15*time.Minute, time.Hour, "ejare-test", "ejare-test-api", false, "", "",
		"middleware-test-secret-at-least-32-bytes")
	require.NoError(t, err)
	return svc
}

func newTestApp(tokens services.TokenService) *fiber.App {
	app := fiber.New()
	auth := NewAuthMiddleware(tokens)

	app.Get("/me", auth.Authenticate(), func(c fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"email": claims.Email, "accountId": c.Locals(AccountIDKey)})
	})
	app.Get("/admin", auth.Authenticate(), RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func issue(t *testing.T, tokens services.TokenService, role models.Role) *services.TokenPair {
	t.Helper()
	pair, err := tokens.GenerateTokens(services.TokenSubject{
		AccountID: 7,
		UUID:      "550e8400-e29b-41d4-a716-446655440000",
		Email:     "ana@example.com",
		Role:      role,
		Name:      "Ana",
	})
	require.NoError(t, err)
	return pair
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error dto.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Code
}

func TestAuthenticate(t *testing.T) {
	tokens := newTestTokenService(t)
	app := newTestApp(tokens)
	pair := issue(t, tokens, models.RoleTenant)

	t.Run("BearerHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: utils.AccessTokenCookie, Value: pair.AccessToken})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"Missing", "", "MISSING_ACCESS_TOKEN"},
		{"WrongScheme", "Basic abc", "INVALID_AUTHORIZATION_FORMAT"},
		{"Garbage", "Bearer not-a-token", "TOKEN_INVALID"},
		{"RefreshToken", "Bearer " + pair.RefreshToken, "TOKEN_WRONG_TYPE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, resp))
		})
	}
}

func TestRequireRoles(t *testing.T) {
	tokens := newTestTokenService(t)
	app := newTestApp(tokens)

	tests := []struct {
		role   models.Role
		status int
	}{
		{models.RoleAdmin, http.StatusNoContent},
		{models.RoleSuperAdmin, http.StatusNoContent},
		{models.RoleTenant, http.StatusForbidden},
		{models.RoleProvider, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+issue(t, tokens, tt.role).AccessToken)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
