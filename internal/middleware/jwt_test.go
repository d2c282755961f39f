package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const jwtTestSecret = "quizdeck-test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newProtectedApp(captured *fiber.Map) *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(jwtTestSecret))
	app.Get("/me", func(c *fiber.Ctx) error {
		*captured = fiber.Map{
			"user_id":   c.Locals("user_id"),
			"user_role": c.Locals("user_role"),
		}
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestJWTProtectedRejectsMissingHeader(t *testing.T) {
	var captured fiber.Map
	app := newProtectedApp(&captured)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedRejectsMalformedHeader(t *testing.T) {
	var captured fiber.Map
	app := newProtectedApp(&captured)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc.def.ghi")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	empty := httptest.NewRequest(http.MethodGet, "/me", nil)
	empty.Header.Set("Authorization", "Bearer ")
	resp, err = app.Test(empty)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedRejectsWrongSignature(t *testing.T) {
	var captured fiber.Map
	app := newProtectedApp(&captured)

	token := signedToken(t, "some-other-secret", jwt.MapClaims{"sub": 42})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedSetsIdentityLocals(t *testing.T) {
	var captured fiber.Map
	app := newProtectedApp(&captured)

	token := signedToken(t, jwtTestSecret, jwt.MapClaims{"sub": 42, "role": " Student "})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(42), captured["user_id"])
	require.Equal(t, "student", captured["user_role"])
}

func TestJWTProtectedFallsBackToAlternateClaims(t *testing.T) {
	var captured fiber.Map
	app := newProtectedApp(&captured)

	token := signedToken(t, jwtTestSecret, jwt.MapClaims{
		"user_id": "7",
		"roles":   []string{"", "Admin"},
	})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), captured["user_id"])
	require.Equal(t, "admin", captured["user_role"])
}

func TestNormalizeUserID(t *testing.T) {
	id, err := normalizeUserID(float64(42))
	require.NoError(t, err)
	require.Equal(t, uint(42), id)

	id, err = normalizeUserID("15")
	require.NoError(t, err)
	require.Equal(t, uint(15), id)

	id, err = normalizeUserID(3)
	require.NoError(t, err)
	require.Equal(t, uint(3), id)

	_, err = normalizeUserID(float64(-1))
	require.Error(t, err)

	_, err = normalizeUserID("not-a-number")
	require.Error(t, err)

	_, err = normalizeUserID(true)
	require.Error(t, err)
}
