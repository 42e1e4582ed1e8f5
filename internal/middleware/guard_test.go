package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/config"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"github.com/solarflowhq/solarflow-backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guardTestSecret = "guard-test-secret"

type stubProfiles struct {
	profile *models.Profile
	err     error
}

func (s stubProfiles) ProfileByID(uuid.UUID) (*models.Profile, error) {
	return s.profile, s.err
}

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		session.ClaimSub:    userID.String(),
		session.ClaimEmail:  "user@example.com",
		session.ClaimRole:   role,
		session.ClaimStatus: models.UserActive,
		"exp":               time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(guardTestSecret))
	require.NoError(t, err)
	return signed
}

func guardApp(profiles ProfileSource) *fiber.App {
	bridge := session.NewBridge(&config.Config{JWTSecret: guardTestSecret})
	app := fiber.New()
	app.Use(RouteGuard(bridge, profiles))

	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/", ok)
	app.Get("/office/dashboard", ok)
	app.Get("/admin/dashboard", ok)
	app.Get("/api/leads", ok)
	app.Post("/api/auth/login", ok)
	app.Post("/api/auth/logout", ok)
	return app
}

func TestClassify(t *testing.T) {
	rule, ok := Classify("/admin/users")
	require.True(t, ok)
	assert.Equal(t, "/admin", rule.Prefix)

	// longest prefix wins over /api/auth being public elsewhere
	rule, ok = Classify("/api/admin/users")
	require.True(t, ok)
	assert.Equal(t, "/api/admin", rule.Prefix)

	rule, ok = Classify("/api/activity")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{models.RoleAdmin, models.RoleOffice}, rule.Roles)

	_, ok = Classify("/login")
	assert.False(t, ok)

	_, ok = Classify("/api/health")
	assert.False(t, ok)

	// logout is the one auth path behind the guard; its siblings are public
	rule, ok = Classify("/api/auth/logout")
	require.True(t, ok)
	assert.Equal(t, "/api/auth/logout", rule.Prefix)

	_, ok = Classify("/api/auth/login")
	assert.False(t, ok)
}

func TestGuardLogoutRequiresSession(t *testing.T) {
	userID := uuid.New()
	app := guardApp(stubProfiles{profile: &models.Profile{
		ID: userID, Role: models.RoleCustomer, Status: models.UserActive,
	}})

	resp, err := app.Test(httptest.NewRequest("POST", "/api/auth/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleCustomer))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// login stays reachable without a session
	resp, err = app.Test(httptest.NewRequest("POST", "/api/auth/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGuardUnauthenticatedPageRedirects(t *testing.T) {
	app := guardApp(stubProfiles{})

	resp, err := app.Test(httptest.NewRequest("GET", "/office/dashboard", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/?redirectTo=/office/dashboard", resp.Header.Get("Location"))
}

func TestGuardUnauthenticatedAPIGets401(t *testing.T) {
	app := guardApp(stubProfiles{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/leads", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGuardWrongRolePageSoftDenies(t *testing.T) {
	userID := uuid.New()
	app := guardApp(stubProfiles{profile: &models.Profile{
		ID: userID, Role: models.RoleOffice, Status: models.UserActive,
	}})

	req := httptest.NewRequest("GET", "/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleOffice))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/office/dashboard", resp.Header.Get("Location"))
}

func TestGuardWrongRoleAPIGets403(t *testing.T) {
	userID := uuid.New()
	app := guardApp(stubProfiles{profile: &models.Profile{
		ID: userID, Role: models.RoleAgent, Status: models.UserActive,
	}})

	req := httptest.NewRequest("GET", "/api/activity", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleAgent))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestGuardDisabledAccountRedirects(t *testing.T) {
	userID := uuid.New()
	app := guardApp(stubProfiles{profile: &models.Profile{
		ID: userID, Role: models.RoleOffice, Status: models.UserDisabled,
	}})

	req := httptest.NewRequest("GET", "/office/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleOffice))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/?error=account_disabled", resp.Header.Get("Location"))
}

func TestGuardAllowsMatchingRole(t *testing.T) {
	userID := uuid.New()
	app := guardApp(stubProfiles{profile: &models.Profile{
		ID: userID, Role: models.RoleOffice, Status: models.UserActive,
	}})

	req := httptest.NewRequest("GET", "/office/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleOffice))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGuardAdminEntersEveryRoleArea(t *testing.T) {
	userID := uuid.New()
	app := guardApp(stubProfiles{profile: &models.Profile{
		ID: userID, Role: models.RoleAdmin, Status: models.UserActive,
	}})

	req := httptest.NewRequest("GET", "/office/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleAdmin))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGuardLandingRedirectsSignedInUsers(t *testing.T) {
	userID := uuid.New()
	app := guardApp(stubProfiles{profile: &models.Profile{
		ID: userID, Role: models.RoleCustomer, Status: models.UserActive,
	}})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleCustomer))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/customer/dashboard", resp.Header.Get("Location"))
}

func TestGuardProfileLookupFailureIsUnauthenticated(t *testing.T) {
	userID := uuid.New()
	app := guardApp(stubProfiles{err: assert.AnError})

	req := httptest.NewRequest("GET", "/api/leads", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleOffice))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
