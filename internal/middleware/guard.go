package middleware

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/authz"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"github.com/solarflowhq/solarflow-backend/internal/session"
)

// ProfileSource loads the fresh profile for guard decisions, so disabling
// an account takes effect on the next request rather than at token expiry.
type ProfileSource interface {
	ProfileByID(id uuid.UUID) (*models.Profile, error)
}

type RouteRule struct {
	Prefix string
	Roles  []string
}

var allRoles = []string{
	models.RoleAdmin, models.RoleOffice, models.RoleAgent,
	models.RoleInstaller, models.RoleCustomer,
}

// Protected route table. Matching is longest-prefix, independent of method.
// Per-operation policy still applies inside services; the guard only gates
// entry.
var protectedRoutes = []RouteRule{
	{Prefix: "/admin", Roles: []string{models.RoleAdmin}},
	{Prefix: "/office", Roles: []string{models.RoleOffice, models.RoleAdmin}},
	{Prefix: "/agent", Roles: []string{models.RoleAgent, models.RoleAdmin}},
	{Prefix: "/installer", Roles: []string{models.RoleInstaller, models.RoleAdmin}},
	{Prefix: "/customer", Roles: []string{models.RoleCustomer, models.RoleAdmin}},
	{Prefix: "/api/admin", Roles: []string{models.RoleAdmin}},
	{Prefix: "/api/activity", Roles: []string{models.RoleAdmin, models.RoleOffice}},
	{Prefix: "/api/leads", Roles: allRoles},
	{Prefix: "/api/steps", Roles: allRoles},
	{Prefix: "/api/notifications", Roles: allRoles},
	{Prefix: "/api/me", Roles: allRoles},
	// The only /api/auth path that needs a session; login, register and
	// refresh stay public by not being listed.
	{Prefix: "/api/auth/logout", Roles: allRoles},
}

// Classify returns the matching protected rule by longest prefix. Paths
// outside the table (/login, /signup, /api/health, the rest of /api/auth)
// are public: ok=false.
func Classify(path string) (RouteRule, bool) {
	matches := make([]RouteRule, 0, 2)
	for _, r := range protectedRoutes {
		if strings.HasPrefix(path, r.Prefix) {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return RouteRule{}, false
	}
	sort.Slice(matches, func(i, j int) bool {
		return len(matches[i].Prefix) > len(matches[j].Prefix)
	})
	return matches[0], true
}

func isAPI(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// RouteGuard gates every request before handler dispatch. Page routes get
// redirect semantics (soft denial to the caller's own dashboard, never a
// 403 page); API routes get JSON 401/403.
func RouteGuard(bridge *session.Bridge, profiles ProfileSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		id, _ := bridge.Resolve(c)

		// Landing page: signed-in users go straight to their dashboard.
		if path == "/" {
			if id != nil {
				if profile, err := profiles.ProfileByID(id.UserID); err == nil {
					return c.Redirect(authz.DashboardPath(profile.Role), fiber.StatusFound)
				}
			}
			return c.Next()
		}

		rule, protected := Classify(path)
		if !protected {
			if id != nil {
				session.Store(c, id)
			}
			return c.Next()
		}

		if id == nil {
			return denyUnauthenticated(c, path)
		}

		// Profile lookup failure is treated as "no profile": same handling
		// as unauthenticated, never a fabricated user.
		profile, err := profiles.ProfileByID(id.UserID)
		if err != nil {
			return denyUnauthenticated(c, path)
		}

		if profile.Status == models.UserDisabled {
			if isAPI(path) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
					Error: dto.ErrorBody{Code: "forbidden", Message: "account disabled"},
				})
			}
			return c.Redirect("/?error=account_disabled", fiber.StatusFound)
		}

		if !roleIn(profile.Role, rule.Roles) {
			if isAPI(path) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
					Error: dto.ErrorBody{Code: "forbidden", Message: "insufficient role"},
				})
			}
			// Soft denial: send the caller to their own dashboard.
			return c.Redirect(authz.DashboardPath(profile.Role), fiber.StatusFound)
		}

		// The profile row is fresher than the token claims.
		id.Role = profile.Role
		id.Status = profile.Status
		session.Store(c, id)
		return c.Next()
	}
}

func denyUnauthenticated(c *fiber.Ctx, path string) error {
	if isAPI(path) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: dto.ErrorBody{Code: "unauthorized", Message: "authentication required"},
		})
	}
	return c.Redirect("/?redirectTo="+path, fiber.StatusFound)
}

func roleIn(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
