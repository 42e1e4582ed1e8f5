package authz

import "github.com/solarflowhq/solarflow-backend/internal/models"

var dashboards = map[string]string{
	models.RoleAdmin:     "/admin/dashboard",
	models.RoleOffice:    "/office/dashboard",
	models.RoleAgent:     "/agent/dashboard",
	models.RoleInstaller: "/installer/dashboard",
	models.RoleCustomer:  "/customer/dashboard",
}

// DashboardPath returns the landing route for a role. Unknown roles land
// on the login page.
func DashboardPath(role string) string {
	if p, ok := dashboards[role]; ok {
		return p
	}
	return "/"
}
