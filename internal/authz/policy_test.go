package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	cases := []struct {
		role, resource, action string
		want                   Decision
	}{
		{models.RoleAdmin, "leads", "create", Allow},
		{models.RoleOffice, "leads", "create", Allow},
		{models.RoleAgent, "leads", "create", Allow},
		{models.RoleInstaller, "leads", "create", Deny},
		{models.RoleCustomer, "leads", "create", Deny},

		{models.RoleOffice, "leads", "read", Allow},
		{models.RoleAgent, "leads", "read", AllowOwner},
		{models.RoleInstaller, "leads", "read", AllowOwner},
		{models.RoleCustomer, "leads", "read", AllowOwner},

		{models.RoleAgent, "leads", "transition", AllowOwner},
		{models.RoleInstaller, "leads", "transition", Deny},
		{models.RoleOffice, "leads", "assign_installer", Allow},
		{models.RoleAgent, "leads", "assign_installer", Deny},

		{models.RoleOffice, "timeline", "complete", Allow},
		{models.RoleAgent, "timeline", "complete", AllowOwner},
		{models.RoleInstaller, "timeline", "complete", AllowOwner},
		{models.RoleCustomer, "timeline", "complete", Deny},
		{models.RoleAgent, "timeline", "reopen", AllowOwner},
		{models.RoleAdmin, "timeline", "halt", Allow},
		{models.RoleOffice, "timeline", "halt", Deny},
		{models.RoleAdmin, "timeline", "move_backward", Allow},
		{models.RoleOffice, "timeline", "move_backward", Deny},

		{models.RoleCustomer, "documents", "submit", AllowOwner},
		{models.RoleCustomer, "documents", "delete", Deny},
		{models.RoleOffice, "documents", "flag", Allow},

		{models.RoleAdmin, "steps", "manage", Allow},
		{models.RoleOffice, "steps", "manage", Deny},
		{models.RoleCustomer, "steps", "read", Allow},

		{models.RoleOffice, "activity", "read", Allow},
		{models.RoleAgent, "activity", "read", Deny},

		{models.RoleOffice, "users", "manage", Deny},
		{models.RoleOffice, "users", "create", Allow},

		// unknown resource or action denies
		{models.RoleAdmin, "widgets", "read", Deny},
		{models.RoleAdmin, "leads", "explode", Deny},
		{"", "leads", "read", Deny},
	}

	for _, tc := range cases {
		got := Check(tc.role, tc.resource, tc.action)
		assert.Equal(t, tc.want, got, "%s %s:%s", tc.role, tc.resource, tc.action)
	}
}

func TestOwnsLead(t *testing.T) {
	userID := uuid.New()
	other := uuid.New()

	lead := &models.Lead{CreatedBy: userID, InstallerID: &userID, CustomerAccountID: &userID}

	assert.True(t, OwnsLead(models.RoleAgent, lead, userID))
	assert.True(t, OwnsLead(models.RoleInstaller, lead, userID))
	assert.True(t, OwnsLead(models.RoleCustomer, lead, userID))

	assert.False(t, OwnsLead(models.RoleAgent, lead, other))
	assert.False(t, OwnsLead(models.RoleInstaller, lead, other))
	assert.False(t, OwnsLead(models.RoleCustomer, lead, other))

	unassigned := &models.Lead{CreatedBy: other}
	assert.False(t, OwnsLead(models.RoleInstaller, unassigned, userID))
	assert.False(t, OwnsLead(models.RoleCustomer, unassigned, userID))
}

func TestDashboardPath(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", DashboardPath(models.RoleAdmin))
	assert.Equal(t, "/office/dashboard", DashboardPath(models.RoleOffice))
	assert.Equal(t, "/agent/dashboard", DashboardPath(models.RoleAgent))
	assert.Equal(t, "/installer/dashboard", DashboardPath(models.RoleInstaller))
	assert.Equal(t, "/customer/dashboard", DashboardPath(models.RoleCustomer))
	assert.Equal(t, "/", DashboardPath("ghost"))
}
