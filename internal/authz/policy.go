// Package authz holds the declarative role policy: one table of
// resource × action → allowed roles, evaluated the same way by every
// handler and service instead of per-route ad hoc checks.
package authz

import "github.com/solarflowhq/solarflow-backend/internal/models"

type Decision int

const (
	Deny Decision = iota
	Allow
	// AllowOwner grants access only when the actor owns the resource; the
	// service enforces the ownership comparison.
	AllowOwner
)

type ruleKey struct {
	Resource string
	Action   string
}

type rule struct {
	roles      []string
	ownerRoles []string
}

var policy = map[ruleKey]rule{
	{"leads", "create"}: {roles: []string{models.RoleAdmin, models.RoleOffice, models.RoleAgent}},
	{"leads", "list"}:   {roles: []string{models.RoleAdmin, models.RoleOffice}, ownerRoles: []string{models.RoleAgent, models.RoleInstaller, models.RoleCustomer}},
	{"leads", "read"}:   {roles: []string{models.RoleAdmin, models.RoleOffice}, ownerRoles: []string{models.RoleAgent, models.RoleInstaller, models.RoleCustomer}},
	{"leads", "update"}: {roles: []string{models.RoleAdmin, models.RoleOffice}, ownerRoles: []string{models.RoleAgent}},
	// Lead status transitions: admins and office staff; agents only on
	// leads they created.
	{"leads", "transition"}:       {roles: []string{models.RoleAdmin, models.RoleOffice}, ownerRoles: []string{models.RoleAgent}},
	{"leads", "assign_installer"}: {roles: []string{models.RoleAdmin, models.RoleOffice}},

	{"timeline", "read"}: {roles: []string{models.RoleAdmin, models.RoleOffice}, ownerRoles: []string{models.RoleAgent, models.RoleInstaller, models.RoleCustomer}},
	// Step completion additionally checks the step's own allowed_roles.
	// Agents and installers may only act on leads bound to them.
	{"timeline", "complete"}:      {roles: []string{models.RoleAdmin, models.RoleOffice}, ownerRoles: []string{models.RoleAgent, models.RoleInstaller}},
	{"timeline", "reopen"}:        {roles: []string{models.RoleAdmin, models.RoleOffice}, ownerRoles: []string{models.RoleAgent, models.RoleInstaller}},
	{"timeline", "halt"}:          {roles: []string{models.RoleAdmin}},
	{"timeline", "move_backward"}: {roles: []string{models.RoleAdmin}},

	{"documents", "read"}:   {roles: []string{models.RoleAdmin, models.RoleOffice}, ownerRoles: []string{models.RoleAgent, models.RoleInstaller, models.RoleCustomer}},
	{"documents", "submit"}: {roles: []string{models.RoleAdmin, models.RoleOffice, models.RoleAgent}, ownerRoles: []string{models.RoleCustomer}},
	{"documents", "delete"}: {roles: []string{models.RoleAdmin, models.RoleOffice}},
	{"documents", "flag"}:   {roles: []string{models.RoleAdmin, models.RoleOffice}},

	{"steps", "read"}:   {roles: []string{models.RoleAdmin, models.RoleOffice, models.RoleAgent, models.RoleInstaller, models.RoleCustomer}},
	{"steps", "manage"}: {roles: []string{models.RoleAdmin}},

	{"activity", "read"}: {roles: []string{models.RoleAdmin, models.RoleOffice}},

	{"users", "manage"}: {roles: []string{models.RoleAdmin}},
	{"users", "create"}: {roles: []string{models.RoleAdmin, models.RoleOffice}},
}

// Check evaluates the policy table for role on resource/action.
func Check(role, resource, action string) Decision {
	r, ok := policy[ruleKey{Resource: resource, Action: action}]
	if !ok {
		return Deny
	}
	for _, allowed := range r.roles {
		if allowed == role {
			return Allow
		}
	}
	for _, allowed := range r.ownerRoles {
		if allowed == role {
			return AllowOwner
		}
	}
	return Deny
}
