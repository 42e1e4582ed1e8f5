package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestStepRoleAllowed(t *testing.T) {
	step := &StepMaster{AllowedRoles: datatypes.NewJSONSlice([]string{RoleOffice, RoleInstaller})}

	assert.True(t, step.RoleAllowed(RoleOffice))
	assert.True(t, step.RoleAllowed(RoleInstaller))
	assert.False(t, step.RoleAllowed(RoleAgent))
	assert.False(t, step.RoleAllowed(RoleCustomer))

	// admin bypasses the per-step list
	assert.True(t, step.RoleAllowed(RoleAdmin))

	empty := &StepMaster{}
	assert.True(t, empty.RoleAllowed(RoleAdmin))
	assert.False(t, empty.RoleAllowed(RoleOffice))
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleAdmin, RoleOffice, RoleAgent, RoleInstaller, RoleCustomer} {
		assert.True(t, ValidRole(r), r)
	}
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("superuser"))
}
