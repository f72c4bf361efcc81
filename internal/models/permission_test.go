package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// expectedGrants mirrors the configured table so the exhaustive grid below
// catches accidental edits to either side.
var expectedGrants = map[UserRole][]Permission{
	RoleFieldWorker: {PermViewOwnTime, PermEditOwnTime},
	RoleForeman:     {PermViewOwnTime, PermEditOwnTime, PermViewCrewTime, PermApproveTime},
	RoleProjectManager: {
		PermViewAllTime, PermApproveTime, PermManageProjects, PermManageTimecards, PermViewFinancials,
	},
	RoleAdmin: {
		PermViewAllTime, PermApproveTime, PermManageProjects, PermManageTimecards,
		PermManageUsers, PermViewFinancials, PermExportPayroll, PermManageIntegrations,
	},
	RoleOwner: AllPermissions(),
}

func TestRoleHasPermissionExhaustive(t *testing.T) {
	for _, role := range AllRoles() {
		granted := make(map[Permission]bool)
		for _, p := range expectedGrants[role] {
			granted[p] = true
		}
		for _, perm := range AllPermissions() {
			assert.Equalf(t, granted[perm], RoleHasPermission(role, perm),
				"role %s permission %s", role, perm)
		}
	}
}

func TestOwnerHoldsEveryPermission(t *testing.T) {
	for _, perm := range AllPermissions() {
		assert.Truef(t, RoleHasPermission(RoleOwner, perm), "owner missing %s", perm)
	}
}

func TestDisjointCapabilities(t *testing.T) {
	// Foreman approves crew time but cannot manage projects.
	assert.True(t, RoleHasPermission(RoleForeman, PermApproveTime))
	assert.False(t, RoleHasPermission(RoleForeman, PermManageProjects))

	// Project managers run projects and see financials but cannot manage accounts.
	assert.True(t, RoleHasPermission(RoleProjectManager, PermManageProjects))
	assert.True(t, RoleHasPermission(RoleProjectManager, PermViewFinancials))
	assert.False(t, RoleHasPermission(RoleProjectManager, PermManageUsers))

	// Only Admin and Owner manage users, export payroll and manage integrations.
	for _, perm := range []Permission{PermManageUsers, PermExportPayroll, PermManageIntegrations} {
		assert.False(t, RoleHasPermission(RoleFieldWorker, perm))
		assert.False(t, RoleHasPermission(RoleForeman, perm))
		assert.False(t, RoleHasPermission(RoleProjectManager, perm))
		assert.True(t, RoleHasPermission(RoleAdmin, perm))
		assert.True(t, RoleHasPermission(RoleOwner, perm))
	}
}

func TestUnknownRoleHoldsNothing(t *testing.T) {
	for _, perm := range AllPermissions() {
		assert.False(t, RoleHasPermission(UserRole("INTERN"), perm))
	}
}

func TestRolePermissionsCopies(t *testing.T) {
	perms := RolePermissions(RoleFieldWorker)
	assert.Len(t, perms, 2)

	perms[0] = PermManageUsers
	assert.False(t, RoleHasPermission(RoleFieldWorker, PermManageUsers))
}
