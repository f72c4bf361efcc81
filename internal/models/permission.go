package models

// Permission is a fine-grained capability checked against a role's fixed set.
type Permission string

const (
	PermViewOwnTime        Permission = "view:own_time"
	PermEditOwnTime        Permission = "edit:own_time"
	PermViewCrewTime       Permission = "view:crew_time"
	PermApproveTime        Permission = "approve:time"
	PermViewAllTime        Permission = "view:all_time"
	PermManageProjects     Permission = "manage:projects"
	PermManageTimecards    Permission = "manage:timecards"
	PermManageUsers        Permission = "manage:users"
	PermViewFinancials     Permission = "view:financials"
	PermExportPayroll      Permission = "export:payroll"
	PermManageIntegrations Permission = "manage:integrations"
)

// allPermissions is the full enumerated capability set. Owner's grant is
// derived from this slice, so adding a permission here automatically grants
// it to Owner.
var allPermissions = []Permission{
	PermViewOwnTime,
	PermEditOwnTime,
	PermViewCrewTime,
	PermApproveTime,
	PermViewAllTime,
	PermManageProjects,
	PermManageTimecards,
	PermManageUsers,
	PermViewFinancials,
	PermExportPayroll,
	PermManageIntegrations,
}

// rolePermissions is built once at init and never mutated afterwards. Lookups
// go through RoleHasPermission only.
var rolePermissions map[UserRole]map[Permission]struct{}

func init() {
	grants := map[UserRole][]Permission{
		RoleFieldWorker: {
			PermViewOwnTime,
			PermEditOwnTime,
		},
		RoleForeman: {
			PermViewOwnTime,
			PermEditOwnTime,
			PermViewCrewTime,
			PermApproveTime,
		},
		RoleProjectManager: {
			PermViewAllTime,
			PermApproveTime,
			PermManageProjects,
			PermManageTimecards,
			PermViewFinancials,
		},
		RoleAdmin: {
			PermViewAllTime,
			PermApproveTime,
			PermManageProjects,
			PermManageTimecards,
			PermManageUsers,
			PermViewFinancials,
			PermExportPayroll,
			PermManageIntegrations,
		},
		RoleOwner: allPermissions,
	}

	rolePermissions = make(map[UserRole]map[Permission]struct{}, len(grants))
	for role, perms := range grants {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		rolePermissions[role] = set
	}
}

// AllPermissions returns a copy of the full permission list.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// RolePermissions returns a copy of the permission set granted to a role.
func RolePermissions(role UserRole) []Permission {
	set, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(set))
	for _, p := range allPermissions {
		if _, granted := set[p]; granted {
			out = append(out, p)
		}
	}
	return out
}

// RoleHasPermission reports whether the role's configured set contains the
// permission. Unknown roles hold nothing.
func RoleHasPermission(role UserRole, permission Permission) bool {
	set, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, granted := set[permission]
	return granted
}
