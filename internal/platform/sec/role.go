// Copyright (c) 2026 Intravine. All rights reserved.

package sec

// # User Roles

// UserRole represents the authorization level granted by the platform.
type UserRole string

const (
	// Can browse and moderate every Thank You and manage tags
	RoleAdmin UserRole = "admin"

	// Can create Thank Yous and edit or delete their own
	RoleMember UserRole = "member"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 40
	case RoleMember:
		return 10
	default:
		return 0
	}
}
