package models

import (
	"fmt"
	"strings"
)

// Role is a permission level. Roles form a total order:
// viewer < data_entry < admin < super_admin.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleDataEntry  Role = "data_entry"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Roles lists every known role from lowest to highest.
var Roles = []Role{RoleViewer, RoleDataEntry, RoleAdmin, RoleSuperAdmin}

// Level returns the rank of r, or 0 for an unknown role.
func (r Role) Level() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleDataEntry:
		return 2
	case RoleAdmin:
		return 3
	case RoleSuperAdmin:
		return 4
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r.Level() > 0 }

// AtLeast reports whether r grants everything required grants.
func (r Role) AtLeast(required Role) bool {
	return r.Level() >= required.Level()
}

// Compare returns -1, 0 or 1 as r ranks below, equal to or above other.
func (r Role) Compare(other Role) int {
	switch a, b := r.Level(), other.Level(); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ParseRole normalizes s into a known role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}
