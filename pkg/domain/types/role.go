package types

import (
	"fmt"
	"strings"
)

// Role is the portal role of an identity or a directory user
type Role string

const (
	RoleAdmin  Role = "admin"
	RolePicker Role = "picker"
)

// AllRoles returns all valid roles
func AllRoles() []Role {
	return []Role{
		RoleAdmin,
		RolePicker,
	}
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin,
		RolePicker:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role grants admin views
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Label returns the display label of the role
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrador"
	case RolePicker:
		return "Preparador"
	default:
		return string(r)
	}
}

// ParseRole parses a role case-insensitively. The directory service stores
// roles in mixed case, the portal always uses lower case.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return role, nil
}
