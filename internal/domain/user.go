package domain

import (
	"strings"
	"time"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleDirector        Role = "director"
	RoleRegionalManager Role = "regional_manager"
	RoleFieldAgent      Role = "field_agent"
)

var legacyRoles = map[string]Role{
	"diretor":          RoleDirector,
	"gerente_regional": RoleRegionalManager,
	"captador":         RoleFieldAgent,
}

// ParseRole maps a raw role string (including legacy aliases) to a Role.
func ParseRole(raw string) (Role, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	switch Role(key) {
	case RoleAdmin, RoleDirector, RoleRegionalManager, RoleFieldAgent:
		return Role(key), true
	}
	role, ok := legacyRoles[key]
	return role, ok
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDirector, RoleRegionalManager, RoleFieldAgent:
		return true
	}
	return false
}

// Unrestricted reports whether the role bypasses region scoping.
func (r Role) Unrestricted() bool {
	return r == RoleAdmin || r == RoleDirector
}

// User is an account able to authenticate against the API.
type User struct {
	ID                 string
	Name               string
	Email              string
	PasswordHash       string
	Role               Role
	HomeRegion         string
	ResponsibleRegions []string
	ManagerID          *string
	Active             bool
	CreatedAt          time.Time
}
