package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is an account role. It is always held in upper case.
type Role string

const (
	RoleTenant      Role = "TENANT"
	RoleOwner       Role = "OWNER"
	RoleBroker      Role = "BROKER"
	RoleRunner      Role = "RUNNER"
	RoleProvider    Role = "PROVIDER"
	RoleMaintenance Role = "MAINTENANCE"

	// Privileged roles, never assignable through public registration
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

var publicRoles = map[Role]bool{
	RoleTenant:      true,
	RoleOwner:       true,
	RoleBroker:      true,
	RoleRunner:      true,
	RoleProvider:    true,
	RoleMaintenance: true,
}

// NormalizeRole returns the canonical form of a role string.
func NormalizeRole(raw string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(raw)))
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return publicRoles[r] || r.IsPrivileged()
}

// IsPubliclyRegistrable reports whether r may be chosen at sign up.
func (r Role) IsPubliclyRegistrable() bool {
	return publicRoles[r]
}

func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// IsProfessional reports whether accounts with this role carry a professional profile.
func (r Role) IsProfessional() bool {
	return r == RoleProvider || r == RoleMaintenance
}

func (r Role) String() string {
	return string(r)
}

// Scan implements the sql.Scanner interface for Role.
func (r *Role) Scan(value any) error {
	if value == nil {
		*r = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*r = NormalizeRole(v)
	case []byte:
		*r = NormalizeRole(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for Role.
func (r Role) Value() (driver.Value, error) {
	n := NormalizeRole(string(r))
	if !n.Valid() {
		return nil, fmt.Errorf("invalid Role: %s", r)
	}
	return string(n), nil
}
