package enums

import (
	"fmt"
	"strings"
)

// UserRole is the single role attribute carried by a principal.
type UserRole string

const (
	UserRoleUser       UserRole = "user"
	UserRoleModerator  UserRole = "moderator"
	UserRoleSuperAdmin UserRole = "superadmin"
)

var validUserRoles = []UserRole{
	UserRoleUser,
	UserRoleModerator,
	UserRoleSuperAdmin,
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanPurchase reports whether the role may place orders. Only regular users
// buy; staff roles moderate.
func (r UserRole) CanPurchase() bool {
	return r == UserRoleUser
}

// ParseUserRole is case-insensitive.
func ParseUserRole(value string) (UserRole, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validUserRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
