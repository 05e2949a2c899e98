package entity

// Role is the access role of a user. Roles are not hierarchical.
type Role string

const (
	RolePatient Role = "patient"
	RoleDentist Role = "dentist"
	RoleAdmin   Role = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleDentist, RoleAdmin:
		return true
	}
	return false
}

// IsPrivileged reports whether assigning r requires an administrator.
func (r Role) IsPrivileged() bool {
	return r == RoleDentist || r == RoleAdmin
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID  uint
	Role    Role
	TokenID string
}

// HasRole reports whether the principal holds any of the given roles.
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
