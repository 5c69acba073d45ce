package auth

// Role is the only extension claim a token carries.
type Role string

const (
	// RoleGuest is an guest role (ie. view)
	RoleGuest Role = "guest"
	// RoleMember us a member (i.e. view, edit)
	RoleMember Role = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin Role = "admin"
	// RoleOwner is an admin role (i.e. view, edit, create, delete)
	RoleOwner Role = "owner"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleMember, RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

// level returns the position of the role in the hierarchy, -1 if unknown
func (r Role) level() int {
	switch r {
	case RoleGuest:
		return 0
	case RoleMember:
		return 1
	case RoleAdmin:
		return 2
	case RoleOwner:
		return 3
	default:
		return -1
	}
}

// IsAtLeast checks if this role is at least the given minimum role
func (r Role) IsAtLeast(minRole Role) bool {
	if !r.IsValid() || !minRole.IsValid() {
		return false
	}
	return r.level() >= minRole.level()
}

// ParseRole returns the role named by s, falling back to RoleGuest for
// anything outside the closed set.
func ParseRole(s string) Role {
	r := Role(s)
	if r.IsValid() {
		return r
	}
	return RoleGuest
}
