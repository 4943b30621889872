package domain

import "fmt"

// Role is the account's privilege level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole accepts exactly "user" or "admin".
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Satisfies reports whether an account with role r may use an entry point
// that expects role want. Admins may act as users, never the reverse.
func (r Role) Satisfies(want Role) bool {
	switch want {
	case RoleUser:
		return r == RoleUser || r == RoleAdmin
	case RoleAdmin:
		return r == RoleAdmin
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }
