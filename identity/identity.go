// Package identity models the authenticated user and the role-based access
// checks the console applies before exposing a protected resource.
package identity

import "strings"

// Role represents the console role a user acts under. Casing is canonical
// upper-case; anything arriving from the backend is normalized at this
// boundary.
type Role string

const (
	RoleAdmin Role = "ADMIN" // Full administrative access
	RoleDev   Role = "DEV"   // Developer portal access
	RoleDoc   Role = "DOC"   // Doctor portal access
	RoleUser  Role = "USER"  // Patient portal access, the least-privileged role
)

// rolePrefix is what the backend prepends to every entry of its roles list
// (ROLE_ADMIN, ROLE_DOC, ...).
const rolePrefix = "ROLE_"

// Identity is the client's view of the authenticated user.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// RoleFromClaims derives the user's role from the backend-supplied roles
// list: strip the fixed prefix from the first entry and normalize casing.
// A missing, empty or unknown role defaults to the least-privileged role,
// never to an elevated one.
func RoleFromClaims(roles []string) Role {
	if len(roles) == 0 {
		return RoleUser
	}
	name := strings.ToUpper(strings.TrimSpace(roles[0]))
	name = strings.TrimPrefix(name, rolePrefix)
	switch Role(name) {
	case RoleAdmin, RoleDev, RoleDoc, RoleUser:
		return Role(name)
	default:
		return RoleUser
	}
}
