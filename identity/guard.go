package identity

// LoginRoute is the entry point unauthenticated (or unknown-role) users are
// sent to.
const LoginRoute = "/login"

// defaultRoutes is the single canonical role-to-default-destination table.
var defaultRoutes = map[Role]string{
	RoleAdmin: "/admin",
	RoleDev:   "/dev",
	RoleDoc:   "/doc",
	RoleUser:  "/user",
}

// CanAccess reports whether ident may access a resource gated by required.
// No identity always fails. An absent or empty required set admits any
// authenticated identity.
func CanAccess(ident *Identity, required []Role) bool {
	if ident == nil {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if ident.Role == r {
			return true
		}
	}
	return false
}

// DefaultRoute returns the dashboard destination for a role, or the login
// entry point when the role has no known destination.
func DefaultRoute(role Role) string {
	if route, ok := defaultRoutes[role]; ok {
		return route
	}
	return LoginRoute
}

// Redirect evaluates access and, on denial, names the destination the caller
// should send the user to: the identity's own dashboard when one is known,
// otherwise the login entry point.
func Redirect(ident *Identity, required []Role) (target string, allowed bool) {
	if CanAccess(ident, required) {
		return "", true
	}
	if ident == nil {
		return LoginRoute, false
	}
	return DefaultRoute(ident.Role), false
}
