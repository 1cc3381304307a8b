package gate

import (
	goSession "github.com/MrEthical07/goSession"
)

// Outcome is the routing decision for one (state, requiredRoles) pair.
type Outcome uint8

const (
	// ShowLoading means the session has not settled yet.
	ShowLoading Outcome = iota
	// RedirectToAdminLogin sends an unauthenticated visitor of an admin route to the admin portal.
	RedirectToAdminLogin
	// RedirectToLogin sends an unauthenticated visitor to the ordinary sign-in page.
	RedirectToLogin
	// Allow renders the route.
	Allow
	// RedirectHome sends an authenticated visitor without the required role home.
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case ShowLoading:
		return "show_loading"
	case RedirectToAdminLogin:
		return "redirect_admin_login"
	case RedirectToLogin:
		return "redirect_login"
	case Allow:
		return "allow"
	case RedirectHome:
		return "redirect_home"
	default:
		return "invalid"
	}
}

// Redirects reports whether o navigates away from the route.
func (o Outcome) Redirects() bool {
	return o == RedirectToAdminLogin || o == RedirectToLogin || o == RedirectHome
}

// Target returns the path o redirects to, or "" for ShowLoading and Allow.
// The forbidden route is never a gate target.
func (o Outcome) Target(routes goSession.RoutesConfig) string {
	switch o {
	case RedirectToAdminLogin:
		return routes.AdminLogin
	case RedirectToLogin:
		return routes.Login
	case RedirectHome:
		return routes.Home
	default:
		return ""
	}
}

// Decide maps a session state and the roles a route requires to an outcome.
// An empty required set admits any authenticated user. Decide never fails.
func Decide(state goSession.State, required ...goSession.Role) Outcome {
	switch state.Kind() {
	case goSession.StateUnknown:
		return ShowLoading
	case goSession.StateUnauthenticated:
		if hasRole(required, goSession.RoleAdmin) {
			return RedirectToAdminLogin
		}
		return RedirectToLogin
	}

	if len(required) == 0 {
		return Allow
	}
	role, _ := state.Role()
	if hasRole(required, role) {
		return Allow
	}
	return RedirectHome
}

// Visible reports whether a navigation entry restricted to roles should be shown.
// Unlike [Decide] it never waits: an unsettled session shows nothing restricted.
func Visible(state goSession.State, roles ...goSession.Role) bool {
	if !state.IsAuthenticated() {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	role, _ := state.Role()
	return hasRole(roles, role)
}

func hasRole(roles []goSession.Role, want goSession.Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
