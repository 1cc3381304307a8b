package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// RequireAdmin gates next to administrators. Signed-out visitors go to the admin login.
//
//	Docs: docs/middleware.md
func RequireAdmin(view goSession.SessionView, opts Options) func(http.Handler) http.Handler {
	return Protect(view, opts, goSession.RoleAdmin)
}

// RequireSignedIn gates next to any authenticated user.
func RequireSignedIn(view goSession.SessionView, opts Options) func(http.Handler) http.Handler {
	return Protect(view, opts)
}
