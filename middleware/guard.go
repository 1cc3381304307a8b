package middleware

import (
	"net/http"
	"strconv"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/gate"
)

// Options configures the HTTP translation of gate outcomes.
type Options struct {
	// Routes supplies the redirect targets. Zero values fall back to the defaults.
	Routes goSession.RoutesConfig
	// Loading renders ShowLoading. Nil answers 503 with Retry-After.
	Loading http.Handler
	// RetryAfter is sent with the default loading response. Zero means one second.
	RetryAfter time.Duration
}

func (o Options) withDefaults() Options {
	def := goSession.DefaultConfig().Routes
	if o.Routes.Login == "" {
		o.Routes.Login = def.Login
	}
	if o.Routes.AdminLogin == "" {
		o.Routes.AdminLogin = def.AdminLogin
	}
	if o.Routes.Home == "" {
		o.Routes.Home = def.Home
	}
	if o.Routes.Forbidden == "" {
		o.Routes.Forbidden = def.Forbidden
	}
	if o.RetryAfter <= 0 {
		o.RetryAfter = time.Second
	}
	return o
}

// Protect gates next behind the roles in required. An empty set admits any signed-in
// user. Allowed requests carry the session state in their context.
func Protect(view goSession.SessionView, opts Options, required ...goSession.Role) func(http.Handler) http.Handler {
	opts = opts.withDefaults()
	roles := append([]goSession.Role(nil), required...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if view == nil {
				http.Redirect(w, r, opts.Routes.Login, http.StatusFound)
				return
			}
			state := view.State()
			serve(w, r, next, opts, state, gate.Decide(state, roles...))
		})
	}
}

// Gate looks the request path up in table and applies its roles. Paths the table does
// not know pass through untouched.
func Gate(view goSession.SessionView, table *gate.Table, opts Options) func(http.Handler) http.Handler {
	opts = opts.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := table.Lookup(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if view == nil {
				http.Redirect(w, r, opts.Routes.Login, http.StatusFound)
				return
			}
			state := view.State()
			serve(w, r, next, opts, state, gate.Decide(state, route.Required...))
		})
	}
}

func serve(w http.ResponseWriter, r *http.Request, next http.Handler, opts Options, state goSession.State, outcome gate.Outcome) {
	switch outcome {
	case gate.Allow:
		next.ServeHTTP(w, r.WithContext(goSession.WithState(r.Context(), state)))
	case gate.ShowLoading:
		if opts.Loading != nil {
			opts.Loading.ServeHTTP(w, r)
			return
		}
		secs := int(opts.RetryAfter / time.Second)
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		http.Error(w, "session loading", http.StatusServiceUnavailable)
	default:
		http.Redirect(w, r, outcome.Target(opts.Routes), http.StatusFound)
	}
}

// UserFromContext returns the user attached by an allowing guard.
func UserFromContext(r *http.Request) (goSession.User, bool) {
	return goSession.UserFromContext(r.Context())
}
