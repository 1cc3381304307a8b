package gate

import (
	"errors"
	"strings"
	"sync"

	goSession "github.com/MrEthical07/goSession"
)

var (
	// ErrTableFrozen is returned by [Table.Register] after [Table.Freeze].
	ErrTableFrozen = errors.New("route table frozen")
	// ErrRouteExists is returned when a pattern is registered twice.
	ErrRouteExists = errors.New("route already registered")
	// ErrInvalidPattern is returned for a pattern that is not an absolute path.
	ErrInvalidPattern = errors.New("invalid route pattern")
	// ErrInvalidRole is returned for a required role outside the known set.
	ErrInvalidRole = errors.New("invalid required role")
)

// Route is a registered protected route.
type Route struct {
	Pattern  string
	Required []goSession.Role
	segments []string
}

// Table maps protected route patterns to the roles they require.
//
// Patterns are absolute paths; a segment starting with ':' matches any single segment.
// A table is built with Register, then frozen and shared read-only.
type Table struct {
	mu     sync.RWMutex
	routes []Route
	frozen bool
}

func NewTable() *Table {
	return &Table{}
}

// Register adds pattern with its required roles. No roles means any signed-in user.
func (t *Table) Register(pattern string, required ...goSession.Role) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return ErrTableFrozen
	}
	if !strings.HasPrefix(pattern, "/") {
		return ErrInvalidPattern
	}
	for _, r := range required {
		if !r.Valid() {
			return ErrInvalidRole
		}
	}

	segs := splitPath(pattern)
	for _, existing := range t.routes {
		if sameShape(existing.segments, segs) {
			return ErrRouteExists
		}
	}

	roles := make([]goSession.Role, len(required))
	copy(roles, required)
	t.routes = append(t.routes, Route{Pattern: pattern, Required: roles, segments: segs})
	return nil
}

// Freeze rejects further registration.
func (t *Table) Freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// Lookup finds the route matching path. Literal segments beat parameters, so
// /hotel/new wins over /hotel/:hotelId when both are registered.
func (t *Table) Lookup(path string) (Route, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segs := splitPath(path)

	t.mu.RLock()
	defer t.mu.RUnlock()

	best := -1
	bestScore := -1
	for i, r := range t.routes {
		score, ok := match(r.segments, segs)
		if ok && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Route{}, false
	}
	return t.routes[best], true
}

// Check decides the outcome for path. Paths outside the table are public and always
// allowed.
func (t *Table) Check(state goSession.State, path string) Outcome {
	r, ok := t.Lookup(path)
	if !ok {
		return Allow
	}
	return Decide(state, r.Required...)
}

// Routes returns a copy of the registered routes.
func (t *Table) Routes() []Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// match returns the number of literal segments matched.
func match(pattern, path []string) (int, bool) {
	if len(pattern) != len(path) {
		return 0, false
	}
	score := 0
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if path[i] == "" {
				return 0, false
			}
			continue
		}
		if seg != path[i] {
			return 0, false
		}
		score++
	}
	return score, true
}

func sameShape(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ap, bp := strings.HasPrefix(a[i], ":"), strings.HasPrefix(b[i], ":")
		if ap != bp || (!ap && a[i] != b[i]) {
			return false
		}
	}
	return true
}
