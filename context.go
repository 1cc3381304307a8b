package goSession

import "context"

type stateContextKey struct{}

// WithState attaches a resolved session state to ctx. The middleware package uses it to
// hand the allowed user to downstream handlers.
//
//	Docs: docs/middleware.md
func WithState(ctx context.Context, s State) context.Context {
	return context.WithValue(ctx, stateContextKey{}, s)
}

// StateFromContext returns the state attached by [WithState].
func StateFromContext(ctx context.Context) (State, bool) {
	if ctx == nil {
		return State{}, false
	}
	s, ok := ctx.Value(stateContextKey{}).(State)
	return s, ok
}

// UserFromContext returns the authenticated user attached to ctx, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	s, ok := StateFromContext(ctx)
	if !ok {
		return User{}, false
	}
	return s.User()
}
