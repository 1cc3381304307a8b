// Package middleware adapts gate decisions to net/http.
//
// # Guards
//
//   - [Protect] applies an explicit role set.
//   - [Gate] resolves the role set from a [gate.Table] by request path.
//   - [RequireAdmin] and [RequireSignedIn] are the two common shorthands.
//
// ShowLoading answers 503 with Retry-After (or a custom loading handler), redirects
// answer 302 to the configured target, and Allow calls the next handler with the session
// state in the request context.
//
// # What this package must NOT do
//
//   - Mutate session state or credentials. Guards hold a read-only [goSession.SessionView].
//   - Make access decisions of its own; every decision comes from gate.Decide.
package middleware
