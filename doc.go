// Package goSession resolves the client session of the booking web client: whether the
// visitor is signed in, which role they hold, and what the route gate should do about it.
//
// A [Resolver] combines locally persisted [Credentials] with an asynchronous server
// validation. It starts in Unknown when credentials exist, settles to Authenticated or
// Unauthenticated when the validation (and, on failure, the current-user fallback)
// returns, and revalidates on an interval and on window focus.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Resolver], [Builder], [Config], [State]
// and the collaborator interfaces ([CredentialStore], [SessionValidator],
// [CurrentUserFetcher], [Authenticator], [NotificationSink]). Credential backends live in
// credentials/, the HTTP client in apiclient/, routing decisions in gate/ and the
// net/http adapter in middleware/.
//
// # What this package must NOT do
//
//   - Let a superseded validation result change state. Only the most recently initiated
//     call may settle.
//   - Clear credentials on a failed validation. Only logout and an admin-portal role
//     rejection clear them.
//   - Surface validation failures as toasts.
//   - Import any sub-package that re-imports goSession (no import cycles).
package goSession
