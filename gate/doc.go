// Package gate decides what a route does with the current session.
//
// [Decide] is a pure function of the session state and the roles a route requires:
//
//	Unknown          any              ShowLoading
//	Unauthenticated  includes admin   RedirectToAdminLogin
//	Unauthenticated  otherwise        RedirectToLogin
//	Authenticated    empty            Allow
//	Authenticated    role in set      Allow
//	Authenticated    role not in set  RedirectHome
//
// [Table] holds the route patterns of a client and [BookingRoutes] the booking client's.
//
// # What this package must NOT do
//
//   - Mutate session state. The gate only reads.
//   - Redirect to the forbidden page.
package gate
