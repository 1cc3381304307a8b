// Package apiclient is the HTTP implementation of the resolver's server collaborators.
//
// A [Client] validates a stored token, fetches the current user on the fallback path and
// exchanges an email and password for a token. Bearer authorisation goes through an
// oauth2 static token source and every request carries a fresh X-Request-ID.
//
// Failures are returned as [goSession.ValidationError] values: transport errors, 429 and
// 5xx map to network; 401 maps to expired when the server says so and invalid otherwise;
// other 4xx map to invalid; undecodable bodies map to malformed.
//
// # What this package must NOT do
//
//   - Retry or back off. The resolver decides when to call again.
//   - Touch credential storage.
package apiclient
