// Package jwt reads the registered claims of a stored session token without verifying it.
//
// The resolver uses [Expired] to skip the current-user fallback for a token that has
// certainly expired. Signature verification is the server's job and never happens here.
package jwt
