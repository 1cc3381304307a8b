// Package credentials provides [goSession.CredentialStore] backends.
//
// Every backend persists the same four keys (session_id, user_id, user_email,
// user_name) and treats the token/user-id pair as one value: a store holding only one
// half reads as absent.
//
//   - [Memory] keeps the keys in process memory.
//   - [Redis] keeps them under a prefix in Redis, for kiosk and server-rendered clients
//     sharing one browser profile across processes.
//   - [SealedFile] keeps them in one age-encrypted file for CLI tools.
//
// # What this package must NOT do
//
//   - Retry. A failed read is reported as absent; a failed write or clear returns an error.
//   - Call the booking API.
package credentials
