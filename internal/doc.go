// Package internal holds helpers that are private to goSession.
//
// # Sub-packages
//
//   - logging: console zerolog logger for the commands and examples
//   - notify: toast sinks and the async notification dispatcher
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API except through aliases
//     declared in the root package.
//   - Be imported by any package outside the goSession module.
package internal
