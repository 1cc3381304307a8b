// Package notify delivers user-facing toast notifications from the resolver to a
// display sink.
//
// # Delivery
//
// The default notifier calls the sink inline so that a toast is emitted in the same
// call that changed the session. With Async enabled, a buffered [Dispatcher] forwards
// messages from a single goroutine and counts drops when DropIfFull is set.
//
// # What this package must NOT do
//
//   - Import goSession or any sibling package.
//   - Render toasts itself; sinks are the display boundary.
package notify
