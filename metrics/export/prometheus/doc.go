// Package prometheus exposes resolver metrics through the Prometheus client library.
//
// [NewPrometheusExporter] accepts a [goSession.Resolver] and returns a collector that
// reads [goSession.Resolver.MetricsSnapshot] on every scrape. Counter names are
// prefixed gosession_*_total; the single histogram is gosession_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. Callers register the
//     collector or mount [PrometheusExporter.Handler].
//   - Mutate resolver state.
package prometheus
