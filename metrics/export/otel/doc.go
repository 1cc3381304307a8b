// Package otel binds resolver counters and histograms to OpenTelemetry instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter for each resolver counter and
// an Int64ObservableGauge per histogram bucket. A single callback reads
// [goSession.Resolver.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate resolver state.
package otel
