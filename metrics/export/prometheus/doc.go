// Package prometheus serves goGuard counters over the Prometheus text format.
//
// The serve command mounts [PrometheusExporter.Handler] at /metrics. Each scrape
// renders the goguard_*_total counters from internaldefs, the
// goguard_verify_latency_seconds histogram and goguard_audit_dropped_total. When the
// source is a [goGuard.Engine] two gauges describe the engine's own session:
// goguard_session_authenticated and goguard_session_server_verified. Request-scoped
// guard decisions never move them.
//
// An engine built with metrics disabled renders an empty body.
//
// # What this package must NOT do
//
//   - Register collectors in a global Prometheus registry.
//   - Mutate engine state.
package prometheus
