// Package otel observes goGuard counters through an OpenTelemetry meter.
//
// [NewOTelExporter] creates one observable counter per goguard_*_total series and a
// gauge per verify latency bucket, then reads the engine snapshot in a single
// registered callback. The engine's own session is reported through the
// goguard_session_authenticated and goguard_session_server_verified gauges.
// Call [OTelExporter.Close] to drop the callback before the engine goes away.
//
// # What this package must NOT do
//
//   - Own the MeterProvider.
//   - Mutate engine state.
package otel
