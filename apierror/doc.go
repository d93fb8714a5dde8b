// Package apierror normalizes heterogeneous backend and transport failures into a
// closed set of error kinds.
//
// # Classification
//
// [Classify] is total and pure: every input, including nil-wrapping chains, unknown
// error types, and unparseable response bodies, maps to exactly one [Kind] and a
// message that is safe to show to a user. Callers branch on [Kind] only; they never
// inspect raw response shapes.
//
// # Architecture boundaries
//
// This package is a leaf. The backend client produces [ResponseError] values and the
// flows consume [Error] values; neither is imported from here.
//
// # What this package must NOT do
//
//   - Perform I/O, logging, or notification dispatch.
//   - Surface raw Go error strings or 5xx bodies as user-visible messages.
package apierror
