// Package hint reads and clears the non-authoritative liveness flag a backend leaves
// next to its HttpOnly session cookie.
//
// A hint only says "a session probably exists". It is never trusted for admin access
// and its signature is never checked: the value is either a plain flag ("true") or an
// unverified JWT whose exp and sub claims narrow the hint.
package hint
