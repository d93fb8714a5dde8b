package internaldefs

import (
	goGuard "github.com/MrEthical07/goGuard"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goGuard.MetricGuardAllowed, Name: "goguard_guard_allowed_total", Help: "Guard activations settled ALLOWED."},
	{ID: goGuard.MetricGuardDenied, Name: "goguard_guard_denied_total", Help: "Guard activations settled DENIED."},
	{ID: goGuard.MetricGuardPending, Name: "goguard_guard_pending_total", Help: "Guard activations that waited on a verification."},
	{ID: goGuard.MetricAdminDenied, Name: "goguard_admin_denied_total", Help: "Admin activations denied for role or allow-list."},
	{ID: goGuard.MetricVerifySuccess, Name: "goguard_verify_success_total", Help: "Committed profile verifications."},
	{ID: goGuard.MetricVerifyFailure, Name: "goguard_verify_failure_total", Help: "Failed profile verifications."},
	{ID: goGuard.MetricVerifyTimeout, Name: "goguard_verify_timeout_total", Help: "Guard verifications that exceeded the ceiling."},
	{ID: goGuard.MetricStaleResultDiscarded, Name: "goguard_stale_result_discarded_total", Help: "Verification results discarded for a newer operation."},
	{ID: goGuard.MetricRelayPassthrough, Name: "goguard_relay_passthrough_total", Help: "OAuth callbacks redirected to the backend's Location."},
	{ID: goGuard.MetricRelayDefault, Name: "goguard_relay_default_total", Help: "OAuth callbacks redirected to the default view."},
	{ID: goGuard.MetricRelayFailure, Name: "goguard_relay_failure_total", Help: "OAuth callbacks redirected to sign-in with an error."},
	{ID: goGuard.MetricLivenessTick, Name: "goguard_liveness_tick_total", Help: "Liveness ticks that issued a fetch."},
	{ID: goGuard.MetricLivenessSkipped, Name: "goguard_liveness_skipped_total", Help: "Liveness firings skipped while a tick was outstanding."},
	{ID: goGuard.MetricLivenessFetchFailed, Name: "goguard_liveness_fetch_failed_total", Help: "Liveness fetches that failed without logging out."},
	{ID: goGuard.MetricExternalLogout, Name: "goguard_external_logout_total", Help: "Sessions cleared because no device session remained."},
	{ID: goGuard.MetricBlockStatusTick, Name: "goguard_block_status_tick_total", Help: "Block-status fetches."},
	{ID: goGuard.MetricBlockStatusBlocked, Name: "goguard_block_status_blocked_total", Help: "Transitions into the blocked state."},
	{ID: goGuard.MetricBlockStatusFailure, Name: "goguard_block_status_failure_total", Help: "Failed block-status fetches."},
	{ID: goGuard.MetricLogoutAll, Name: "goguard_logout_all_total", Help: "Logout-all operations."},
	{ID: goGuard.MetricLogoutAllUnconfirmed, Name: "goguard_logout_all_unconfirmed_total", Help: "Logout-all operations the backend did not confirm."},
	{ID: goGuard.MetricCacheFailure, Name: "goguard_cache_failure_total", Help: "Failed profile and liveness cache writes and purges."},
}

// Engine-level series that do not come from a MetricID.
const (
	AuditDroppedName = "goguard_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped under dispatcher backpressure."

	SessionAuthenticatedName = "goguard_session_authenticated"
	SessionAuthenticatedHelp = "1 while the engine's own session is authenticated."

	SessionVerifiedName = "goguard_session_server_verified"
	SessionVerifiedHelp = "1 while the engine's own session comes from a server verification."
)

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goGuard.MetricVerifyLatency, Name: "goguard_verify_latency_seconds", Help: "Profile verification latency histogram."},
}

// HistogramBounds are the Prometheus le labels of the fixed bucket layout.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are instrument-name-safe renderings of HistogramBounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into the fixed layout, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
