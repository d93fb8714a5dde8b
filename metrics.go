package goGuard

import (
	internalmetrics "github.com/MrEthical07/goGuard/internal/metrics"
)

// MetricID identifies a specific counter or histogram in the engine's
// metrics snapshot.
type MetricID = internalmetrics.MetricID

const (
	// MetricGuardAllowed counts activations settled ALLOWED.
	MetricGuardAllowed = internalmetrics.MetricGuardAllowed
	// MetricGuardDenied counts activations settled DENIED.
	MetricGuardDenied = internalmetrics.MetricGuardDenied
	// MetricGuardPending counts activations that had to wait on a verification.
	MetricGuardPending = internalmetrics.MetricGuardPending
	// MetricAdminDenied counts admin activations denied after a successful fetch.
	MetricAdminDenied = internalmetrics.MetricAdminDenied
	// MetricVerifySuccess counts committed profile verifications.
	MetricVerifySuccess = internalmetrics.MetricVerifySuccess
	// MetricVerifyFailure counts failed profile fetches.
	MetricVerifyFailure = internalmetrics.MetricVerifyFailure
	// MetricVerifyTimeout counts guard verifications that hit Guard.VerifyTimeout.
	MetricVerifyTimeout = internalmetrics.MetricVerifyTimeout
	// MetricStaleResultDiscarded counts verification results dropped by a newer write.
	MetricStaleResultDiscarded = internalmetrics.MetricStaleResultDiscarded
	// MetricRelayPassthrough counts callback redirects reissued verbatim.
	MetricRelayPassthrough = internalmetrics.MetricRelayPassthrough
	// MetricRelayDefault counts callbacks redirected to the default view.
	MetricRelayDefault = internalmetrics.MetricRelayDefault
	// MetricRelayFailure counts callbacks redirected to sign-in with an error.
	MetricRelayFailure = internalmetrics.MetricRelayFailure
	// MetricLivenessTick counts liveness ticks that issued a fetch.
	MetricLivenessTick = internalmetrics.MetricLivenessTick
	// MetricLivenessSkipped counts firings dropped because a tick was outstanding.
	MetricLivenessSkipped = internalmetrics.MetricLivenessSkipped
	// MetricLivenessFetchFailed counts liveness fetches that failed silently.
	MetricLivenessFetchFailed = internalmetrics.MetricLivenessFetchFailed
	// MetricExternalLogout counts sessions cleared because no device session remained.
	MetricExternalLogout = internalmetrics.MetricExternalLogout
	// MetricBlockStatusTick counts block-status fetches.
	MetricBlockStatusTick = internalmetrics.MetricBlockStatusTick
	// MetricBlockStatusBlocked counts transitions into the blocked state.
	MetricBlockStatusBlocked = internalmetrics.MetricBlockStatusBlocked
	// MetricBlockStatusFailure counts failed block-status fetches.
	MetricBlockStatusFailure = internalmetrics.MetricBlockStatusFailure
	// MetricLogoutAll counts logout-all operations.
	MetricLogoutAll = internalmetrics.MetricLogoutAll
	// MetricLogoutAllUnconfirmed counts logouts whose remote call failed.
	MetricLogoutAllUnconfirmed = internalmetrics.MetricLogoutAllUnconfirmed
	// MetricCacheFailure counts failed profile cache writes and purges.
	MetricCacheFailure = internalmetrics.MetricCacheFailure
	// MetricVerifyLatency is the verification latency histogram.
	MetricVerifyLatency = internalmetrics.MetricVerifyLatency
)

// Metrics is the engine's lock-free counter set.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics builds a counter set from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
