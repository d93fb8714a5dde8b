package goGuard

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/goGuard/apierror"
	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/stores"
	"github.com/MrEthical07/goGuard/session"
)

// Session is the single authentication state cell's value.
type Session = session.Session

// UserProfile is the authoritative profile returned by the backend.
type UserProfile = session.UserProfile

// Role is USER or ADMIN.
type Role = session.Role

const (
	RoleUser  = session.RoleUser
	RoleAdmin = session.RoleAdmin
)

// BlockStatus mirrors the backend's lockout counters for one identifier.
type BlockStatus = session.BlockStatus

// ProfileCache stores client-local copies of the verified profile and the last
// liveness observation. Implementations must be safe for concurrent use.
type ProfileCache = stores.ProfileCache

// GuardOutcome is PENDING, ALLOWED or DENIED.
type GuardOutcome = flows.Outcome

const (
	GuardPending = flows.OutcomePending
	GuardAllow   = flows.OutcomeAllow
	GuardDeny    = flows.OutcomeDeny
)

// Reasons reported on [GuardDecision].
const (
	ReasonUnauthenticated      = flows.ReasonUnauthenticated
	ReasonSession              = flows.ReasonSession
	ReasonHint                 = flows.ReasonHint
	ReasonVerified             = flows.ReasonVerified
	ReasonAdmin                = flows.ReasonAdmin
	ReasonNotAdmin             = flows.ReasonNotAdmin
	ReasonVerificationFailed   = flows.ReasonVerificationFailed
	ReasonVerificationTimeout  = flows.ReasonVerificationTimeout
	ReasonStaleResult          = flows.ReasonStaleResult
	ReasonCancelled            = flows.ReasonCancelled
	ReasonServerVerifiedCached = flows.ReasonServerVerifiedCached
)

// GuardDecision is the derived, never persisted, outcome of one protected-view
// activation.
type GuardDecision struct {
	Outcome        GuardOutcome
	RedirectTarget string
	Reason         string
	Admin          bool
	Fetched        bool
	User           *UserProfile
	Err            *apierror.Error
}

// Allowed reports whether the decision admits the visitor.
func (d GuardDecision) Allowed() bool { return d.Outcome == GuardAllow }

// Pending reports whether a verification is still outstanding.
func (d GuardDecision) Pending() bool { return d.Outcome == GuardPending }

func decisionFromFlow(d flows.Decision) GuardDecision {
	return GuardDecision{
		Outcome:        d.Outcome,
		RedirectTarget: d.Redirect,
		Reason:         d.Reason,
		Admin:          d.Admin,
		Fetched:        d.Fetched,
		User:           d.User,
		Err:            d.Err,
	}
}

// RelayResult is the single redirect produced for one OAuth callback.
type RelayResult = flows.RelayResult

// RelayOutcome classifies how a [RelayResult] was produced.
type RelayOutcome = flows.RelayOutcome

const (
	RelayPassthrough    = flows.RelayPassthrough
	RelayDefault        = flows.RelayDefault
	RelayBackendError   = flows.RelayBackendError
	RelayTransportError = flows.RelayTransportError
)

// LivenessResult is the outcome of one liveness tick.
type LivenessResult = flows.LivenessResult

// LivenessOutcome classifies a [LivenessResult].
type LivenessOutcome = flows.LivenessOutcome

const (
	LivenessIdle           = flows.LivenessIdle
	LivenessAlive          = flows.LivenessAlive
	LivenessFetchFailed    = flows.LivenessFetchFailed
	LivenessExternalLogout = flows.LivenessExternalLogout
	LivenessDiscarded      = flows.LivenessDiscarded
)

// LogoutResult distinguishes "other devices confirmed logged out" from "local state
// cleared, remote outcome unknown".
type LogoutResult = flows.LogoutResult

const (
	LogoutConfirmedMessage   = flows.LogoutConfirmedMessage
	LogoutUnconfirmedMessage = flows.LogoutUnconfirmedMessage
)

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes one JSON event per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// LoggerSink is an [AuditSink] that logs events through slog.
type LoggerSink = internalaudit.LoggerSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLoggerSink creates a [LoggerSink] logging at level.
func NewLoggerSink(logger *slog.Logger, level slog.Level) *LoggerSink {
	return internalaudit.NewLoggerSink(logger, level)
}
