package goGuard

import (
	"context"
	"strconv"
)

const (
	auditEventGuardDenied        = "guard_denied"
	auditEventVerificationFailed = "verification_failed"
	auditEventStaleResult        = "stale_result_discarded"
	auditEventExternalLogout     = "external_logout"
	auditEventLogoutAll          = "logout_all"
	auditEventRelayRedirect      = "relay_redirect"
	auditEventRelayFailure       = "relay_failure"
	auditEventBlockStatusBlocked = "block_status_blocked"
)

// AuditEventTypes lists every event type the engine emits.
func AuditEventTypes() []string {
	return []string{
		auditEventGuardDenied,
		auditEventVerificationFailed,
		auditEventStaleResult,
		auditEventExternalLogout,
		auditEventLogoutAll,
		auditEventRelayRedirect,
		auditEventRelayFailure,
		auditEventBlockStatusBlocked,
	}
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.RequestID == "" {
		event.RequestID = requestIDFromContext(ctx)
	}
	if event.UserID == "" && !isRequestScoped(ctx) {
		if u := e.store.Read().User; u != nil {
			event.UserID = u.ID
		}
	}
	e.audit.Emit(ctx, event)
}

func (e *Engine) emitGuardDenied(ctx context.Context, route, reason string, admin bool, userID string) {
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventGuardDenied,
		UserID:    userID,
		Route:     route,
		Error:     reason,
		Metadata:  map[string]string{"admin": strconv.FormatBool(admin)},
	})
}
