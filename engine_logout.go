package goGuard

import (
	"context"
	"strconv"

	"github.com/MrEthical07/goGuard/session"
)

// LogoutAll asks the backend to end every session of the current user, then clears
// the local session and purges cached copies whatever the remote outcome.
// RemoteConfirmed on the result tells the two cases apart. A second call on an
// already-cleared session is harmless. On a closed engine the local state is still
// cleared before [ErrEngineNotReady] is returned.
func (e *Engine) LogoutAll(ctx context.Context) (LogoutResult, error) {
	if err := e.ready(); err != nil {
		if e != nil && e.store != nil {
			e.store.Clear()
			_ = e.purgeCache(context.WithoutCancel(ctx))
		}
		return LogoutResult{}, err
	}

	var userID string
	if u := e.store.Read().User; u != nil {
		userID = u.ID
	}
	return e.recordLogout(ctx, userID, e.flow.LogoutAll(ctx)), nil
}

// LogoutAllRequest ends every session of the visitor whose cookies ctx carries.
// Unlike [Engine.LogoutAll] it leaves the engine's own store and profile cache alone.
func (e *Engine) LogoutAllRequest(ctx context.Context) (LogoutResult, error) {
	if err := e.ready(); err != nil {
		return LogoutResult{}, err
	}
	ctx = withRequestScope(ctx)
	return e.recordLogout(ctx, "", e.flow.LogoutAllInto(ctx, session.NewStore())), nil
}

func (e *Engine) recordLogout(ctx context.Context, userID string, res LogoutResult) LogoutResult {
	e.metricInc(MetricLogoutAll)

	event := AuditEvent{
		EventType: auditEventLogoutAll,
		UserID:    userID,
		Success:   res.RemoteConfirmed,
		Metadata:  map[string]string{"remote_confirmed": strconv.FormatBool(res.RemoteConfirmed)},
	}
	if !res.RemoteConfirmed {
		e.metricInc(MetricLogoutAllUnconfirmed)
		if res.Err != nil {
			event.Error = res.Err.Kind.String()
		}
		e.logger.Warn("logout-all not confirmed by backend; local session cleared", "user_id", userID)
	} else {
		e.logger.Info("logged out from all devices", "user_id", userID)
	}
	e.emitAudit(ctx, event)
	return res
}
