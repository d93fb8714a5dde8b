package goGuard

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/goGuard/internal/flows"
)

// Relay forwards one OAuth callback to the backend and returns the single redirect
// to issue. It never retries and never touches the session store.
func (e *Engine) Relay(ctx context.Context, rawQuery, cookieHeader string) (RelayResult, error) {
	if err := e.ready(); err != nil {
		return RelayResult{}, err
	}

	res := e.flow.Relay(ctx, rawQuery, cookieHeader)
	meta := map[string]string{
		"outcome": res.Outcome.String(),
		"status":  strconv.Itoa(res.StatusCode),
	}

	switch res.Outcome {
	case flows.RelayPassthrough:
		e.metricInc(MetricRelayPassthrough)
	case flows.RelayDefault:
		e.metricInc(MetricRelayDefault)
	default:
		e.metricInc(MetricRelayFailure)
		if res.Err != nil {
			meta["kind"] = res.Err.Kind.String()
		}
		e.emitAudit(ctx, AuditEvent{EventType: auditEventRelayFailure, Error: res.Message, Metadata: meta})
		e.logger.Info("oauth callback failed", "outcome", res.Outcome.String(), "message", res.Message)
		return res, nil
	}

	e.emitAudit(ctx, AuditEvent{EventType: auditEventRelayRedirect, Success: true, Metadata: meta})
	return res, nil
}

// CallbackHandler serves the same-origin OAuth redirect target. Each request
// yields exactly one redirect with no body; backend Set-Cookie headers are relayed.
func (e *Engine) CallbackHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		ctx := r.Context()
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx = WithRequestID(ctx, id)
		}

		res, err := e.Relay(ctx, r.URL.RawQuery, strings.Join(r.Header.Values("Cookie"), "; "))
		if err != nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		WriteRelay(w, res)
	})
}

// WriteRelay writes res as a bodiless redirect. Location is set verbatim.
func WriteRelay(w http.ResponseWriter, res RelayResult) {
	h := w.Header()
	for _, c := range res.SetCookies {
		h.Add("Set-Cookie", c)
	}
	h.Set("Cache-Control", "no-store")
	h["Location"] = []string{res.Location}
	w.WriteHeader(res.StatusCode)
}
