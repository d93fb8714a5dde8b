package middleware

import (
	"context"
	"net/http"
	"strings"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/hint"
)

// Mode selects the access level a guarded route requires.
type Mode int

const (
	// ModeSession admits any authenticated visitor, on hint trust when allowed.
	ModeSession Mode = iota
	// ModeAdmin admits only a freshly verified, allow-listed ADMIN profile.
	ModeAdmin
)

type decisionContextKey struct{}

// DecisionFromContext returns the decision that admitted the current request.
func DecisionFromContext(ctx context.Context) (goGuard.GuardDecision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(goGuard.GuardDecision)
	return d, ok
}

// Guard evaluates every request on its own through [goGuard.Engine.EvaluateRequest],
// so one visitor's session never admits another. Denied visitors are redirected to
// the decision's sign-in target and their liveness hint cookie is expired.
func Guard(engine *goGuard.Engine, mode Mode) func(http.Handler) http.Handler {
	cookieName := hint.DefaultCookieName
	if engine != nil {
		cookieName = engine.Config().Session.HintCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			h := hint.FromRequest(r, cookieName)
			d, err := engine.EvaluateRequest(requestContext(r), goGuard.GuardRequest{
				RequireAdmin: mode == ModeAdmin,
				Hint:         h,
				Route:        r.URL.Path,
			})
			if err != nil {
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}

			if !d.Allowed() {
				if h.Present {
					hint.Clear(w, cookieName)
				}
				w.Header().Set("Cache-Control", "no-store")
				http.Redirect(w, r, d.RedirectTarget, http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), decisionContextKey{}, d)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestContext forwards the visitor's cookies and request id to backend calls.
func requestContext(r *http.Request) context.Context {
	ctx := r.Context()
	if cookies := strings.Join(r.Header.Values("Cookie"), "; "); cookies != "" {
		ctx = goGuard.WithForwardedCookies(ctx, cookies)
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		ctx = goGuard.WithRequestID(ctx, id)
	}
	return ctx
}
