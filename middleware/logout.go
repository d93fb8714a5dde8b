package middleware

import (
	"encoding/json"
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/hint"
)

type logoutResponse struct {
	RemoteConfirmed bool   `json:"remoteConfirmed"`
	Message         string `json:"message"`
	Redirect        string `json:"redirect"`
}

// LogoutAllHandler ends every session of the visitor whose cookies the request
// carries. The hint cookie is expired even when the backend cannot confirm or the
// engine is closed; the JSON body reports which case applied.
func LogoutAllHandler(engine *goGuard.Engine) http.Handler {
	cookieName := hint.DefaultCookieName
	if engine != nil {
		cookieName = engine.Config().Session.HintCookieName
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if engine == nil {
			hint.Clear(w, cookieName)
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		res, err := engine.LogoutAllRequest(requestContext(r))
		if err != nil {
			hint.Clear(w, cookieName)
			w.Header().Set("Cache-Control", "no-store")
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		hint.Clear(w, cookieName)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(logoutResponse{
			RemoteConfirmed: res.RemoteConfirmed,
			Message:         res.Notification,
			Redirect:        res.RedirectTarget,
		})
	})
}
