package middleware

import (
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
)

// RequireSession guards a route for any signed-in visitor. A valid liveness hint
// admits without a backend call.
func RequireSession(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return Guard(engine, ModeSession)
}
