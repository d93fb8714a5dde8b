package middleware

import (
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
)

func RequireAdmin(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return Guard(engine, ModeAdmin)
}
