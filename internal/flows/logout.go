package flows

import (
	"context"
	"strings"

	"github.com/MrEthical07/goGuard/apierror"
	"github.com/MrEthical07/goGuard/internal/backend"
)

// Notification texts for the two logout outcomes.
const (
	LogoutConfirmedMessage   = "You have been logged out from all devices."
	LogoutUnconfirmedMessage = "Signed out locally. We could not confirm that other devices were logged out."
)

// LogoutResult distinguishes a confirmed remote logout from a local-only one.
type LogoutResult struct {
	RemoteConfirmed bool
	Notification    string
	RedirectTarget  string
	BackendMessage  string
	Err             *apierror.Error
	PurgeErr        error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Store      StateStore
	LogoutAll  func(context.Context) (backend.LogoutAllResponse, error)
	Purge      func(context.Context) error
	SignInPath string
}

// RunLogoutAll issues the remote logout and then clears local state regardless of the
// remote outcome.
func RunLogoutAll(ctx context.Context, deps LogoutDeps) LogoutResult {
	resp, err := deps.LogoutAll(ctx)

	deps.Store.Clear()
	purgeErr := purge(context.WithoutCancel(ctx), deps.Purge)

	if err != nil {
		return LogoutResult{
			Notification:   LogoutUnconfirmedMessage,
			RedirectTarget: deps.SignInPath,
			Err:            apierror.Classify(err),
			PurgeErr:       purgeErr,
		}
	}

	msg := strings.TrimSpace(resp.Message)
	notification := msg
	if notification == "" {
		notification = LogoutConfirmedMessage
	}
	return LogoutResult{
		RemoteConfirmed: true,
		Notification:    notification,
		RedirectTarget:  deps.SignInPath,
		BackendMessage:  msg,
		PurgeErr:        purgeErr,
	}
}
