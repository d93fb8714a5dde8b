package flows

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/goGuard/apierror"
	"github.com/MrEthical07/goGuard/internal/backend"
)

// RelayOutcome classifies how a callback relay settled.
type RelayOutcome int

const (
	// RelayPassthrough reissues the backend redirect unchanged.
	RelayPassthrough RelayOutcome = iota
	// RelayDefault redirects to the main authenticated view.
	RelayDefault
	// RelayBackendError redirects to sign-in with the backend's message.
	RelayBackendError
	// RelayTransportError redirects to sign-in with the classified transport message.
	RelayTransportError
)

func (o RelayOutcome) String() string {
	switch o {
	case RelayPassthrough:
		return "passthrough"
	case RelayDefault:
		return "default"
	case RelayBackendError:
		return "backend_error"
	default:
		return "transport_error"
	}
}

// RelayResult is exactly one redirect plus the cookies to relay with it.
type RelayResult struct {
	Outcome    RelayOutcome
	StatusCode int
	// Location is written verbatim; for passthrough it is the backend's raw bytes.
	Location   string
	SetCookies []string
	Message    string
	Err        *apierror.Error
}

// RelayDeps captures callback relay dependencies.
type RelayDeps struct {
	Callback            func(ctx context.Context, rawQuery, cookieHeader string) (*backend.CallbackResponse, error)
	SignInPath          string
	DefaultRedirect     string
	ErrorParam          string
	DefaultErrorMessage string
}

// RunRelay forwards the inbound query and cookies to the backend callback once and
// turns whatever comes back into a single redirect. It never retries.
func RunRelay(ctx context.Context, rawQuery, cookieHeader string, deps RelayDeps) RelayResult {
	resp, err := deps.Callback(ctx, rawQuery, cookieHeader)
	if err != nil {
		classified := apierror.Classify(err)
		return RelayResult{
			Outcome:    RelayTransportError,
			StatusCode: http.StatusFound,
			Location:   SignInWithError(deps.SignInPath, deps.ErrorParam, classified.Message),
			Message:    classified.Message,
			Err:        classified,
		}
	}

	cookies := resp.SetCookies()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _, ok := apierror.ParseBody(resp.Body)
		if !ok || msg == "" {
			msg = deps.DefaultErrorMessage
		}
		return RelayResult{
			Outcome:    RelayBackendError,
			StatusCode: http.StatusFound,
			Location:   SignInWithError(deps.SignInPath, deps.ErrorParam, msg),
			SetCookies: cookies,
			Message:    msg,
			Err:        apierror.FromResponse(resp.StatusCode, resp.Body),
		}
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		if loc := resp.Location(); loc != "" {
			return RelayResult{
				Outcome:    RelayPassthrough,
				StatusCode: resp.StatusCode,
				Location:   loc,
				SetCookies: cookies,
			}
		}
	}

	return RelayResult{
		Outcome:    RelayDefault,
		StatusCode: http.StatusFound,
		Location:   deps.DefaultRedirect,
		SetCookies: cookies,
	}
}

// SignInWithError appends param=message to the sign-in path.
func SignInWithError(signIn, param, message string) string {
	if param == "" {
		param = "error"
	}
	sep := "?"
	if strings.Contains(signIn, "?") {
		sep = "&"
	}
	return signIn + sep + url.QueryEscape(param) + "=" + url.QueryEscape(message)
}
