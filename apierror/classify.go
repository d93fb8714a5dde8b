package apierror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
)

// Provider codes the classifier understands.
const (
	CodeUserAlreadyLoggedIn = "USER_ALREADY_LOGGED_IN"
	CodeAccountBlocked      = "ACCOUNT_BLOCKED"
	CodeAccountLocked       = "ACCOUNT_LOCKED"
	CodeTooManyAttempts     = "TOO_MANY_ATTEMPTS"
)

// Classify maps any failure to an [Error]. It returns nil for a nil input and returns
// an already classified *Error unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) && classified != nil {
		return classified
	}

	var blocked *BlockedError
	if errors.As(err, &blocked) && blocked != nil {
		msg := strings.TrimSpace(blocked.Message)
		if msg == "" {
			msg = MessageRateLimited
		}
		return &Error{Kind: KindRateLimited, Message: msg, cause: err}
	}

	var resp *ResponseError
	if errors.As(err, &resp) && resp != nil {
		return classifyResponse(resp, err)
	}

	// A caller abandoning the request is not a network fault.
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUnknown, Message: MessageUnknown, cause: err}
	}

	if isTransport(err) {
		return &Error{Kind: KindNetwork, Message: MessageNetwork, cause: err}
	}

	return &Error{Kind: KindUnknown, Message: MessageUnknown, cause: err}
}

// FromResponse classifies a status code and body directly, for callers holding an
// *http.Response rather than an error.
func FromResponse(statusCode int, body []byte) *Error {
	resp := &ResponseError{StatusCode: statusCode, Body: body}
	return classifyResponse(resp, resp)
}

func classifyResponse(resp *ResponseError, cause error) *Error {
	message, code, parsed := ParseBody(resp.Body)
	status := resp.StatusCode

	out := &Error{HTTPStatus: status, ProviderCode: code, cause: cause}

	switch {
	case status == http.StatusConflict && code == CodeUserAlreadyLoggedIn:
		out.Kind = KindConflictAlreadyLoggedIn
	case status == http.StatusUnauthorized:
		out.Kind = KindUnauthorized
	case status == http.StatusForbidden:
		out.Kind = KindForbidden
	case status == http.StatusTooManyRequests || isBlockCode(code):
		out.Kind = KindRateLimited
	case status >= http.StatusInternalServerError:
		out.Kind = KindServer
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		out.Kind = KindValidation
	default:
		out.Kind = KindUnknown
	}

	switch out.Kind {
	case KindServer, KindUnknown:
		// Bodies of these are never shown.
		out.Message = defaultMessage(out.Kind)
	default:
		if parsed && message != "" {
			out.Message = message
		} else {
			out.Message = defaultMessage(out.Kind)
		}
	}

	return out
}

func isBlockCode(code string) bool {
	switch code {
	case CodeAccountBlocked, CodeAccountLocked, CodeTooManyAttempts:
		return true
	}
	return false
}

type bodyEnvelope struct {
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Error   json.RawMessage `json:"error"`
}

type bodyError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code"`
}

// ParseBody extracts a human message and provider code from the backend error
// envelope `{success:false,error:{message,statusCode,code}}`. It also accepts
// `{error:"..."}` and top-level `{message,code}`. ok is false when the body is not a
// JSON object.
func ParseBody(body []byte) (message, code string, ok bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return "", "", false
	}

	var env bodyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", "", false
	}

	message = strings.TrimSpace(env.Message)
	code = strings.TrimSpace(env.Code)

	raw := bytes.TrimSpace(env.Error)
	if len(raw) > 0 {
		switch raw[0] {
		case '{':
			var be bodyError
			if err := json.Unmarshal(raw, &be); err == nil {
				if m := strings.TrimSpace(be.Message); m != "" {
					message = m
				}
				if c := strings.TrimSpace(be.Code); c != "" {
					code = c
				}
			}
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && message == "" {
				message = strings.TrimSpace(s)
			}
		}
	}

	return message, code, true
}

func isTransport(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF)
}
