package apierror

import (
	"net/http"
	"strconv"
)

// Error is a classified failure. HTTPStatus is zero when no HTTP response existed.
type Error struct {
	Kind         Kind
	HTTPStatus   int
	ProviderCode string
	Message      string

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.HTTPStatus > 0 {
		return e.Kind.String() + " (" + strconv.Itoa(e.HTTPStatus) + "): " + e.Message
	}
	return e.Kind.String() + ": " + e.Message
}

// Unwrap returns the raw failure that was classified.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindNetwork}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// ResponseError is a non-successful HTTP response from the backend.
type ResponseError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *ResponseError) Error() string {
	if e == nil {
		return ""
	}
	return "backend responded " + strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
}

// BlockedError is an explicit lockout signal observed outside an HTTP status, for
// example a block-status poll reporting the identifier as blocked.
type BlockedError struct {
	Identifier       string
	RemainingMinutes int
	Message          string
}

func (e *BlockedError) Error() string {
	if e == nil {
		return ""
	}
	return "identifier blocked for " + strconv.Itoa(e.RemainingMinutes) + " more minute(s)"
}
