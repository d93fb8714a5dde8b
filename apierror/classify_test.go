package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyNil(t *testing.T) {
	require.Nil(t, Classify(nil))
}

func TestClassifyConflictPreservesMessage(t *testing.T) {
	body := []byte(`{"success":false,"error":{"message":"Another user is already logged in...","statusCode":409,"code":"USER_ALREADY_LOGGED_IN"}}`)

	got := Classify(&ResponseError{StatusCode: http.StatusConflict, Body: body})

	require.NotNil(t, got)
	assert.Equal(t, KindConflictAlreadyLoggedIn, got.Kind)
	assert.Equal(t, "Another user is already logged in...", got.Message)
	assert.Equal(t, CodeUserAlreadyLoggedIn, got.ProviderCode)
	assert.Equal(t, http.StatusConflict, got.HTTPStatus)
}

func TestClassifyStatusTable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   Kind
		msg    string
	}{
		{"conflict without provider code", 409, `{"error":{"message":"dup","code":"OTHER"}}`, KindUnknown, MessageUnknown},
		{"unauthorized", 401, `{"error":{"message":"token expired"}}`, KindUnauthorized, "token expired"},
		{"unauthorized no body", 401, ``, KindUnauthorized, MessageUnauthorized},
		{"forbidden", 403, `{"message":"nope"}`, KindForbidden, "nope"},
		{"too many requests", 429, `{"error":"slow down"}`, KindRateLimited, "slow down"},
		{"blocked provider code", 400, `{"error":{"message":"blocked for 5 minutes","code":"ACCOUNT_BLOCKED"}}`, KindRateLimited, "blocked for 5 minutes"},
		{"server hides body", 500, `{"error":{"message":"panic: nil pointer at db.go:42"}}`, KindServer, MessageServer},
		{"bad gateway", 502, `<html>bad gateway</html>`, KindServer, MessageServer},
		{"validation", 400, `{"error":{"message":"email is required"}}`, KindValidation, "email is required"},
		{"unprocessable", 422, `not json`, KindValidation, MessageValidation},
		{"not found is unknown", 404, `{"error":{"message":"missing"}}`, KindUnknown, MessageUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(&ResponseError{StatusCode: tt.status, Body: []byte(tt.body)})
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.msg, got.Message)
			assert.Equal(t, tt.status, got.HTTPStatus)
		})
	}
}

func TestClassifyTransportFailures(t *testing.T) {
	cases := []error{
		&url.Error{Op: "Get", URL: "http://backend/api/auth/profile", Err: syscall.ECONNREFUSED},
		fmt.Errorf("dial: %w", syscall.ECONNRESET),
		fmt.Errorf("profile: %w", context.DeadlineExceeded),
	}
	for _, err := range cases {
		got := Classify(err)
		require.NotNil(t, got)
		assert.Equal(t, KindNetwork, got.Kind, "err=%v", err)
		assert.Equal(t, MessageNetwork, got.Message)
		assert.Zero(t, got.HTTPStatus)
		assert.ErrorIs(t, got, err)
	}
}

func TestClassifyCanceledIsUnknown(t *testing.T) {
	err := &url.Error{Op: "Get", URL: "http://backend/api/auth/profile", Err: context.Canceled}
	got := Classify(err)
	require.NotNil(t, got)
	assert.Equal(t, KindUnknown, got.Kind)
	assert.ErrorIs(t, got, context.Canceled)
}

func TestClassifyUnknownNeverLeaksErrorText(t *testing.T) {
	got := Classify(errors.New("runtime error: index out of range [3] with length 2"))
	require.NotNil(t, got)
	assert.Equal(t, KindUnknown, got.Kind)
	assert.Equal(t, MessageUnknown, got.Message)
}

func TestClassifyBlockedError(t *testing.T) {
	got := Classify(fmt.Errorf("monitor: %w", &BlockedError{Identifier: "a@b.c", RemainingMinutes: 3}))
	require.NotNil(t, got)
	assert.Equal(t, KindRateLimited, got.Kind)
	assert.Equal(t, MessageRateLimited, got.Message)
}

func TestClassifyIsIdempotent(t *testing.T) {
	first := Classify(&ResponseError{StatusCode: 403})
	again := Classify(fmt.Errorf("wrapped: %w", first))
	assert.Same(t, first, again)
	assert.True(t, errors.Is(again, &Error{Kind: KindForbidden}))
	assert.False(t, errors.Is(again, &Error{Kind: KindServer}))
}

func TestDisposition(t *testing.T) {
	assert.Equal(t, DispositionRedirect, KindUnauthorized.Disposition())
	assert.Equal(t, DispositionRedirect, KindForbidden.Disposition())
	for _, k := range []Kind{KindConflictAlreadyLoggedIn, KindRateLimited, KindServer, KindNetwork, KindUnknown, KindValidation} {
		assert.Equal(t, DispositionNotify, k.Disposition(), k.String())
	}
}

func TestParseBodyShapes(t *testing.T) {
	msg, code, ok := ParseBody([]byte(`{"success":false,"error":{"message":"m","statusCode":400,"code":"C"}}`))
	assert.True(t, ok)
	assert.Equal(t, "m", msg)
	assert.Equal(t, "C", code)

	msg, code, ok = ParseBody([]byte(`{"message":"top","code":"T"}`))
	assert.True(t, ok)
	assert.Equal(t, "top", msg)
	assert.Equal(t, "T", code)

	_, _, ok = ParseBody([]byte(`[1,2]`))
	assert.False(t, ok)

	_, _, ok = ParseBody([]byte(`{"error":`))
	assert.False(t, ok)
}
