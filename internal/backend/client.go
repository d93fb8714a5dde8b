package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/goGuard/apierror"
	"github.com/MrEthical07/goGuard/internal/rate"
	"github.com/MrEthical07/goGuard/session"
)

const (
	// MaxResponseBytes caps how much of any backend response is read.
	MaxResponseBytes = 1 << 20

	tracerName = "github.com/MrEthical07/goGuard/internal/backend"
)

var (
	ErrInvalidBaseURL     = errors.New("backend base url invalid")
	ErrResponseTooLarge   = errors.New("backend response too large")
	ErrMalformedResponse  = errors.New("backend response malformed")
	ErrMissingIdentifier  = errors.New("block status identifier required")
	errUnexpectedRedirect = errors.New("unexpected redirect")
)

// Paths are the endpoint paths relative to BaseURL.
type Paths struct {
	Profile       string
	SessionStatus string
	BlockStatus   string
	LogoutAll     string
	Callback      string
}

// DefaultPaths returns the standard endpoint layout.
func DefaultPaths() Paths {
	return Paths{
		Profile:       "/api/auth/profile",
		SessionStatus: "/api/auth/session-status",
		BlockStatus:   "/api/auth/block-status",
		LogoutAll:     "/api/auth/logout-all",
		Callback:      "/api/auth/google/callback",
	}
}

// Config configures a [Client].
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	Paths             Paths

	// Cookie is a static Cookie header used when the context carries none.
	Cookie string

	HTTPClient     *http.Client
	TracerProvider trace.TracerProvider
}

// Client performs single, non-retried calls against the backend.
type Client struct {
	base      *url.URL
	paths     Paths
	userAgent string
	cookie    string
	http      *http.Client
	limiter   *rate.Limiter
	tracer    trace.Tracer
}

// New validates cfg and builds a [Client].
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	paths := mergePaths(cfg.Paths, DefaultPaths())

	var hc http.Client
	if cfg.HTTPClient != nil {
		hc = *cfg.HTTPClient
	}
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Client{
		base:      base,
		paths:     paths,
		userAgent: cfg.UserAgent,
		cookie:    cfg.Cookie,
		http:      &hc,
		limiter:   rate.New(rate.Config{RequestsPerSecond: cfg.RequestsPerSecond, Burst: cfg.Burst}),
		tracer:    tp.Tracer(tracerName),
	}, nil
}

func mergePaths(p, def Paths) Paths {
	if p.Profile == "" {
		p.Profile = def.Profile
	}
	if p.SessionStatus == "" {
		p.SessionStatus = def.SessionStatus
	}
	if p.BlockStatus == "" {
		p.BlockStatus = def.BlockStatus
	}
	if p.LogoutAll == "" {
		p.LogoutAll = def.LogoutAll
	}
	if p.Callback == "" {
		p.Callback = def.Callback
	}
	return p
}

// BaseURL returns the normalized backend origin.
func (c *Client) BaseURL() string { return c.base.String() }

// Profile fetches the authoritative user profile for the forwarded session.
func (c *Client) Profile(ctx context.Context) (session.UserProfile, error) {
	resp, err := c.do(ctx, "profile", http.MethodGet, c.paths.Profile, "", true)
	if err != nil {
		return session.UserProfile{}, err
	}

	var env envelope[profilePayload]
	if err := decode(resp, &env); err != nil {
		return session.UserProfile{}, err
	}
	if env.Success != nil && !*env.Success {
		return session.UserProfile{}, &apierror.ResponseError{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}
	}
	if env.Data == nil || (env.Data.Email == "" && env.Data.ID == "") {
		return session.UserProfile{}, fmt.Errorf("%w: profile data missing", ErrMalformedResponse)
	}
	return env.Data.toProfile(), nil
}

// SessionStatus reports how many sessions the backend still considers active.
func (c *Client) SessionStatus(ctx context.Context) (SessionStatus, error) {
	resp, err := c.do(ctx, "session_status", http.MethodGet, c.paths.SessionStatus, "", true)
	if err != nil {
		return SessionStatus{}, err
	}

	var env envelope[SessionStatus]
	if err := decode(resp, &env); err != nil {
		return SessionStatus{}, err
	}
	if env.Data == nil {
		return SessionStatus{}, fmt.Errorf("%w: session status data missing", ErrMalformedResponse)
	}
	if env.Data.ActiveSessions < 0 {
		env.Data.ActiveSessions = 0
	}
	return *env.Data, nil
}

// BlockStatus fetches lockout counters for identifier. The payload may be bare or
// wrapped in a data envelope.
func (c *Client) BlockStatus(ctx context.Context, identifier string) (session.BlockStatus, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return session.BlockStatus{}, ErrMissingIdentifier
	}

	q := url.Values{}
	q.Set("email", identifier)
	resp, err := c.do(ctx, "block_status", http.MethodGet, c.paths.BlockStatus, q.Encode(), true)
	if err != nil {
		return session.BlockStatus{}, err
	}

	var env envelope[session.BlockStatus]
	if err := decode(resp, &env); err != nil {
		return session.BlockStatus{}, err
	}
	var out session.BlockStatus
	if env.Data != nil {
		out = *env.Data
	} else if err := decode(resp, &out); err != nil {
		return session.BlockStatus{}, err
	}
	if out.Identifier == "" {
		out.Identifier = identifier
	}
	return out.Normalize(), nil
}

// LogoutAll asks the backend to terminate every session of the current user.
func (c *Client) LogoutAll(ctx context.Context) (LogoutAllResponse, error) {
	resp, err := c.do(ctx, "logout_all", http.MethodPost, c.paths.LogoutAll, "", true)
	if err != nil {
		return LogoutAllResponse{}, err
	}

	out := LogoutAllResponse{Success: true}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return out, nil
	}
	if err := decode(resp, &out); err != nil {
		return LogoutAllResponse{}, err
	}
	if !out.Success {
		return LogoutAllResponse{}, &apierror.ResponseError{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}
	}
	return out, nil
}

// Callback forwards rawQuery and cookieHeader to the OAuth callback endpoint and
// returns the response unfollowed, whatever its status.
func (c *Client) Callback(ctx context.Context, rawQuery, cookieHeader string) (*CallbackResponse, error) {
	if cookieHeader != "" {
		ctx = WithCookies(ctx, cookieHeader)
	}
	resp, err := c.do(ctx, "callback", http.MethodGet, c.paths.Callback, rawQuery, false)
	if err != nil {
		return nil, err
	}
	return &CallbackResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

type rawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (c *Client) do(ctx context.Context, op, method, path, rawQuery string, requireSuccess bool) (*rawResponse, error) {
	ctx, span := c.tracer.Start(ctx, "backend."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("url.path", path),
		attribute.String("component", "backend"),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		recordError(span, err)
		return nil, err
	}

	target := *c.base
	target.Path = c.base.Path + path
	target.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	cookie := CookiesFromContext(ctx)
	if cookie == "" {
		cookie = c.cookie
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	span.SetAttributes(attribute.String("request.id", requestID))

	resp, err := c.http.Do(req)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if len(body) > MaxResponseBytes {
		recordError(span, ErrResponseTooLarge)
		return nil, ErrResponseTooLarge
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	out := &rawResponse{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: body}

	if requireSuccess {
		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			err := &apierror.ResponseError{StatusCode: resp.StatusCode, Header: out.Header, Body: body}
			recordError(span, fmt.Errorf("%w: %v", errUnexpectedRedirect, err))
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			err := &apierror.ResponseError{StatusCode: resp.StatusCode, Header: out.Header, Body: body}
			recordError(span, err)
			return nil, err
		}
	}

	span.SetStatus(codes.Ok, "")
	return out, nil
}

func decode(resp *rawResponse, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
