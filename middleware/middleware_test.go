package middleware_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/middleware"
)

type backend struct {
	srv         *httptest.Server
	profileCode atomic.Int64
	role        atomic.Value
	hits        atomic.Int64

	mu         sync.Mutex
	lastCookie string
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	b := &backend{}
	b.profileCode.Store(http.StatusOK)
	b.role.Store("ADMIN")

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		b.mu.Lock()
		b.lastCookie = r.Header.Get("Cookie")
		b.mu.Unlock()

		code := int(b.profileCode.Load())
		w.WriteHeader(code)
		if code != http.StatusOK {
			_, _ = w.Write([]byte(`{"success":false,"error":{"message":"Session expired","statusCode":401}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"u1","email":"root@example.com","role":"` + b.role.Load().(string) + `"}}`))
	})
	mux.HandleFunc("/api/auth/logout-all", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"Logged out from 2 devices"}`))
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func newEngine(t *testing.T, b *backend) *goGuard.Engine {
	t.Helper()

	engine, err := goGuard.New().
		WithBackendURL(b.srv.URL).
		WithAdminEmails("root@example.com").
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func okHandler(t *testing.T, wantReason string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, ok := middleware.DecisionFromContext(r.Context())
		if !ok {
			t.Error("expected decision in context")
		}
		if wantReason != "" && d.Reason != wantReason {
			t.Errorf("expected reason %q, got %q", wantReason, d.Reason)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func hintCleared(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_session" && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func TestRequireSessionRedirectsAnonymous(t *testing.T) {
	b := newBackend(t)
	h := middleware.RequireSession(newEngine(t, b))(okHandler(t, ""))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/signin" {
		t.Fatalf("expected redirect to /signin, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if hintCleared(rec) {
		t.Fatal("no hint was sent, nothing to clear")
	}
}

func TestRequireSessionAdmitsOnHint(t *testing.T) {
	b := newBackend(t)
	h := middleware.RequireSession(newEngine(t, b))(okHandler(t, goGuard.ReasonHint))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "auth_session", Value: "true"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if b.hits.Load() != 0 {
		t.Fatal("hint admission must not call the backend")
	}
}

func TestRequireAdminVerifiesAndForwardsCookies(t *testing.T) {
	b := newBackend(t)
	h := middleware.RequireAdmin(newEngine(t, b))(okHandler(t, goGuard.ReasonAdmin))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "auth_session", Value: "true"})
	req.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	b.mu.Lock()
	cookie := b.lastCookie
	b.mu.Unlock()
	if !strings.Contains(cookie, "sid=abc") {
		t.Fatalf("expected visitor cookies forwarded, got %q", cookie)
	}
}

func TestRequireAdminDeniesUserRoleAndClearsHint(t *testing.T) {
	b := newBackend(t)
	b.role.Store("USER")
	h := middleware.RequireAdmin(newEngine(t, b))(okHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "auth_session", Value: "true"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/signin" {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if !hintCleared(rec) {
		t.Fatal("expected hint cookie to be expired on denial")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("expected no-store on denial")
	}
}

func TestRequireAdminDeniesOnVerificationFailure(t *testing.T) {
	b := newBackend(t)
	b.profileCode.Store(http.StatusUnauthorized)
	h := middleware.RequireAdmin(newEngine(t, b))(okHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "auth_session", Value: "true"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if b.hits.Load() != 1 {
		t.Fatalf("expected one verification attempt, got %d", b.hits.Load())
	}
}

func TestGuardNilEngine(t *testing.T) {
	h := middleware.Guard(nil, middleware.ModeSession)(okHandler(t, ""))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogoutAllHandler(t *testing.T) {
	b := newBackend(t)
	h := middleware.LogoutAllHandler(newEngine(t, b))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logout-all", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout-all", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		RemoteConfirmed bool   `json:"remoteConfirmed"`
		Message         string `json:"message"`
		Redirect        string `json:"redirect"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.RemoteConfirmed || body.Message != "Logged out from 2 devices" || body.Redirect != "/signin" {
		t.Fatalf("unexpected body %+v", body)
	}
	if !hintCleared(rec) {
		t.Fatal("expected hint cookie to be expired")
	}
}

func TestGuardKeepsVisitorsApart(t *testing.T) {
	b := newBackend(t)
	engine := newEngine(t, b)
	admin := middleware.RequireAdmin(engine)(okHandler(t, goGuard.ReasonAdmin))

	var seen []*goGuard.UserProfile
	dashboard := middleware.RequireSession(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, _ := middleware.DecisionFromContext(r.Context())
		seen = append(seen, d.User)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "auth_session", Value: "true"})
	req.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first visitor admitted, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	dashboard.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected anonymous visitor redirected, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected anonymous admin request redirected, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "auth_session", Value: "true"})
	rec = httptest.NewRecorder()
	dashboard.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected hinted visitor admitted, got %d", rec.Code)
	}
	if len(seen) != 1 || seen[0] != nil {
		t.Fatalf("hint admission must not carry another visitor's profile, got %+v", seen)
	}

	if engine.Session().Authenticated {
		t.Fatal("request evaluation must not write the engine session")
	}
	if b.hits.Load() != 1 {
		t.Fatalf("expected one verification, got %d", b.hits.Load())
	}
}

func TestRequireAdminVerifiesEveryRequest(t *testing.T) {
	b := newBackend(t)
	h := middleware.RequireAdmin(newEngine(t, b))(okHandler(t, goGuard.ReasonAdmin))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: "auth_session", Value: "true"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	if b.hits.Load() != 2 {
		t.Fatalf("expected a verification per request, got %d", b.hits.Load())
	}
}

func TestLogoutAllHandlerClosedEngineClearsHint(t *testing.T) {
	b := newBackend(t)
	engine := newEngine(t, b)
	h := middleware.LogoutAllHandler(engine)
	engine.Close()

	req := httptest.NewRequest(http.MethodPost, "/logout-all", nil)
	req.AddCookie(&http.Cookie{Name: "auth_session", Value: "true"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !hintCleared(rec) {
		t.Fatal("expected hint cookie to be expired")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("expected no-store")
	}
}
