//go:build integration
// +build integration

package test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/redis/go-redis/v9"
)

// integrationBackend answers for the session cookie "sid=it" until logout-all
// revokes it.
type integrationBackend struct {
	srv     *httptest.Server
	revoked atomic.Bool
	fetches atomic.Int32
}

func newIntegrationBackend(t *testing.T) *integrationBackend {
	t.Helper()

	b := &integrationBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		b.fetches.Add(1)
		if b.revoked.Load() || !strings.Contains(r.Header.Get("Cookie"), "sid=it") {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Not authenticated"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "user-1", "email": "root@example.com", "role": "ADMIN", "name": "Root"},
		})
	})
	mux.HandleFunc("/api/auth/logout-all", func(w http.ResponseWriter, _ *http.Request) {
		b.revoked.Store(true)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out everywhere"})
	})
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func newIntegrationEngine(t *testing.T, b *integrationBackend, rdb redis.UniversalClient, clientID string) *goGuard.Engine {
	t.Helper()

	cfg := goGuard.DefaultConfig()
	cfg.Backend.BaseURL = b.srv.URL
	cfg.Backend.Timeout = 3 * time.Second
	cfg.Guard.AdminEmails = []string{"root@example.com"}
	cfg.Cache.Enabled = true
	cfg.Cache.RedisPrefix = "it"
	cfg.Cache.ClientID = clientID
	cfg.Cache.TTL = time.Hour

	engine, err := goGuard.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
