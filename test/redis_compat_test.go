//go:build integration
// +build integration

package test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/session"
)

// redisMode describes which Redis backend the compatibility suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) (redis.UniversalClient, func())
}

// redisModes returns the set of Redis backends to test.
// miniredis is always available.
// Real Redis standalone is used when REDIS_ADDR is set (e.g. "127.0.0.1:6379").
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				return rdb, func() { _ = rdb.Close(); mr.Close() }
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				rdb.FlushDB(context.Background())
				return rdb, func() { rdb.FlushDB(context.Background()); _ = rdb.Close() }
			},
		})
	}

	// Cluster mode: when REDIS_CLUSTER_ADDRS is set (comma-separated).
	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)})
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis cluster: %v", err)
				}
				return rdb, func() { _ = rdb.Close() }
			},
		})
	}

	return modes
}

func splitAddrs(s string) []string {
	var addrs []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}

func cookieCtx() context.Context {
	return goGuard.WithForwardedCookies(context.Background(), "sid=it")
}

// TestRedisCompat_VerifyWritesProfileCopy validates that a verification leaves an
// expiring profile copy under the client's key.
func TestRedisCompat_VerifyWritesProfileCopy(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			b := newIntegrationBackend(t)
			engine := newIntegrationEngine(t, b, rdb, "verify-client")

			if _, err := engine.Verify(cookieCtx()); err != nil {
				t.Fatalf("verify: %v", err)
			}

			ttl, err := rdb.TTL(context.Background(), "it:p:verify-client").Result()
			if err != nil {
				t.Fatalf("ttl: %v", err)
			}
			if ttl <= 0 || ttl > time.Hour {
				t.Fatalf("expected profile copy to expire within an hour, got ttl %v", ttl)
			}
		})
	}
}

// TestRedisCompat_RestoreAcrossRestart validates that a second engine with the same
// client ID adopts the cached copy as an unverified hint only.
func TestRedisCompat_RestoreAcrossRestart(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			b := newIntegrationBackend(t)
			first := newIntegrationEngine(t, b, rdb, "restart-client")
			if _, err := first.Verify(cookieCtx()); err != nil {
				t.Fatalf("verify: %v", err)
			}
			first.Close()

			second := newIntegrationEngine(t, b, rdb, "restart-client")
			adopted, err := second.Restore(context.Background())
			if err != nil {
				t.Fatalf("restore: %v", err)
			}
			if !adopted {
				t.Fatal("expected cached profile to be adopted")
			}

			s := second.Session()
			if s.Source != session.SourceUnverifiedHint {
				t.Fatalf("restored session must stay unverified, got %s", s.Source)
			}
			if s.User == nil || s.User.Email != "root@example.com" {
				t.Fatalf("unexpected restored user %+v", s.User)
			}

			// An admin route still needs a live verification.
			before := b.fetches.Load()
			d, err := second.Evaluate(cookieCtx(), goGuard.GuardRequest{RequireAdmin: true, Route: "/admin"})
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if !d.Allowed() || d.Reason != goGuard.ReasonAdmin {
				t.Fatalf("expected verified admin decision, got %+v", d)
			}
			if b.fetches.Load() != before+1 {
				t.Fatalf("expected exactly one profile fetch, got %d", b.fetches.Load()-before)
			}
		})
	}
}

// TestRedisCompat_LogoutAllPurgesCopies validates that logout-all removes every
// cached copy for the client and that the revoked session cannot be restored.
func TestRedisCompat_LogoutAllPurgesCopies(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			b := newIntegrationBackend(t)
			engine := newIntegrationEngine(t, b, rdb, "logout-client")
			if _, err := engine.Verify(cookieCtx()); err != nil {
				t.Fatalf("verify: %v", err)
			}

			res, err := engine.LogoutAll(cookieCtx())
			if err != nil {
				t.Fatalf("logout-all: %v", err)
			}
			if !res.RemoteConfirmed {
				t.Fatalf("expected confirmed logout, got %+v", res)
			}

			n, err := rdb.Exists(context.Background(), "it:p:logout-client", "it:l:logout-client").Result()
			if err != nil {
				t.Fatalf("exists: %v", err)
			}
			if n != 0 {
				t.Fatalf("expected cached copies purged, %d keys remain", n)
			}

			adopted, err := engine.Restore(context.Background())
			if err != nil {
				t.Fatalf("restore: %v", err)
			}
			if adopted || engine.Session().Authenticated {
				t.Fatal("expected empty session after logout-all")
			}
		})
	}
}
