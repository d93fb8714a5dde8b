package test

import (
	"context"
	"fmt"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/redis/go-redis/v9"
)

// ExampleNew demonstrates engine construction with production-style dependencies.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	cfg := goGuard.DefaultConfig()
	cfg.Cache.Enabled = true

	engine, _ := goGuard.New().
		WithConfig(cfg).
		WithBackendURL("https://api.example.com").
		WithAdminEmails("root@example.com").
		WithRedis(rdb).
		Build()
	_ = engine
}

// ExampleEngine_Evaluate shows a guard check for an admin route with the visitor's
// cookies forwarded to the backend.
func ExampleEngine_Evaluate() {
	var engine *goGuard.Engine
	ctx := goGuard.WithForwardedCookies(context.Background(), "sid=abc")

	d, err := engine.Evaluate(ctx, goGuard.GuardRequest{RequireAdmin: true, Route: "/admin"})
	if err != nil {
		return
	}
	if d.Outcome != goGuard.GuardAllow {
		fmt.Println("redirect to", d.RedirectTarget)
	}
}

// ExampleEngine_LogoutAll shows how to surface an unconfirmed multi-device logout.
func ExampleEngine_LogoutAll() {
	var engine *goGuard.Engine
	res, err := engine.LogoutAll(context.Background())
	if err != nil {
		return
	}
	if !res.RemoteConfirmed {
		fmt.Println(res.Notification)
	}
}

// ExampleEngine_MetricsSnapshot shows how to read in-process metrics counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *goGuard.Engine
	snapshot := engine.MetricsSnapshot()
	_ = snapshot
}
