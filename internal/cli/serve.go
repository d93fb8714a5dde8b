package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/metrics/export/prometheus"
	"github.com/MrEthical07/goGuard/middleware"
)

type serveOptions struct {
	address         string
	callbackPath    string
	shutdownTimeout time.Duration
	readTimeout     time.Duration
	watchSession    bool
}

func newServeCommand(opts *options) *cobra.Command {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the OAuth callback relay and guarded routes",
		Long: `Start an HTTP server exposing:
  <callback-path>  OAuth callback relay (one redirect per request)
  /dashboard       any signed-in visitor
  /admin           allow-listed administrators only
  /logout-all      POST, ends every session of the visitor
  /metrics         Prometheus counters
  /healthz         health check

Every request is decided on the cookies it carries alone; visitors never
share a session.

With --watch-session the session of --cookie is polled every
liveness.interval and a logout on another device is logged.

The server drains connections on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts, so)
		},
	}

	f := cmd.Flags()
	f.StringVar(&so.address, "address", ":8080", "address to listen on")
	f.StringVar(&so.callbackPath, "callback-path", "/auth/callback", "same-origin OAuth redirect target")
	f.DurationVar(&so.shutdownTimeout, "shutdown-timeout", 15*time.Second, "maximum time to drain connections")
	f.DurationVar(&so.readTimeout, "read-timeout", 10*time.Second, "maximum duration for reading a request")
	f.BoolVar(&so.watchSession, "watch-session", false, "poll the --cookie session for external logout")
	return cmd
}

func runServe(cmd *cobra.Command, opts *options, so *serveOptions) error {
	engine, cleanup, err := opts.buildEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	logger, err := opts.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if so.watchSession {
		if opts.cookie == "" {
			return errors.New("--watch-session requires --cookie")
		}
		if err := startSessionWatch(opts.requestContext(ctx), engine, logger); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              so.address,
		Handler:           newServeMux(engine, so.callbackPath),
		ReadHeaderTimeout: so.readTimeout,
		ReadTimeout:       so.readTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	logger.Info("goguard listening", "address", so.address, "callback", so.callbackPath)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), so.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

func newServeMux(engine *goGuard.Engine, callbackPath string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(callbackPath, engine.CallbackHandler())
	mux.Handle("/dashboard", middleware.RequireSession(engine)(http.HandlerFunc(decisionHandler)))
	mux.Handle("/admin", middleware.RequireAdmin(engine)(http.HandlerFunc(decisionHandler)))
	mux.Handle("/logout-all", middleware.LogoutAllHandler(engine))
	mux.Handle("/metrics", prometheus.NewPrometheusExporter(engine).Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func decisionHandler(w http.ResponseWriter, r *http.Request) {
	d, _ := middleware.DecisionFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(struct {
		Route  string               `json:"route"`
		Reason string               `json:"reason"`
		Admin  bool                 `json:"admin"`
		User   *goGuard.UserProfile `json:"user,omitempty"`
	}{r.URL.Path, d.Reason, d.Admin, d.User})
}

func startSessionWatch(ctx context.Context, engine *goGuard.Engine, logger *slog.Logger) error {
	if _, err := engine.Verify(ctx); err != nil {
		return fmt.Errorf("initial verification: %w", err)
	}
	_, err := engine.StartLivenessPoller(ctx, func(redirect string, _ goGuard.LivenessResult) {
		logger.Warn("session ended on another device", "redirect", redirect)
	})
	return err
}
