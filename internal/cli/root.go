package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	goGuard "github.com/MrEthical07/goGuard"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	backendURL string
	cookie     string
	redisAddr  string
	logLevel   string
	logFormat  string
	audit      bool
}

// NewRootCommand builds the goguard command tree. out receives command results and
// errOut receives logs.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "goguard",
		Short: "Client-side session guard for a cookie-authenticated backend",
		Long: `goguard mirrors the authentication state held by a backend that issues
HttpOnly session cookies. It verifies profiles, relays OAuth callbacks,
watches for logouts on other devices and mirrors account lockouts.

Configuration is read from --config (YAML), then GOGUARD_* environment
variables, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file")
	flags.StringVar(&opts.backendURL, "backend", "", "backend base URL (overrides config)")
	flags.StringVar(&opts.cookie, "cookie", os.Getenv("GOGUARD_COOKIE"), "Cookie header forwarded to the backend")
	flags.StringVar(&opts.redisAddr, "redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for the profile cache")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	flags.BoolVar(&opts.audit, "audit", false, "log audit events")

	root.AddCommand(
		newServeCommand(opts),
		newStatusCommand(opts),
		newBlockStatusCommand(opts),
		newLogoutAllCommand(opts),
	)
	return root
}

// Execute runs the command tree against the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func (o *options) loadConfig() (goGuard.Config, error) {
	cfg := goGuard.DefaultConfig()
	if o.configPath != "" {
		loaded, err := goGuard.LoadConfigFile(o.configPath)
		if err != nil {
			return goGuard.Config{}, err
		}
		cfg = loaded
	}
	if err := goGuard.ApplyEnv(&cfg); err != nil {
		return goGuard.Config{}, err
	}
	if o.backendURL != "" {
		cfg.Backend.BaseURL = o.backendURL
	}
	if o.audit {
		cfg.Audit.Enabled = true
	}
	return cfg, nil
}

func (o *options) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", o.logLevel)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(o.logFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q", o.logFormat)
	}
}

// buildEngine wires an engine from flags. The returned cleanup closes the engine
// and any Redis client it opened.
func (o *options) buildEngine(cmd *cobra.Command) (*goGuard.Engine, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := o.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	b := goGuard.New().WithConfig(cfg).WithLogger(logger)
	if cfg.Audit.Enabled {
		b.WithAuditSink(goGuard.NewLoggerSink(logger, slog.LevelInfo))
	}

	var rdb *redis.Client
	if o.redisAddr != "" && cfg.Cache.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: o.redisAddr})
		b.WithRedis(rdb)
	}

	engine, err := b.Build()
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		engine.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	return engine, cleanup, nil
}

// requestContext attaches the forwarded cookie to ctx.
func (o *options) requestContext(ctx context.Context) context.Context {
	if o.cookie != "" {
		ctx = goGuard.WithForwardedCookies(ctx, o.cookie)
	}
	return ctx
}
