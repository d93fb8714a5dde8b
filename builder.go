package goGuard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/backend"
	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/stores"
	"github.com/MrEthical07/goGuard/session"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	cache  ProfileCache
	store  *session.Store

	logger         *slog.Logger
	auditSink      AuditSink
	httpClient     *http.Client
	tracerProvider trace.TracerProvider
	now            func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBackendURL sets Backend.BaseURL.
func (b *Builder) WithBackendURL(baseURL string) *Builder {
	b.config.Backend.BaseURL = baseURL
	return b
}

// WithAdminEmails sets the admin allow-list.
func (b *Builder) WithAdminEmails(emails ...string) *Builder {
	b.config.Guard.AdminEmails = append([]string(nil), emails...)
	return b
}

// WithRedis backs the profile cache with Redis when Cache.Enabled is set.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithProfileCache installs a custom cache. It takes precedence over WithRedis and
// enables caching regardless of Cache.Enabled.
func (b *Builder) WithProfileCache(cache ProfileCache) *Builder {
	b.cache = cache
	return b
}

// WithStore shares an existing state cell with the engine.
func (b *Builder) WithStore(store *session.Store) *Builder {
	b.store = store
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithHTTPClient sets the transport used for backend calls. Its redirect policy is
// always overridden so callbacks are never followed.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithClock overrides time.Now for verification stamps and staleness checks.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. It performs no network I/O.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		return nil, ErrBackendRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "goguard")

	now := b.now
	if now == nil {
		now = time.Now
	}

	// -------- BACKEND CLIENT --------
	client, err := backend.New(backend.Config{
		BaseURL:           cfg.Backend.BaseURL,
		Timeout:           cfg.Backend.Timeout,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Burst:             cfg.Backend.Burst,
		UserAgent:         cfg.Backend.UserAgent,
		Paths: backend.Paths{
			Profile:       cfg.Backend.Paths.Profile,
			SessionStatus: cfg.Backend.Paths.SessionStatus,
			BlockStatus:   cfg.Backend.Paths.BlockStatus,
			LogoutAll:     cfg.Backend.Paths.LogoutAll,
			Callback:      cfg.Backend.Paths.Callback,
		},
		HTTPClient:     b.httpClient,
		TracerProvider: b.tracerProvider,
	})
	if err != nil {
		return nil, err
	}

	// -------- PROFILE CACHE --------
	cache := b.cache
	if cache == nil && cfg.Cache.Enabled {
		if cfg.Cache.ClientID == "" {
			cfg.Cache.ClientID = uuid.NewString()
		}
		if b.redis != nil {
			cache = stores.NewRedisProfileCache(b.redis, cfg.Cache.RedisPrefix, cfg.Cache.ClientID, cfg.Cache.TTL)
		} else {
			cache = stores.NewMemoryProfileCache(cfg.Cache.TTL)
		}
	}

	// -------- SESSION STORE --------
	store := b.store
	if store == nil {
		store = session.NewStore()
	}

	engine := &Engine{
		config:     cloneConfig(cfg),
		store:      store,
		client:     client,
		cache:      cache,
		logger:     logger,
		now:        now,
		adminAllow: flows.AdminAllowList(cfg.Guard.AdminEmails),
		monitors:   make(map[*BlockMonitor]struct{}),
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.flow = flows.New(engine.flowDeps())

	if len(engine.adminAllow) == 0 {
		logger.Warn("admin allow-list is empty; admin routes will always deny")
	}

	b.built = true

	return engine, nil
}

func (e *Engine) flowDeps() flows.Deps {
	var (
		saveProfile  func(ctx context.Context, p session.CachedProfile) error
		saveLiveness func(ctx context.Context, l stores.Liveness) error
		purge        func(ctx context.Context) error
	)
	if e.cache != nil {
		saveProfile = e.cache.SaveProfile
		saveLiveness = e.cache.SaveLiveness
		purge = e.purgeCache
	}

	cacheWarn := func(msg string, args ...any) {
		e.metricInc(MetricCacheFailure)
		e.logger.Warn(msg, args...)
	}

	return flows.Deps{
		Verify: flows.VerifyDeps{
			Store:        e.store,
			FetchProfile: e.client.Profile,
			SaveProfile:  saveProfile,
			Now:          e.now,
			Warn:         cacheWarn,
		},
		Guard: flows.GuardDeps{
			Store:         e.store,
			Verify:        e.runVerify,
			Now:           e.now,
			StaleAfter:    e.config.Session.StaleAfter,
			SignInPath:    e.config.Guard.SignInPath,
			VerifyTimeout: e.config.Guard.VerifyTimeout,
			AdminEmails:   e.adminAllow,
			ReverifyAdmin: e.config.Guard.ReverifyAdmin,
			OnSettle:      e.onGuardSettle,
		},
		Relay: flows.RelayDeps{
			Callback:            e.client.Callback,
			SignInPath:          e.config.Relay.SignInPath,
			DefaultRedirect:     e.config.Relay.DefaultRedirect,
			ErrorParam:          e.config.Relay.ErrorParam,
			DefaultErrorMessage: e.config.Relay.DefaultErrorMessage,
		},
		Liveness: flows.LivenessDeps{
			Store:         e.store,
			SessionStatus: e.client.SessionStatus,
			SaveLiveness:  saveLiveness,
			Purge:         purge,
			Now:           e.now,
			Warn:          cacheWarn,
		},
		BlockStatus: flows.BlockStatusDeps{
			Fetch: e.client.BlockStatus,
		},
		Logout: flows.LogoutDeps{
			Store:      e.store,
			LogoutAll:  e.client.LogoutAll,
			Purge:      purge,
			SignInPath: e.config.Guard.SignInPath,
		},
	}
}
