package goGuard

import (
	"errors"
	"strings"
	"time"
)

// MaxVerifyTimeout is the upper bound accepted for Guard.VerifyTimeout.
const MaxVerifyTimeout = 2 * time.Minute

// Config is the full engine configuration. Every section can be loaded from YAML
// (see [LoadConfigFile]) and overridden by GOGUARD_* environment variables (see
// [ApplyEnv]).
type Config struct {
	Backend     BackendConfig     `yaml:"backend" envPrefix:"BACKEND_"`
	Session     SessionConfig     `yaml:"session" envPrefix:"SESSION_"`
	Guard       GuardConfig       `yaml:"guard" envPrefix:"GUARD_"`
	Relay       RelayConfig       `yaml:"relay" envPrefix:"RELAY_"`
	Liveness    LivenessConfig    `yaml:"liveness" envPrefix:"LIVENESS_"`
	BlockStatus BlockStatusConfig `yaml:"block_status" envPrefix:"BLOCK_STATUS_"`
	Cache       CacheConfig       `yaml:"cache" envPrefix:"CACHE_"`
	Audit       AuditConfig       `yaml:"audit" envPrefix:"AUDIT_"`
	Metrics     MetricsConfig     `yaml:"metrics" envPrefix:"METRICS_"`
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig locates the authentication backend and bounds outbound calls.
type BackendConfig struct {
	BaseURL           string        `yaml:"base_url" env:"BASE_URL"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" env:"BURST"`
	UserAgent         string        `yaml:"user_agent" env:"USER_AGENT"`
	Paths             BackendPaths  `yaml:"paths" envPrefix:"PATH_"`
}

// BackendPaths are endpoint paths relative to BaseURL.
type BackendPaths struct {
	Profile       string `yaml:"profile" env:"PROFILE"`
	SessionStatus string `yaml:"session_status" env:"SESSION_STATUS"`
	BlockStatus   string `yaml:"block_status" env:"BLOCK_STATUS"`
	LogoutAll     string `yaml:"logout_all" env:"LOGOUT_ALL"`
	Callback      string `yaml:"callback" env:"CALLBACK"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig bounds how long a server verification is trusted.
type SessionConfig struct {
	// StaleAfter downgrades a verified session to hint trust once exceeded.
	// Zero disables the bound.
	StaleAfter     time.Duration `yaml:"stale_after" env:"STALE_AFTER"`
	HintCookieName string        `yaml:"hint_cookie_name" env:"HINT_COOKIE_NAME"`
	HintTTL        time.Duration `yaml:"hint_ttl" env:"HINT_TTL"`
}

/*
====================================
GUARD CONFIG
====================================
*/

// GuardConfig drives protected-view decisions.
type GuardConfig struct {
	SignInPath    string        `yaml:"sign_in_path" env:"SIGN_IN_PATH"`
	VerifyTimeout time.Duration `yaml:"verify_timeout" env:"VERIFY_TIMEOUT"`
	AdminEmails   []string      `yaml:"admin_emails" env:"ADMIN_EMAILS" envSeparator:","`
	// ReverifyAdmin forces a fresh profile fetch on every admin activation.
	ReverifyAdmin bool `yaml:"reverify_admin" env:"REVERIFY_ADMIN"`
}

/*
====================================
RELAY CONFIG
====================================
*/

// RelayConfig shapes the redirects issued by the OAuth callback relay.
type RelayConfig struct {
	DefaultRedirect     string `yaml:"default_redirect" env:"DEFAULT_REDIRECT"`
	SignInPath          string `yaml:"sign_in_path" env:"SIGN_IN_PATH"`
	ErrorParam          string `yaml:"error_param" env:"ERROR_PARAM"`
	DefaultErrorMessage string `yaml:"default_error_message" env:"DEFAULT_ERROR_MESSAGE"`
}

/*
====================================
POLLING CONFIG
====================================
*/

// LivenessConfig controls the external-logout poller.
type LivenessConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
}

// BlockStatusConfig controls the lockout monitor. Enforce only toggles client-side
// polling; the backend keeps counting regardless.
type BlockStatusConfig struct {
	Enforce   bool          `yaml:"enforce" env:"ENFORCE"`
	Interval  time.Duration `yaml:"interval" env:"INTERVAL"`
	Immediate bool          `yaml:"immediate" env:"IMMEDIATE"`
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig controls the client-local profile and liveness copies.
type CacheConfig struct {
	Enabled     bool          `yaml:"enabled" env:"ENABLED"`
	RedisPrefix string        `yaml:"redis_prefix" env:"REDIS_PREFIX"`
	TTL         time.Duration `yaml:"ttl" env:"TTL"`
	// ClientID scopes cache keys; a random id is generated when empty.
	ClientID string `yaml:"client_id" env:"CLIENT_ID"`
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled" env:"ENABLED"`
	BufferSize int  `yaml:"buffer_size" env:"BUFFER_SIZE"`
	DropIfFull bool `yaml:"drop_if_full" env:"DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled" env:"ENABLED"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms" env:"ENABLE_LATENCY_HISTOGRAMS"`
}

// DefaultConfig returns the documented defaults. Backend.BaseURL is left empty and
// must be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Timeout:   10 * time.Second,
			UserAgent: "goguard/1.0",
			Paths: BackendPaths{
				Profile:       "/api/auth/profile",
				SessionStatus: "/api/auth/session-status",
				BlockStatus:   "/api/auth/block-status",
				LogoutAll:     "/api/auth/logout-all",
				Callback:      "/api/auth/google/callback",
			},
		},
		Session: SessionConfig{
			StaleAfter:     15 * time.Minute,
			HintCookieName: "auth_session",
			HintTTL:        24 * time.Hour,
		},
		Guard: GuardConfig{
			SignInPath:    "/signin",
			VerifyTimeout: 10 * time.Second,
			ReverifyAdmin: true,
		},
		Relay: RelayConfig{
			DefaultRedirect:     "/dashboard",
			SignInPath:          "/signin",
			ErrorParam:          "error",
			DefaultErrorMessage: "Authentication failed",
		},
		Liveness: LivenessConfig{
			Enabled:  true,
			Interval: 30 * time.Second,
		},
		BlockStatus: BlockStatusConfig{
			Enforce:   true,
			Interval:  time.Minute,
			Immediate: true,
		},
		Cache: CacheConfig{
			Enabled:     false,
			RedisPrefix: "gg",
			TTL:         24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate checks cfg and returns the first problem found.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("Backend.BaseURL must be set")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("Backend.Timeout must be > 0")
	}
	if c.Backend.RequestsPerSecond < 0 {
		return errors.New("Backend.RequestsPerSecond must be >= 0")
	}
	if c.Backend.Burst < 0 {
		return errors.New("Backend.Burst must be >= 0")
	}
	for _, p := range [...]struct{ name, path string }{
		{"Profile", c.Backend.Paths.Profile},
		{"SessionStatus", c.Backend.Paths.SessionStatus},
		{"BlockStatus", c.Backend.Paths.BlockStatus},
		{"LogoutAll", c.Backend.Paths.LogoutAll},
		{"Callback", c.Backend.Paths.Callback},
	} {
		if p.path != "" && !strings.HasPrefix(p.path, "/") {
			return errors.New("Backend.Paths." + p.name + " must start with /")
		}
	}

	if c.Session.StaleAfter < 0 {
		return errors.New("Session.StaleAfter must be >= 0")
	}
	if strings.TrimSpace(c.Session.HintCookieName) == "" {
		return errors.New("Session.HintCookieName must be set")
	}
	if c.Session.HintTTL < 0 {
		return errors.New("Session.HintTTL must be >= 0")
	}

	if !isLocalPath(c.Guard.SignInPath) {
		return errors.New("Guard.SignInPath must be a local path")
	}
	if c.Guard.VerifyTimeout <= 0 {
		return errors.New("Guard.VerifyTimeout must be > 0")
	}
	if c.Guard.VerifyTimeout > MaxVerifyTimeout {
		return errors.New("Guard.VerifyTimeout must be <= 2m")
	}
	for _, e := range c.Guard.AdminEmails {
		if e = strings.TrimSpace(e); e != "" && !strings.Contains(e, "@") {
			return errors.New("Guard.AdminEmails entries must be email addresses")
		}
	}

	if !isLocalPath(c.Relay.DefaultRedirect) {
		return errors.New("Relay.DefaultRedirect must be a local path")
	}
	if !isLocalPath(c.Relay.SignInPath) {
		return errors.New("Relay.SignInPath must be a local path")
	}
	if strings.TrimSpace(c.Relay.ErrorParam) == "" {
		return errors.New("Relay.ErrorParam must be set")
	}
	if strings.TrimSpace(c.Relay.DefaultErrorMessage) == "" {
		return errors.New("Relay.DefaultErrorMessage must be set")
	}

	if c.Liveness.Enabled && c.Liveness.Interval <= 0 {
		return errors.New("Liveness.Interval must be > 0 when Liveness.Enabled")
	}
	if c.BlockStatus.Enforce && c.BlockStatus.Interval <= 0 {
		return errors.New("BlockStatus.Interval must be > 0 when BlockStatus.Enforce")
	}

	if c.Cache.Enabled {
		if strings.TrimSpace(c.Cache.RedisPrefix) == "" {
			return errors.New("Cache.RedisPrefix must be set when Cache.Enabled")
		}
		if c.Cache.TTL < 0 {
			return errors.New("Cache.TTL must be >= 0")
		}
		if strings.ContainsAny(c.Cache.ClientID, " :") {
			return errors.New("Cache.ClientID must not contain spaces or ':'")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be > 0 when Audit.Enabled")
	}

	return nil
}

// isLocalPath accepts absolute same-origin paths and rejects scheme-relative ones.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//")
}

func cloneConfig(in Config) Config {
	out := in
	if in.Guard.AdminEmails != nil {
		out.Guard.AdminEmails = append([]string(nil), in.Guard.AdminEmails...)
	}
	return out
}
