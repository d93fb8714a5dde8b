package goGuard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by [ApplyEnv].
const EnvPrefix = "GOGUARD_"

// LoadConfigFile overlays the YAML document at path on [DefaultConfig]. Unknown keys
// are rejected. The result is not validated.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig overlays a YAML document on [DefaultConfig].
func ParseConfig(data []byte) (Config, error) {
	cfg := defaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Guard.AdminEmails = trimCSV(cfg.Guard.AdminEmails)
	return cfg, nil
}

// ApplyEnv overrides cfg fields from GOGUARD_* variables of the process
// environment, e.g. GOGUARD_BACKEND_BASE_URL or GOGUARD_GUARD_ADMIN_EMAILS.
// Unset variables leave fields untouched.
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, env.Options{Prefix: EnvPrefix})
}

// ApplyEnvFrom is [ApplyEnv] over an explicit variable set.
func ApplyEnvFrom(cfg *Config, environ map[string]string) error {
	return applyEnv(cfg, env.Options{Prefix: EnvPrefix, Environment: environ})
}

func applyEnv(cfg *Config, opts env.Options) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	cfg.Guard.AdminEmails = trimCSV(cfg.Guard.AdminEmails)
	return nil
}

func trimCSV(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
