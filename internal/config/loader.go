// Package config provides centralized configuration management for gridwatch.
// Viper collects defaults, the optional config file and GRIDWATCH_*
// environment variables; Load decodes the merged settings into Config.
package config

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/gridwatch/gridwatch/internal/core/openf1"
)

const (
	// AppName names the binary and the XDG config directory.
	AppName = "gridwatch"

	// EnvPrefix is prepended to environment overrides, e.g.
	// GRIDWATCH_OPENF1_CACHE_TTL=10m.
	EnvPrefix = "GRIDWATCH"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers every known key so environment overrides resolve
// and AllSettings returns a complete tree.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Health check defaults
	v.SetDefault("health.enabled", true)

	// Upstream client defaults
	v.SetDefault("openf1.base_url", openf1.DefaultBaseURL)
	v.SetDefault("openf1.cache_ttl", openf1.DefaultCacheTTL.String())
	v.SetDefault("openf1.timeout", "0s")
	v.SetDefault("openf1.user_agent", AppName)
	v.SetDefault("openf1.dedupe_inflight", false)
	v.SetDefault("openf1.rate_limit.requests", openf1.DefaultRateLimit.RequestsPerWindow)
	v.SetDefault("openf1.rate_limit.window", openf1.DefaultRateLimit.WindowDuration.String())
	v.SetDefault("openf1.rate_limit.buffer", openf1.DefaultRateLimit.Buffer.String())
	v.SetDefault("openf1.retry.max_retries", openf1.DefaultRetryPolicy.MaxRetries)
	v.SetDefault("openf1.retry.base_backoff", openf1.DefaultRetryPolicy.BaseBackoff.String())
	v.SetDefault("openf1.retry.max_backoff", openf1.DefaultRetryPolicy.MaxBackoff.String())

	// Schedule defaults
	v.SetDefault("schedule.file", "")
}

// BindEnv wires GRIDWATCH_* variables to nested keys
// (openf1.rate_limit.requests -> GRIDWATCH_OPENF1_RATE_LIMIT_REQUESTS).
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the merged viper settings, validates them and stores the
// result for GetConfig.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects settings the client or server cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		problems = append(problems, fmt.Sprintf("metrics.port %d out of range", c.Metrics.Port))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of trace, debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Profile) {
	case "structured", "simple":
	default:
		problems = append(problems, fmt.Sprintf("logging.profile %q is not structured or simple", c.Logging.Profile))
	}
	if c.OpenF1.RateLimit.Requests < 0 {
		problems = append(problems, "openf1.rate_limit.requests must not be negative")
	}
	if c.OpenF1.RateLimit.Window < 0 || c.OpenF1.RateLimit.Buffer < 0 {
		problems = append(problems, "openf1.rate_limit durations must not be negative")
	}
	if c.OpenF1.Retry.MaxRetries < 0 {
		problems = append(problems, "openf1.retry.max_retries must not be negative")
	}
	if c.OpenF1.CacheTTL < 0 || c.OpenF1.Timeout < 0 {
		problems = append(problems, "openf1 durations must not be negative")
	}
	if file := strings.TrimSpace(c.Schedule.File); file != "" {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".yaml", ".yml", ".json":
		default:
			problems = append(problems, fmt.Sprintf("schedule.file %q must be .yaml, .yml or .json", file))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ClientOptions maps the upstream settings onto client options. Logger,
// clock and sleep are left for the caller.
func (c OpenF1Config) ClientOptions() openf1.Options {
	opts := openf1.Options{
		BaseURL:        c.BaseURL,
		UserAgent:      c.UserAgent,
		CacheTTL:       c.CacheTTL,
		DedupeInFlight: c.DedupeInFlight,
		RateLimit: openf1.RateLimit{
			RequestsPerWindow: c.RateLimit.Requests,
			WindowDuration:    c.RateLimit.Window,
			Buffer:            c.RateLimit.Buffer,
		},
		Retry: openf1.RetryPolicy{
			MaxRetries:  c.Retry.MaxRetries,
			BaseBackoff: c.Retry.BaseBackoff,
			MaxBackoff:  c.Retry.MaxBackoff,
		},
	}
	if c.Retry.MaxRetries == 0 {
		opts.Retry.MaxRetries = openf1.NoRetries
	}
	if c.Timeout > 0 {
		opts.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return opts
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigDir returns the XDG-compliant config directory for the app.
func DefaultConfigDir() string {
	return gfconfig.GetAppConfigDir(AppName)
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := DefaultConfigDir()
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}
