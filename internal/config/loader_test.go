package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/gridwatch/internal/core/openf1"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoad(t *testing.T) {
	t.Run("LoadDefaults", func(t *testing.T) {
		cfg, err := Load(newViper(t))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify server defaults
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		// Verify upstream defaults
		assert.Equal(t, openf1.DefaultBaseURL, cfg.OpenF1.BaseURL)
		assert.Equal(t, 5*time.Minute, cfg.OpenF1.CacheTTL)
		assert.Zero(t, cfg.OpenF1.Timeout)
		assert.False(t, cfg.OpenF1.DedupeInFlight)
		assert.Equal(t, 3, cfg.OpenF1.RateLimit.Requests)
		assert.Equal(t, time.Second, cfg.OpenF1.RateLimit.Window)
		assert.Equal(t, 50*time.Millisecond, cfg.OpenF1.RateLimit.Buffer)
		assert.Equal(t, 3, cfg.OpenF1.Retry.MaxRetries)
		assert.Equal(t, time.Second, cfg.OpenF1.Retry.BaseBackoff)
		assert.Equal(t, 10*time.Second, cfg.OpenF1.Retry.MaxBackoff)

		// Verify ambient defaults
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "structured", cfg.Logging.Profile)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)
		assert.True(t, cfg.Health.Enabled)
		assert.Empty(t, cfg.Schedule.File)

		assert.Same(t, cfg, GetConfig())
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv("GRIDWATCH_SERVER_PORT", "9191")
		t.Setenv("GRIDWATCH_OPENF1_CACHE_TTL", "10m")
		t.Setenv("GRIDWATCH_OPENF1_RATE_LIMIT_REQUESTS", "5")
		t.Setenv("GRIDWATCH_OPENF1_DEDUPE_INFLIGHT", "true")
		t.Setenv("GRIDWATCH_LOGGING_LEVEL", "debug")

		cfg, err := Load(newViper(t))
		require.NoError(t, err)

		assert.Equal(t, 9191, cfg.Server.Port)
		assert.Equal(t, 10*time.Minute, cfg.OpenF1.CacheTTL)
		assert.Equal(t, 5, cfg.OpenF1.RateLimit.Requests)
		assert.True(t, cfg.OpenF1.DedupeInFlight)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
openf1:
  base_url: http://localhost:9999/v1
  timeout: 15s
  retry:
    max_retries: 1
schedule:
  file: ./calendar/2024.yaml
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		v := newViper(t)
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := Load(v)
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:9999/v1", cfg.OpenF1.BaseURL)
		assert.Equal(t, 15*time.Second, cfg.OpenF1.Timeout)
		assert.Equal(t, 1, cfg.OpenF1.Retry.MaxRetries)
		assert.Equal(t, time.Second, cfg.OpenF1.Retry.BaseBackoff, "unset siblings keep defaults")
		assert.Equal(t, "./calendar/2024.yaml", cfg.Schedule.File)
	})
}

func TestValidate(t *testing.T) {
	t.Run("BadLevel", func(t *testing.T) {
		v := newViper(t)
		v.Set("logging.level", "loud")
		_, err := Load(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logging.level")
	})

	t.Run("NegativeRetries", func(t *testing.T) {
		v := newViper(t)
		v.Set("openf1.retry.max_retries", -1)
		_, err := Load(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_retries")
	})

	t.Run("ScheduleExtension", func(t *testing.T) {
		v := newViper(t)
		v.Set("schedule.file", "calendar.csv")
		_, err := Load(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schedule.file")
	})
}

func TestClientOptions(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	opts := cfg.OpenF1.ClientOptions()
	assert.Equal(t, openf1.DefaultBaseURL, opts.BaseURL)
	assert.Equal(t, openf1.DefaultRateLimit, opts.RateLimit)
	assert.Equal(t, openf1.DefaultRetryPolicy, opts.Retry)
	assert.Nil(t, opts.HTTPClient, "no timeout means the default client")

	cfg.OpenF1.Timeout = 20 * time.Second
	opts = cfg.OpenF1.ClientOptions()
	require.NotNil(t, opts.HTTPClient)
	assert.Equal(t, 20*time.Second, opts.HTTPClient.Timeout)

	cfg.OpenF1.Retry.MaxRetries = 0
	opts = cfg.OpenF1.ClientOptions()
	assert.Equal(t, openf1.NoRetries, opts.Retry.MaxRetries, "zero retries in config disables retry")
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := DefaultConfigPath()
	require.NotEmpty(t, path)
	assert.Equal(t, "config.yaml", filepath.Base(path))
	assert.Contains(t, path, AppName)
}
