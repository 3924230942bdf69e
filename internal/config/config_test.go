package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
listen: ":9000"
redis_url: "redis://redis:6379/1"
log_level: debug
festival:
  name: "Test Fest"
  start: "2024-10-15 12:00:00"
  time_zone: "UTC"
content:
  dir: /srv/content
  workers: 2
countdown:
  period: 500ms
`

func TestDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, "content", cfg.Content.Dir)
	assert.Equal(t, 4, cfg.Content.Workers)
	assert.Equal(t, "page.html", cfg.Content.TemplateFileName)
	assert.Equal(t, time.Second, cfg.Countdown.Period)
	assert.Equal(t, "HarmonyFest 2024", cfg.Festival.Name)
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "config.yml", []byte(testConfig), 0o644))

	cfg, err := Load(fs, "config.yml")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "redis://redis:6379/1", cfg.RedisURL)
	assert.Equal(t, LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, "Test Fest", cfg.Festival.Name)
	assert.Equal(t, "/srv/content", cfg.Content.Dir)
	assert.Equal(t, 2, cfg.Content.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Countdown.Period)
	// untouched keys keep defaults
	assert.Equal(t, "subscribers.yml", cfg.DumpFileName)

	start, err := cfg.Festival.StartTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC), start)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "nope.yml")
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "config.yml", []byte(testConfig), 0o644))
	require.NoError(t, afero.WriteFile(fs, EnvFileName, []byte("HF_LISTEN=:7000\nHF_CONTENT_DIR=/from/dotenv\nHF_CONTENT_WORKERS=8\n"), 0o644))

	t.Setenv(EnvContentDir, "/from/env")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(fs, "config.yml")
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, "/from/env", cfg.Content.Dir)
	assert.Equal(t, 8, cfg.Content.Workers)
	assert.Equal(t, LogLevelWarn, cfg.LogLevel)
}

func TestLoadBadWorkersEnv(t *testing.T) {
	t.Setenv(EnvWorkers, "many")

	_, err := Load(afero.NewMemMapFs(), "")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad listen", func(c *Config) { c.Listen = "8080" }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"empty content dir", func(c *Config) { c.Content.Dir = "" }},
		{"no workers", func(c *Config) { c.Content.Workers = 0 }},
		{"zero period", func(c *Config) { c.Countdown.Period = 0 }},
		{"zero build timeout", func(c *Config) { c.Handler.BuildTimeout = 0 }},
		{"negative shutdown timeout", func(c *Config) { c.Handler.ShutdownTimeout = -time.Second }},
		{"zero read header timeout", func(c *Config) { c.Handler.ReadHeaderTimeout = 0 }},
		{"bad time zone", func(c *Config) { c.Festival.TimeZone = "Mars/Olympus" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.SetDefaults()
			require.NoError(t, cfg.Validate())

			tc.modify(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestStartTime(t *testing.T) {
	utc := time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		start     string
		zone      string
		expected  time.Time
		expectErr bool
	}{
		{"rfc3339", "2024-10-15T12:00:00Z", "Local", utc, false},
		{"rfc3339 offset", "2024-10-15T14:00:00+02:00", "UTC", utc, false},
		{"plain in zone", "2024-10-15 12:00:00", "UTC", utc, false},
		{"long form", "October 15, 2024 12:00:00", "UTC", utc, false},
		{"garbage", "soon", "UTC", time.Time{}, true},
		{"empty", "", "UTC", time.Time{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := FestivalConfig{Start: tc.start, TimeZone: tc.zone}

			got, err := f.StartTime()
			if tc.expectErr {
				require.Error(t, err)
				require.True(t, got.IsZero())

				return
			}

			require.NoError(t, err)
			require.True(t, tc.expected.Equal(got), "expected %s, got %s", tc.expected, got)
		})
	}
}

func TestStartTimeInZone(t *testing.T) {
	f := FestivalConfig{Start: "2024-10-15 12:00:00", TimeZone: "America/New_York"}

	got, err := f.StartTime()
	require.NoError(t, err)

	// EDT is UTC-4 in October
	require.True(t, time.Date(2024, 10, 15, 16, 0, 0, 0, time.UTC).Equal(got))
}
