package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	LogFormatText = "text"
	LogFormatJSON = "json"

	EnvFileName = ".env"

	EnvListen        = "HF_LISTEN"
	EnvURL           = "HF_URL"
	EnvRedisURL      = "HF_REDIS_URL"
	EnvLogLevel      = "HF_LOG_LEVEL"
	EnvFestivalStart = "HF_FESTIVAL_START"
	EnvContentDir    = "HF_CONTENT_DIR"
	EnvWorkers       = "HF_CONTENT_WORKERS"
)

// Layouts accepted for the festival start, tried in order.
var startLayouts = []string{
	"2006-01-02 15:04:05",
	"January 2, 2006 15:04:05",
	"2006-01-02T15:04:05",
}

type FestivalConfig struct {
	Name       string `yaml:"name"`
	Tagline    string `yaml:"tagline"`
	Start      string `yaml:"start"`
	TimeZone   string `yaml:"time_zone"`
	Dates      string `yaml:"dates"`
	Venue      string `yaml:"venue"`
	TicketsURL string `yaml:"tickets_url"`
	About      string `yaml:"about"`
	Email      string `yaml:"email"`
	Phone      string `yaml:"phone"`
	Address    string `yaml:"address"`
}

type ContentConfig struct {
	Dir              string   `yaml:"dir"`
	Workers          int      `yaml:"workers"`
	TemplateFileName string   `yaml:"template_filename"`
	SkipFiles        []string `yaml:"skip_files"`
}

type CountdownConfig struct {
	Period time.Duration `yaml:"period"`
}

type HandlerConfig struct {
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	BuildTimeout      time.Duration `yaml:"build_timeout"`
}

// FSAdapterConfig is the part of the config the content adapter needs.
type FSAdapterConfig struct {
	URL              string
	Dir              string
	TemplateFileName string
	SkipFiles        []string
	Festival         FestivalConfig
}

type Config struct {
	URL          string          `yaml:"url"`
	Listen       string          `yaml:"listen"`
	RedisURL     string          `yaml:"redis_url"`
	LogLevel     string          `yaml:"log_level"`
	LogFormat    string          `yaml:"log_format"`
	DumpFileName string          `yaml:"dump_filename"`
	Festival     FestivalConfig  `yaml:"festival"`
	Content      ContentConfig   `yaml:"content"`
	Countdown    CountdownConfig `yaml:"countdown"`
	Handler      HandlerConfig   `yaml:"handler"`
}

func (c *Config) FSAdapterConfig() *FSAdapterConfig {
	return &FSAdapterConfig{
		URL:              c.URL,
		Dir:              c.Content.Dir,
		TemplateFileName: c.Content.TemplateFileName,
		SkipFiles:        c.Content.SkipFiles,
		Festival:         c.Festival,
	}
}

func (c *Config) SetDefaults() {
	c.URL = "http://localhost:8080"
	c.Listen = ":8080"
	c.RedisURL = "redis://localhost:6379/0"
	c.LogLevel = LogLevelInfo
	c.LogFormat = LogFormatText
	c.DumpFileName = "subscribers.yml"

	c.Festival = FestivalConfig{
		Name:       "HarmonyFest 2024",
		Tagline:    "Experience the ultimate fusion of music, art, and culture",
		Start:      "2024-10-15 12:00:00",
		TimeZone:   "Local",
		Dates:      "October 15-17, 2024",
		Venue:      "Central Park, New York",
		TicketsURL: "#tickets",
		About:      "Celebrating music, art, and community since 2010. Join us for an unforgettable experience.",
		Email:      "info@harmonyfest.com",
		Phone:      "+1 (555) 123-4567",
		Address:    "123 Festival Way, New York, NY 10001",
	}

	c.Content = ContentConfig{
		Dir:              "content",
		Workers:          4,
		TemplateFileName: "page.html",
	}

	c.Countdown.Period = time.Second

	c.Handler = HandlerConfig{
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		BuildTimeout:      30 * time.Second,
	}
}

// Load reads the yaml file at path over the defaults, then applies HF_*
// overrides from the process environment and from a .env file next to the
// working directory. Process variables win over .env ones.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	dotEnv, err := readEnvFile(fs, EnvFileName)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}

		v, ok := dotEnv[key]

		return v, ok
	}); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func MustLoad(path string) *Config {
	cfg, err := Load(afero.NewOsFs(), path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func readEnvFile(fs afero.Fs, fileName string) (map[string]string, error) {
	data, err := afero.ReadFile(fs, fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}

		return nil, fmt.Errorf("cannot read %s: %w", fileName, err)
	}

	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", fileName, err)
	}

	return env, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strVars := map[string]*string{
		EnvListen:        &c.Listen,
		EnvURL:           &c.URL,
		EnvRedisURL:      &c.RedisURL,
		EnvLogLevel:      &c.LogLevel,
		EnvFestivalStart: &c.Festival.Start,
		EnvContentDir:    &c.Content.Dir,
	}

	for key, dst := range strVars {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("cannot parse %s: %w", EnvWorkers, err)
		}

		c.Content.Workers = n
	}

	return nil
}

func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("listen address %q: %w", c.Listen, err)
	}

	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	if c.Content.Dir == "" {
		return fmt.Errorf("content dir must be set")
	}

	if c.Content.Workers < 1 {
		return fmt.Errorf("content workers must be positive, got %d", c.Content.Workers)
	}

	if c.Countdown.Period <= 0 {
		return fmt.Errorf("countdown period must be positive, got %s", c.Countdown.Period)
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"read header timeout", c.Handler.ReadHeaderTimeout},
		{"shutdown timeout", c.Handler.ShutdownTimeout},
		{"build timeout", c.Handler.BuildTimeout},
	}

	for _, t := range timeouts {
		if t.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", t.name, t.d)
		}
	}

	if _, err := time.LoadLocation(c.Festival.TimeZone); err != nil {
		return fmt.Errorf("time zone %q: %w", c.Festival.TimeZone, err)
	}

	return nil
}

// StartTime parses the festival start in the configured time zone. RFC3339
// values carry their own offset.
func (f *FestivalConfig) StartTime() (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, f.Start); err == nil {
		return t, nil
	}

	loc, err := time.LoadLocation(f.TimeZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot load time zone %q: %w", f.TimeZone, err)
	}

	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, f.Start, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse festival start %q", f.Start)
}
