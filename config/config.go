package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

// envPrefix namespaces every environment override.
const envPrefix = "PCAXIS_"

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Upstream UpstreamConfig `json:"upstream"`
	Engine   EngineConfig   `json:"engine"`
	Water    WaterConfig    `json:"water"`
	Datasets DatasetsConfig `json:"datasets"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout,omitempty"`
	WriteTimeout    time.Duration `json:"write_timeout,omitempty"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout,omitempty"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UpstreamConfig defines the PX-Web API connection.
type UpstreamConfig struct {
	BaseURL       string        `json:"base_url"`
	Timeout       time.Duration `json:"timeout,omitempty"`
	RetryAttempts int           `json:"retry_attempts,omitempty"`
	UserAgent     string        `json:"user_agent,omitempty"`
}

// EngineConfig tunes the flattening engine.
type EngineConfig struct {
	BaseYear        int `json:"base_year,omitempty"`
	SeriesCacheSize int `json:"series_cache_size,omitempty"`

	// MaxSeries is the default series-cardinality ceiling for datasets
	// that do not set their own.
	MaxSeries int `json:"max_series,omitempty"`
}

// WaterConfig locates the rivers/lakes reference files. Empty paths disable
// the corresponding endpoint.
type WaterConfig struct {
	RiversFile string `json:"rivers_file,omitempty"`
	LakesFile  string `json:"lakes_file,omitempty"`
}

// DatasetsConfig locates the optional dataset overlay file.
type DatasetsConfig struct {
	File string `json:"file,omitempty"`
}

// LoggingConfig defines log output.
type LoggingConfig struct {
	Level  string `json:"level,omitempty"`  // debug, info, warn, error
	Format string `json:"format,omitempty"` // json, text
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL:       "https://pc-axis.geostat.ge/PXWeb/api/v1",
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
			UserAgent:     "pcaxis-server",
		},
		Engine: EngineConfig{
			SeriesCacheSize: 128,
			MaxSeries:       256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration in layers: defaults, then the optional JSON file,
// then PCAXIS_* environment overrides, then validation. An empty path skips
// the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapFatal(errors.ErrConfigNotFound, "config", "Load", path)
			}
			return nil, errors.WrapFatal(err, "config", "Load", "read "+path)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapFatal(errors.ErrInvalidConfig, "config", "Load",
				"parse "+path+": "+err.Error())
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapFatal(err, "config", "Load", "validation")
	}
	return cfg, nil
}

// applyEnv overlays PCAXIS_* environment variables. Malformed numeric and
// duration values are ignored rather than fatal; validation catches anything
// that matters downstream.
func (c *Config) applyEnv() {
	envString(&c.Server.Host, "SERVER_HOST")
	envInt(&c.Server.Port, "SERVER_PORT")
	envDuration(&c.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	envDuration(&c.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	envDuration(&c.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")

	envString(&c.Upstream.BaseURL, "UPSTREAM_BASE_URL")
	envDuration(&c.Upstream.Timeout, "UPSTREAM_TIMEOUT")
	envInt(&c.Upstream.RetryAttempts, "UPSTREAM_RETRY_ATTEMPTS")
	envString(&c.Upstream.UserAgent, "UPSTREAM_USER_AGENT")

	envInt(&c.Engine.BaseYear, "ENGINE_BASE_YEAR")
	envInt(&c.Engine.SeriesCacheSize, "ENGINE_SERIES_CACHE_SIZE")
	envInt(&c.Engine.MaxSeries, "ENGINE_MAX_SERIES")

	envString(&c.Water.RiversFile, "WATER_RIVERS_FILE")
	envString(&c.Water.LakesFile, "WATER_LAKES_FILE")

	envString(&c.Datasets.File, "DATASETS_FILE")

	envString(&c.Logging.Level, "LOG_LEVEL")
	envString(&c.Logging.Format, "LOG_FORMAT")
}

// Validate aggregates every problem instead of stopping at the first.
func (c *Config) Validate() error {
	var errs error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		errs = multierr.Append(errs, fmt.Errorf("upstream.base_url is required"))
	} else if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		errs = multierr.Append(errs, fmt.Errorf("upstream.base_url %q must be http(s)", c.Upstream.BaseURL))
	}
	if c.Upstream.RetryAttempts < 0 {
		errs = multierr.Append(errs, fmt.Errorf("upstream.retry_attempts must not be negative"))
	}
	if c.Engine.BaseYear != 0 && (c.Engine.BaseYear <= 1900 || c.Engine.BaseYear >= 3000) {
		errs = multierr.Append(errs, fmt.Errorf("engine.base_year %d is not a plausible year", c.Engine.BaseYear))
	}
	if c.Engine.SeriesCacheSize < 0 {
		errs = multierr.Append(errs, fmt.Errorf("engine.series_cache_size must not be negative"))
	}
	if c.Engine.MaxSeries < 0 {
		errs = multierr.Append(errs, fmt.Errorf("engine.max_series must not be negative"))
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.level %q is not one of debug/info/warn/error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.format %q is not one of json/text", c.Logging.Format))
	}

	return errs
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}
	copied := *c
	return &copied
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
