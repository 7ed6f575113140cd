// Package models - client configuration.
//
// Configuration is hierarchical with one section per component: the remote
// API connection, the request governor (rate limiting + caching), the search
// pipeline, the local session store, logging, and observability. Defaults
// work out of the box against the public auction API; everything can be
// overridden from a YAML file or GAVEL_* environment variables.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Theme preference values persisted in the session store.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Config is the root configuration for the pinkgavel client.
type Config struct {
	API           APIConfig           `yaml:"api" json:"api"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit" json:"rate_limit"`
	Cache         CacheConfig         `yaml:"cache" json:"cache"`
	Search        SearchConfig        `yaml:"search" json:"search"`
	Session       SessionConfig       `yaml:"session" json:"session"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// APIConfig describes the remote auction API connection.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Key     string        `yaml:"key" json:"key"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig governs outbound request pacing. RequestsPerMinute bounds a
// sliding one-minute window; MinInterval is the spacing floor between
// consecutive attempts; WaitCeiling is the hard bound after which a waiting
// caller proceeds regardless (fail-open).
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MinInterval       time.Duration `yaml:"min_interval" json:"min_interval"`
	WaitCeiling       time.Duration `yaml:"wait_ceiling" json:"wait_ceiling"`
}

// CacheConfig controls the response cache shared wiring. Each component still
// owns its own cache instance; this only sets their TTL and the background
// sweep cadence used by long-running modes.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	TTL           time.Duration `yaml:"ttl" json:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

// SearchConfig controls the debounced search pipeline and pagination sizes.
type SearchConfig struct {
	Debounce        time.Duration `yaml:"debounce" json:"debounce"`
	PageSize        int           `yaml:"page_size" json:"page_size"`
	ProfilePageSize int           `yaml:"profile_page_size" json:"profile_page_size"`
	FetchLimit      int           `yaml:"fetch_limit" json:"fetch_limit"`
	SuggestLimit    int           `yaml:"suggest_limit" json:"suggest_limit"`
}

// SessionConfig locates the local session database (token, theme, profile).
type SessionConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// MetricsConfig controls the Prometheus metrics endpoint served in watch mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

// ObservabilityConfig controls OpenTelemetry tracing.
type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

// TracingConfig selects the trace exporter and sampling rate.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig returns a configuration that works against the public
// auction API without further setup.
//
// Default rationale:
// - 60 requests/minute with 100ms spacing matches the API's documented limits.
// - 30s wait ceiling keeps the limiter fail-open rather than deadlocking callers.
// - 5 minute response TTL avoids refetching identical requests while browsing.
// - 500ms debounce collapses search-as-you-type into one call per pause.
// - Page size 12 for the listings grid, 4 for profile sub-sections.
func NewDefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://v2.api.noroff.dev",
			Timeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			MinInterval:       100 * time.Millisecond,
			WaitCeiling:       30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           5 * time.Minute,
			SweepInterval: 10 * time.Minute,
		},
		Search: SearchConfig{
			Debounce:        500 * time.Millisecond,
			PageSize:        12,
			ProfilePageSize: 4,
			FetchLimit:      100,
			SuggestLimit:    5,
		},
		Session: SessionConfig{
			Path: "./data/session.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "pinkgavel",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("invalid api config: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("invalid rate limit config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("invalid cache config: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("invalid search config: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("invalid session config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}
	return nil
}

func (ac *APIConfig) Validate() error {
	if ac.BaseURL == "" {
		return errors.New("base URL cannot be empty")
	}
	if ac.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	return nil
}

func (rc *RateLimitConfig) Validate() error {
	if rc.RequestsPerMinute <= 0 {
		return errors.New("requests per minute must be positive")
	}
	if rc.MinInterval <= 0 {
		return errors.New("min interval must be positive")
	}
	if rc.WaitCeiling <= 0 {
		return errors.New("wait ceiling must be positive")
	}
	if rc.WaitCeiling < rc.MinInterval {
		return errors.New("wait ceiling must be at least the min interval")
	}
	return nil
}

func (cc *CacheConfig) Validate() error {
	if !cc.Enabled {
		return nil
	}
	if cc.TTL <= 0 {
		return errors.New("cache TTL must be positive")
	}
	if cc.SweepInterval < 0 {
		return errors.New("sweep interval cannot be negative")
	}
	return nil
}

func (sc *SearchConfig) Validate() error {
	if sc.Debounce < 0 {
		return errors.New("debounce cannot be negative")
	}
	if sc.PageSize <= 0 {
		return errors.New("page size must be positive")
	}
	if sc.ProfilePageSize <= 0 {
		return errors.New("profile page size must be positive")
	}
	if sc.FetchLimit <= 0 {
		return errors.New("fetch limit must be positive")
	}
	if sc.SuggestLimit <= 0 {
		return errors.New("suggest limit must be positive")
	}
	return nil
}

func (sc *SessionConfig) Validate() error {
	if sc.Path == "" {
		return errors.New("session path cannot be empty")
	}
	return nil
}

func (lc *LoggingConfig) Validate() error {
	switch lc.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	switch lc.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	switch lc.Output {
	case "stdout", "stderr", "file":
	default:
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}
	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}
	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}
	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}
	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if oc.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}
	if oc.Tracing.Enabled {
		switch oc.Tracing.Exporter {
		case "stdout", "otlp":
		default:
			return fmt.Errorf("invalid trace exporter: %s", oc.Tracing.Exporter)
		}
		if oc.Tracing.Exporter == "otlp" && oc.Tracing.OTLPEndpoint == "" {
			return errors.New("OTLP endpoint is required for the otlp exporter")
		}
		if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
			return errors.New("sample rate must be between 0 and 1")
		}
	}
	return nil
}
