// Package config loads the client configuration: defaults, then an optional
// YAML file, then GAVEL_* environment variable overrides, then validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pinkgavel/internal/models"
)

// Load loads configuration from file and environment variables.
func Load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile merges a YAML file over the defaults.
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment applies GAVEL_* environment variable overrides.
func loadFromEnvironment(config *models.Config) {
	// API configuration
	if base := os.Getenv("GAVEL_API_BASE_URL"); base != "" {
		config.API.BaseURL = base
	}

	if key := os.Getenv("GAVEL_API_KEY"); key != "" {
		config.API.Key = key
	}

	if timeout := os.Getenv("GAVEL_API_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.API.Timeout = d
		}
	}

	// Rate limit configuration
	if rpm := os.Getenv("GAVEL_RATE_LIMIT_RPM"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil {
			config.RateLimit.RequestsPerMinute = n
		}
	}

	if interval := os.Getenv("GAVEL_RATE_LIMIT_MIN_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.RateLimit.MinInterval = d
		}
	}

	if ceiling := os.Getenv("GAVEL_RATE_LIMIT_WAIT_CEILING"); ceiling != "" {
		if d, err := time.ParseDuration(ceiling); err == nil {
			config.RateLimit.WaitCeiling = d
		}
	}

	// Cache configuration
	if enabled := os.Getenv("GAVEL_CACHE_ENABLED"); enabled != "" {
		config.Cache.Enabled = strings.ToLower(enabled) == "true"
	}

	if ttl := os.Getenv("GAVEL_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Cache.TTL = d
		}
	}

	if sweep := os.Getenv("GAVEL_CACHE_SWEEP_INTERVAL"); sweep != "" {
		if d, err := time.ParseDuration(sweep); err == nil {
			config.Cache.SweepInterval = d
		}
	}

	// Search configuration
	if debounce := os.Getenv("GAVEL_SEARCH_DEBOUNCE"); debounce != "" {
		if d, err := time.ParseDuration(debounce); err == nil {
			config.Search.Debounce = d
		}
	}

	if size := os.Getenv("GAVEL_SEARCH_PAGE_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			config.Search.PageSize = n
		}
	}

	if size := os.Getenv("GAVEL_SEARCH_PROFILE_PAGE_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			config.Search.ProfilePageSize = n
		}
	}

	if limit := os.Getenv("GAVEL_SEARCH_FETCH_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			config.Search.FetchLimit = n
		}
	}

	// Session configuration
	if path := os.Getenv("GAVEL_SESSION_PATH"); path != "" {
		config.Session.Path = path
	}

	// Logging configuration
	if level := os.Getenv("GAVEL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("GAVEL_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("GAVEL_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("GAVEL_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("GAVEL_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("GAVEL_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("GAVEL_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Observability configuration
	if tracing := os.Getenv("GAVEL_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("GAVEL_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("GAVEL_TRACING_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}
}

// SaveExample writes an example configuration file.
func SaveExample(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()
	config.API.Key = "your-api-key-here"
	config.Logging.Format = "text"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
