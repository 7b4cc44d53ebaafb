// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file and EVENTOPS_* env vars.
// - Validation failures wrap ErrInvalidConfig; I/O and parse failures wrap ErrLoadConfig.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DefaultEventID scopes bulk fetches that do not name an event.
	DefaultEventID string `koanf:"default_event_id"`

	// SeedMockData makes bulk fetches load the built-in demo dataset.
	SeedMockData bool `koanf:"seed_mock_data"`

	// SimulatedLatencyMS delays every repository call, emulating a remote backend.
	SimulatedLatencyMS int `koanf:"simulated_latency_ms"`

	// NotificationQueueSize bounds the in-memory notification queue.
	NotificationQueueSize int `koanf:"notification_queue_size"`

	// NotificationWorkers sets the number of delivery workers.
	NotificationWorkers int `koanf:"notification_workers"`

	// NotificationFeedSize caps the notifications kept for GET /notifications.
	NotificationFeedSize int `koanf:"notification_feed_size"`

	// IdempotencyCacheSize bounds the remembered Idempotency-Key values.
	IdempotencyCacheSize int `koanf:"idempotency_cache_size"`

	// MaxListLimit caps list endpoints that accept ?limit.
	MaxListLimit int `koanf:"max_list_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DefaultEventID:        "event-1",
		SeedMockData:          true,
		SimulatedLatencyMS:    0,
		NotificationQueueSize: 1_024,
		NotificationWorkers:   2,
		NotificationFeedSize:  200,
		IdempotencyCacheSize:  10_000,
		MaxListLimit:          500,
	}
}

// SimulatedLatency returns SimulatedLatencyMS as a duration.
func (c *Config) SimulatedLatency() time.Duration {
	return time.Duration(c.SimulatedLatencyMS) * time.Millisecond
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.SimulatedLatencyMS < 0:
		return fmt.Errorf("%w: simulated_latency_ms must be >= 0", ErrInvalidConfig)
	case c.NotificationQueueSize < 1:
		return fmt.Errorf("%w: notification_queue_size must be >= 1", ErrInvalidConfig)
	case c.NotificationWorkers < 1:
		return fmt.Errorf("%w: notification_workers must be >= 1", ErrInvalidConfig)
	case c.NotificationFeedSize < 1:
		return fmt.Errorf("%w: notification_feed_size must be >= 1", ErrInvalidConfig)
	case c.MaxListLimit < 1:
		return fmt.Errorf("%w: max_list_limit must be >= 1", ErrInvalidConfig)
	}
	return nil
}
