// Package config loads the daemon configuration from a YAML (or JSON) file.
// YAML is coerced to JSON so both formats go through the same strict decoder
// (DisallowUnknownFields catches typos and removed keys early).
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"otakufeed/internal/feed"
	"otakufeed/internal/outbound"
)

type Config struct {
	Feed    FeedConfig    `json:"feed"`
	Logging LoggingConfig `json:"logging"`
	Storage StorageConfig `json:"storage"`
	Stats   StatsConfig   `json:"stats,omitempty"`
}

// FeedConfig controls the upstream connection and the pipeline.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type FeedConfig struct {
	Endpoint string `json:"endpoint"`

	// DialTimeout bounds one connection attempt. "0s" disables it.
	DialTimeout string `json:"dial_timeout,omitempty"`

	// QueueSize is the outbound queue capacity (default 16).
	QueueSize int `json:"queue_size,omitempty"`

	// BackoffBase/BackoffMax shape the reconnect backoff (defaults
	// 125ms/30s); Cooldown is the fixed wait after a stream ends (default 5s).
	BackoffBase string `json:"backoff_base,omitempty"`
	BackoffMax  string `json:"backoff_max,omitempty"`
	Cooldown    string `json:"cooldown,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

// StatsConfig controls the periodic pipeline-stats report.
type StatsConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a cron spec (default "0 * * * *", hourly).
	Schedule string `json:"schedule,omitempty"`
}

// Load reads, decodes, and validates the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	jsonBytes, format, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s config: %w", format, err)
	}

	dec := json.NewDecoder(bytes.NewReader(jsonBytes))
	dec.DisallowUnknownFields()
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and that every duration string parses.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Feed.Endpoint) == "" {
		return errors.New("feed.endpoint is required")
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage.path is required")
	}
	if c.Feed.QueueSize < 0 {
		return errors.New("feed.queue_size must be >= 0")
	}

	for _, f := range []struct{ path, raw string }{
		{"feed.dial_timeout", c.Feed.DialTimeout},
		{"feed.backoff_base", c.Feed.BackoffBase},
		{"feed.backoff_max", c.Feed.BackoffMax},
		{"feed.cooldown", c.Feed.Cooldown},
		{"storage.busy_timeout", c.Storage.BusyTimeout},
	} {
		if _, err := ParseDurationField(f.path, f.raw); err != nil {
			return err
		}
	}
	return nil
}

// DialTimeout returns the parsed dial timeout (default 30s).
func (c FeedConfig) DialTimeoutValue() time.Duration {
	d, _ := ParseDurationOrDefault("feed.dial_timeout", c.DialTimeout, 30*time.Second)
	return d
}

// QueueCapacity returns the outbound queue capacity with the default applied.
func (c FeedConfig) QueueCapacity() int {
	if c.QueueSize > 0 {
		return c.QueueSize
	}
	return outbound.DefaultCapacity
}

// SupervisorConfig maps the duration strings onto the feed supervisor.
func (c FeedConfig) SupervisorConfig() feed.Config {
	base, _ := ParseDurationOrDefault("feed.backoff_base", c.BackoffBase, feed.DefaultBackoffBase)
	max, _ := ParseDurationOrDefault("feed.backoff_max", c.BackoffMax, feed.DefaultBackoffMax)
	cooldown, _ := ParseDurationOrDefault("feed.cooldown", c.Cooldown, feed.DefaultCooldown)
	return feed.Config{BackoffBase: base, BackoffMax: max, Cooldown: cooldown}
}

// BusyTimeoutValue returns the parsed sqlite busy timeout (default 5s).
func (c StorageConfig) BusyTimeoutValue() time.Duration {
	d, _ := ParseDurationOrDefault("storage.busy_timeout", c.BusyTimeout, 5*time.Second)
	return d
}

// CronSchedule returns the stats cron spec with the default applied.
func (c StatsConfig) CronSchedule() string {
	if s := strings.TrimSpace(c.Schedule); s != "" {
		return s
	}
	return "0 * * * *"
}
