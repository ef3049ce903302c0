package config

import (
	"time"

	"github.com/rickgao/market-pulse/internal/backoff"
)

// Config is the root configuration of a sync client.
type Config struct {
	Symbol  string        `yaml:"symbol"`
	API     APIConfig     `yaml:"api"`
	Push    PushConfig    `yaml:"push"`
	Refresh RefreshConfig `yaml:"refresh"`
	Alerts  AlertsConfig  `yaml:"alerts"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
	HTTP    HTTPConfig    `yaml:"http"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig holds pull endpoint settings.
type APIConfig struct {
	RestURL   string        `yaml:"rest_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // Requests per second; 0 disables limiting
	RateBurst int           `yaml:"rate_burst"`
}

// PushConfig holds push channel settings.
type PushConfig struct {
	Disabled          bool          `yaml:"disabled"` // Pull-only mode
	URL               string        `yaml:"url"`      // Derived from api.rest_url when empty
	Path              string        `yaml:"path"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	ReconnectPolicy   string        `yaml:"reconnect_policy"` // constant or exponential
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	ReconnectMaxDelay time.Duration `yaml:"reconnect_max_delay"`
	ReconnectJitter   float64       `yaml:"reconnect_jitter"`
	ReconnectAttempts int           `yaml:"reconnect_attempts"` // 0 = never give up
	DialTimeout       time.Duration `yaml:"dial_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
}

// RefreshConfig holds periodic pull settings.
type RefreshConfig struct {
	Interval         time.Duration `yaml:"interval"`
	FallbackInterval time.Duration `yaml:"fallback_interval"` // Used when push is disabled
	Timeout          time.Duration `yaml:"timeout"`           // Per attempt
	MaxAttempts      int           `yaml:"max_attempts"`
	RetryPolicy      string        `yaml:"retry_policy"` // constant or exponential
	RetryDelay       time.Duration `yaml:"retry_delay"`
	RetryMaxDelay    time.Duration `yaml:"retry_max_delay"`
}

// AlertsConfig holds alert notification settings.
type AlertsConfig struct {
	Notifications bool          `yaml:"notifications"`
	NotifyTimeout time.Duration `yaml:"notify_timeout"`
}

// UIConfig holds dashboard behaviour settings.
type UIConfig struct {
	ErrorDisplay time.Duration `yaml:"error_display"`
	QueueSize    int           `yaml:"queue_size"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // Rotated log file; empty logs to stderr only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// HTTPConfig holds the dashboard server settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Policy returns the reconnect backoff policy.
func (p PushConfig) Policy() backoff.Policy {
	return backoff.Parse(p.ReconnectPolicy, p.ReconnectDelay, p.ReconnectMaxDelay, p.ReconnectJitter)
}

// Policy returns the delay policy between pull attempts.
func (r RefreshConfig) Policy() backoff.Policy {
	return backoff.Parse(r.RetryPolicy, r.RetryDelay, r.RetryMaxDelay, 0)
}
