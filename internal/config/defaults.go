package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultSymbol            = "BTCUSDT"
	DefaultRestURL           = "http://localhost:8000"
	DefaultAPITimeout        = 30 * time.Second
	DefaultRateBurst         = 1
	DefaultPushPath          = "/ws"
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultReconnectPolicy   = "constant"
	DefaultReconnectDelay    = 5 * time.Second
	DefaultReconnectMaxDelay = 60 * time.Second
	DefaultDialTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultRefreshInterval   = 30 * time.Second
	DefaultFallbackInterval  = 60 * time.Second
	DefaultRefreshTimeout    = 10 * time.Second
	DefaultMaxAttempts       = 3
	DefaultRetryPolicy       = "constant"
	DefaultRetryDelay        = 1 * time.Second
	DefaultRetryMaxDelay     = 10 * time.Second
	DefaultNotifyTimeout     = 5 * time.Second
	DefaultErrorDisplay      = 5 * time.Second
	DefaultQueueSize         = 256
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultLogMaxSizeMB      = 100
	DefaultLogMaxBackups     = 3
	DefaultLogMaxAgeDays     = 28
	DefaultHTTPAddr          = ":8080"
	DefaultMetricsPath       = "/metrics"
)

func (c *Config) applyDefaults() {
	if c.Symbol == "" {
		c.Symbol = DefaultSymbol
	}

	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.RateBurst == 0 {
		c.API.RateBurst = DefaultRateBurst
	}

	// Push defaults
	if c.Push.Path == "" {
		c.Push.Path = DefaultPushPath
	}
	if c.Push.HeartbeatInterval == 0 {
		c.Push.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Push.ReconnectPolicy == "" {
		c.Push.ReconnectPolicy = DefaultReconnectPolicy
	}
	if c.Push.ReconnectDelay == 0 {
		c.Push.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Push.ReconnectMaxDelay == 0 {
		c.Push.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Push.DialTimeout == 0 {
		c.Push.DialTimeout = DefaultDialTimeout
	}
	if c.Push.WriteTimeout == 0 {
		c.Push.WriteTimeout = DefaultWriteTimeout
	}

	// Refresh defaults
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = DefaultRefreshInterval
	}
	if c.Refresh.FallbackInterval == 0 {
		c.Refresh.FallbackInterval = DefaultFallbackInterval
	}
	if c.Refresh.Timeout == 0 {
		c.Refresh.Timeout = DefaultRefreshTimeout
	}
	if c.Refresh.MaxAttempts == 0 {
		c.Refresh.MaxAttempts = DefaultMaxAttempts
	}
	if c.Refresh.RetryPolicy == "" {
		c.Refresh.RetryPolicy = DefaultRetryPolicy
	}
	if c.Refresh.RetryDelay == 0 {
		c.Refresh.RetryDelay = DefaultRetryDelay
	}
	if c.Refresh.RetryMaxDelay == 0 {
		c.Refresh.RetryMaxDelay = DefaultRetryMaxDelay
	}

	// Alerts and UI defaults
	if c.Alerts.NotifyTimeout == 0 {
		c.Alerts.NotifyTimeout = DefaultNotifyTimeout
	}
	if c.UI.ErrorDisplay == 0 {
		c.UI.ErrorDisplay = DefaultErrorDisplay
	}
	if c.UI.QueueSize == 0 {
		c.UI.QueueSize = DefaultQueueSize
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}

	// HTTP and metrics defaults
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
