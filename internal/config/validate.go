package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return errors.New("symbol is required")
	}

	if err := validateURL("api.rest_url", c.API.RestURL, "http", "https"); err != nil {
		return err
	}
	if c.API.RateLimit < 0 {
		return errors.New("api.rate_limit must be >= 0")
	}

	if !c.Push.Disabled {
		if c.Push.URL != "" {
			if err := validateURL("push.url", c.Push.URL, "ws", "wss"); err != nil {
				return err
			}
		}
		if err := validatePolicy("push.reconnect_policy", c.Push.ReconnectPolicy); err != nil {
			return err
		}
		if err := positive("push.heartbeat_interval", c.Push.HeartbeatInterval); err != nil {
			return err
		}
		if err := positive("push.reconnect_delay", c.Push.ReconnectDelay); err != nil {
			return err
		}
		if c.Push.ReconnectJitter < 0 || c.Push.ReconnectJitter >= 1 {
			return fmt.Errorf("push.reconnect_jitter must be in [0, 1), got %v", c.Push.ReconnectJitter)
		}
		if c.Push.ReconnectAttempts < 0 {
			return errors.New("push.reconnect_attempts must be >= 0")
		}
	}

	if err := positive("refresh.interval", c.Refresh.Interval); err != nil {
		return err
	}
	if err := positive("refresh.fallback_interval", c.Refresh.FallbackInterval); err != nil {
		return err
	}
	if c.Refresh.MaxAttempts < 1 {
		return errors.New("refresh.max_attempts must be >= 1")
	}
	if err := validatePolicy("refresh.retry_policy", c.Refresh.RetryPolicy); err != nil {
		return err
	}
	if c.Refresh.RetryDelay < 0 {
		return errors.New("refresh.retry_delay must be >= 0")
	}

	if err := positive("ui.error_display", c.UI.ErrorDisplay); err != nil {
		return err
	}
	if c.UI.QueueSize < 1 {
		return errors.New("ui.queue_size must be >= 1")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return fmt.Errorf("%s must include a host", field)
			}
			return nil
		}
	}
	return fmt.Errorf("%s must use %s, got %q", field, strings.Join(schemes, " or "), u.Scheme)
}

func validatePolicy(field, kind string) error {
	switch kind {
	case "constant", "exponential":
		return nil
	}
	return fmt.Errorf("%s must be constant or exponential, got %q", field, kind)
}

func positive(field string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be > 0", field)
	}
	return nil
}
