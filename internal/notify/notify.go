// Package notify delivers alerts to the user outside the dashboard.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/market-pulse/internal/alerts"
)

// Notifier shows one alert to the user.
type Notifier interface {
	Notify(ctx context.Context, alert alerts.Alert) error
}

// Permission reports whether notifications may be shown.
type Permission interface {
	Granted() bool
}

// StaticPermission is a fixed grant, typically taken from configuration.
type StaticPermission bool

func (p StaticPermission) Granted() bool { return bool(p) }

// LogNotifier writes alerts to a logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the alert at a level matching its severity.
func (n *LogNotifier) Notify(ctx context.Context, alert alerts.Alert) error {
	level := slog.LevelInfo
	switch alert.Severity {
	case alerts.SeverityHigh:
		level = slog.LevelWarn
	case alerts.SeverityLow:
		level = slog.LevelDebug
	}

	n.logger.Log(ctx, level, Title(alert),
		"message", alert.Message,
		"icon", alert.Icon,
		"alert_id", alert.ID,
		"timestamp", alert.Timestamp,
	)
	return nil
}

// Title is the notification heading for an alert.
func Title(alert alerts.Alert) string {
	return "Market Alert (" + string(alert.Severity) + ")"
}

// Gate forwards alerts to a Notifier only while permission is granted.
// Delivery is fire-and-forget: each alert is sent on its own goroutine and
// failures are logged at debug level.
type Gate struct {
	notifier   Notifier
	permission Permission
	timeout    time.Duration
	logger     *slog.Logger

	wg sync.WaitGroup
}

// NewGate creates a Gate. A zero timeout means no per-notification deadline.
func NewGate(notifier Notifier, permission Permission, timeout time.Duration, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		notifier:   notifier,
		permission: permission,
		timeout:    timeout,
		logger:     logger,
	}
}

// Notify returns immediately. It reports whether the alert was handed off.
func (g *Gate) Notify(alert alerts.Alert) bool {
	if g == nil || g.notifier == nil || g.permission == nil || !g.permission.Granted() {
		return false
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		ctx := context.Background()
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		if err := g.notifier.Notify(ctx, alert); err != nil {
			g.logger.Debug("notification failed", "alert_id", alert.ID, "error", err)
		}
	}()
	return true
}

// Wait blocks until in-flight notifications finish or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
