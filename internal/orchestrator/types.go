package orchestrator

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rickgao/market-pulse/internal/alerts"
	"github.com/rickgao/market-pulse/internal/connection"
	"github.com/rickgao/market-pulse/internal/model"
	"github.com/rickgao/market-pulse/internal/poller"
	"github.com/rickgao/market-pulse/internal/router"
)

// Render sinks. Implementations must not block.
type (
	MarketSink interface {
		ShowMarket(snapshot model.MarketSnapshot)
	}
	TechnicalSink interface {
		ShowTechnical(indicators model.TechnicalIndicators)
	}
	PerformanceSink interface {
		ShowPerformance(metrics model.PerformanceMetrics)
	}
	// AlertSink receives the whole buffer, most recent first.
	AlertSink interface {
		ShowAlerts(items []alerts.Alert)
	}
	// ErrorSink shows and hides the transient error banner.
	ErrorSink interface {
		ShowError(message string)
		ClearError()
	}
	// ResetSink clears the panels before the first update for a new symbol.
	ResetSink interface {
		Reset()
	}
)

// Sinks are the render destinations. Nil sinks are skipped.
type Sinks struct {
	Market      MarketSink
	Technical   TechnicalSink
	Performance PerformanceSink
	Alerts      AlertSink
	Errors      ErrorSink
	Reset       ResetSink
}

// AlertNotifier delivers an alert outside the dashboard without blocking.
// *notify.Gate implements it.
type AlertNotifier interface {
	Notify(alert alerts.Alert) bool
}

// Config holds orchestrator configuration.
type Config struct {
	RefreshInterval  time.Duration // Pull interval with push enabled (default: 30s)
	FallbackInterval time.Duration // Pull interval without push (default: 60s)
	ErrorDisplay     time.Duration // How long the error banner stays up (default: 5s)
	QueueSize        int           // Inbound queue capacity (default: 256)

	Push   connection.ManagerConfig
	Poller poller.Config
	Clock  clockwork.Clock
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RefreshInterval:  30 * time.Second,
		FallbackInterval: 60 * time.Second,
		ErrorDisplay:     5 * time.Second,
		QueueSize:        256,
		Push:             connection.DefaultManagerConfig(),
		Poller:           poller.DefaultConfig(),
	}
}

// Status is a point-in-time view of the orchestrator.
type Status struct {
	Started          bool               `json:"started"`
	Symbol           string             `json:"symbol"`
	Epoch            uint64             `json:"epoch"`
	PushEnabled      bool               `json:"push_enabled"`
	Connection       string             `json:"connection"`
	ReconnectPending bool               `json:"reconnect_pending"`
	HeartbeatActive  bool               `json:"heartbeat_active"`
	RefreshInterval  time.Duration      `json:"refresh_interval"`
	Alerts           int                `json:"alerts"`
	StalePulls       int64              `json:"stale_pulls"`
	ForeignPush      int64              `json:"foreign_push"`
	DecodeErrors     int64              `json:"decode_errors"`
	Router           router.RouterStats `json:"router"`
	Poller           poller.Stats       `json:"poller"`
}

// inbound is one queued update with the epoch it was produced under.
type inbound struct {
	msg   router.Message
	epoch uint64
}
