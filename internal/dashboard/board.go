// Package dashboard holds the rendered dashboard model and serves it over
// HTTP.
package dashboard

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rickgao/market-pulse/internal/alerts"
	"github.com/rickgao/market-pulse/internal/model"
)

// Snapshot is the full dashboard as served to clients.
type Snapshot struct {
	Market      *model.MarketSnapshot      `json:"market,omitempty"`
	Technical   *model.TechnicalIndicators `json:"technical,omitempty"`
	Performance *model.PerformanceMetrics  `json:"performance,omitempty"`
	Alerts      []alerts.Alert             `json:"alerts"`
	Error       string                     `json:"error,omitempty"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

// Board keeps the latest value of every panel. It implements all render
// sinks and never blocks beyond a short critical section.
type Board struct {
	clock clockwork.Clock

	mu          sync.RWMutex
	market      *model.MarketSnapshot
	technical   *model.TechnicalIndicators
	performance *model.PerformanceMetrics
	alerts      []alerts.Alert
	errorText   string
	updatedAt   time.Time
}

// NewBoard creates an empty Board. A nil clock uses real time.
func NewBoard(clock clockwork.Clock) *Board {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Board{clock: clock, alerts: []alerts.Alert{}}
}

func (b *Board) ShowMarket(snapshot model.MarketSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.market = &snapshot
	b.touchLocked()
}

func (b *Board) ShowTechnical(indicators model.TechnicalIndicators) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.technical = &indicators
	b.touchLocked()
}

func (b *Board) ShowPerformance(metrics model.PerformanceMetrics) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.performance = &metrics
	b.touchLocked()
}

// ShowAlerts replaces the alert list. items must be most recent first.
func (b *Board) ShowAlerts(items []alerts.Alert) {
	cp := make([]alerts.Alert, len(items))
	copy(cp, items)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = cp
	b.touchLocked()
}

func (b *Board) ShowError(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errorText = message
}

func (b *Board) ClearError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errorText = ""
}

// Snapshot returns a copy of the current dashboard.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Snapshot{
		Alerts:    make([]alerts.Alert, len(b.alerts)),
		Error:     b.errorText,
		UpdatedAt: b.updatedAt,
	}
	copy(s.Alerts, b.alerts)
	if b.market != nil {
		m := *b.market
		s.Market = &m
	}
	if b.technical != nil {
		t := *b.technical
		s.Technical = &t
	}
	if b.performance != nil {
		p := *b.performance
		s.Performance = &p
	}
	return s
}

// Reset clears every panel, typically on a symbol change.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.market = nil
	b.technical = nil
	b.performance = nil
	b.updatedAt = time.Time{}
}

func (b *Board) touchLocked() {
	b.updatedAt = b.clock.Now()
}
