package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rickgao/market-pulse/internal/alerts"
	"github.com/rickgao/market-pulse/internal/api"
	"github.com/rickgao/market-pulse/internal/connection"
	"github.com/rickgao/market-pulse/internal/metrics"
	"github.com/rickgao/market-pulse/internal/model"
	"github.com/rickgao/market-pulse/internal/poller"
	"github.com/rickgao/market-pulse/internal/router"
	"github.com/rickgao/market-pulse/internal/schedule"
)

// ErrSymbolRequired is returned by Start when no symbol is given.
var ErrSymbolRequired = errors.New("symbol required")

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Transport connection.Transport // nil disables the push channel
	Fetcher   poller.Fetcher
	Sinks     Sinks
	Notifier  AlertNotifier
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Orchestrator merges the push and pull paths into one ordered stream of
// dashboard updates.
type Orchestrator struct {
	cfg      Config
	logger   *slog.Logger
	clock    clockwork.Clock
	metrics  *metrics.Metrics
	sinks    Sinks
	notifier AlertNotifier

	manager *connection.Manager
	poller  *poller.Poller
	router  *router.Router
	alerts  *alerts.Buffer

	queue  chan inbound
	banner schedule.Slot

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
	symbol  string
	epoch   uint64

	// Owned by the dispatch goroutine: the epoch the panels were last
	// rendered for.
	shownEpoch uint64

	stalePulls   atomic.Int64
	foreignPush  atomic.Int64
	decodeErrors atomic.Int64
}

// New creates an Orchestrator. Nothing runs until Start.
func New(cfg Config, deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	defaults := DefaultConfig()
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaults.RefreshInterval
	}
	if cfg.FallbackInterval <= 0 {
		cfg.FallbackInterval = defaults.FallbackInterval
	}
	if cfg.ErrorDisplay <= 0 {
		cfg.ErrorDisplay = defaults.ErrorDisplay
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.Poller.Timeout <= 0 {
		cfg.Poller.Timeout = defaults.Poller.Timeout
	}
	if cfg.Poller.Retry.MaxAttempts <= 0 {
		cfg.Poller.Retry.MaxAttempts = defaults.Poller.Retry.MaxAttempts
	}
	if cfg.Poller.Retry.Delay == nil {
		cfg.Poller.Retry.Delay = defaults.Poller.Retry.Delay
	}

	o := &Orchestrator{
		cfg:      cfg,
		logger:   logger,
		clock:    cfg.Clock,
		metrics:  deps.Metrics,
		sinks:    deps.Sinks,
		notifier: deps.Notifier,
		alerts:   alerts.NewBuffer(),
		queue:    make(chan inbound, cfg.QueueSize),
	}

	o.router = router.NewRouter(router.Handlers{
		Market:       o.onMarket,
		Technical:    o.onTechnical,
		Performance:  o.onPerformance,
		Alert:        o.onAlert,
		HeartbeatAck: o.onHeartbeatAck,
	}, logger.With("component", "router"))

	if deps.Transport != nil {
		pushCfg := cfg.Push
		pushCfg.Clock = cfg.Clock
		o.manager = connection.NewManager(pushCfg, deps.Transport, connection.Hooks{
			OnMessage:     o.onPushFrame,
			OnOpen:        o.onPushOpen,
			OnStateChange: o.onPushStateChange,
			OnHeartbeat:   o.metrics.Heartbeat,
			OnReconnectScheduled: func(int, time.Duration) {
				o.metrics.ReconnectScheduled()
			},
			OnGiveUp: o.onPushGiveUp,
		}, logger.With("component", "push"))
	}

	pollCfg := cfg.Poller
	pollCfg.Clock = cfg.Clock
	pollCfg.Retry.Clock = cfg.Clock
	pollCfg.Interval = o.refreshInterval()
	pollCfg.Observe = func(category model.Category, elapsed time.Duration, err error) {
		o.metrics.ObservePull(string(category), elapsed, err)
	}
	o.poller = poller.New(pollCfg, deps.Fetcher, o.target, pullHandler{o}, logger.With("component", "poller"))

	return o
}

// Start opens the push channel, starts the pull loop (which pulls
// immediately) and starts dispatching. Only the first call has any effect;
// later calls return nil.
func (o *Orchestrator) Start(ctx context.Context, symbol string) error {
	symbol = model.NormalizeSymbol(symbol)

	o.mu.Lock()
	if o.started || o.closed {
		o.mu.Unlock()
		return nil
	}
	if symbol == "" {
		symbol = o.symbol
	}
	if symbol == "" {
		o.mu.Unlock()
		return ErrSymbolRequired
	}
	o.started = true
	if symbol != o.symbol {
		o.symbol = symbol
		o.epoch++
	}
	o.shownEpoch = o.epoch
	o.ctx, o.cancel = context.WithCancel(ctx)
	o.mu.Unlock()

	o.wg.Add(1)
	go o.dispatchLoop()

	if o.manager != nil {
		o.manager.Connect()
	}

	if err := o.poller.Start(o.ctx); err != nil {
		return fmt.Errorf("start poller: %w", err)
	}

	o.logger.Info("sync started",
		"symbol", symbol,
		"push", o.manager != nil,
		"refresh_interval", o.refreshInterval(),
	)
	return nil
}

// SetSymbol switches the active symbol. Empty or unchanged symbols are
// ignored. It reports whether the symbol changed.
func (o *Orchestrator) SetSymbol(symbol string) bool {
	symbol = model.NormalizeSymbol(symbol)

	o.mu.Lock()
	if symbol == "" || symbol == o.symbol || o.closed {
		o.mu.Unlock()
		return false
	}
	prev := o.symbol
	o.symbol = symbol
	o.epoch++
	epoch := o.epoch
	started := o.started
	o.mu.Unlock()

	o.logger.Info("symbol changed", "from", prev, "to", symbol, "epoch", epoch)

	if started {
		o.subscribe(symbol)
		o.poller.Trigger()
	}
	return true
}

// Symbol returns the active symbol.
func (o *Orchestrator) Symbol() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.symbol
}

// OnError shows err on the error banner and schedules the banner to clear.
// A new error restarts the countdown. It never stops the pull loop.
func (o *Orchestrator) OnError(err error) {
	if err == nil {
		return
	}

	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return
	}

	o.logger.Warn("sync error", "error", err)
	o.metrics.ErrorShown()

	sink := o.sinks.Errors
	if sink == nil {
		return
	}
	o.banner.Stop()
	sink.ShowError(err.Error())
	o.banner.Set(schedule.After(o.clock, o.cfg.ErrorDisplay, sink.ClearError))
}

// Alerts returns the buffered alerts, most recent first.
func (o *Orchestrator) Alerts() []alerts.Alert {
	return o.alerts.Snapshot()
}

// Status returns a point-in-time view.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	s := Status{
		Started: o.started,
		Symbol:  o.symbol,
		Epoch:   o.epoch,
	}
	o.mu.Unlock()

	s.PushEnabled = o.manager != nil
	s.Connection = "disabled"
	if o.manager != nil {
		s.Connection = o.manager.State().String()
		s.ReconnectPending = o.manager.ReconnectPending()
		s.HeartbeatActive = o.manager.HeartbeatActive()
	}
	s.RefreshInterval = o.refreshInterval()
	s.Alerts = o.alerts.Len()
	s.StalePulls = o.stalePulls.Load()
	s.ForeignPush = o.foreignPush.Load()
	s.DecodeErrors = o.decodeErrors.Load()
	s.Router = o.router.Stats()
	s.Poller = o.poller.Stats()
	return s
}

// Shutdown stops the push channel, the pull loop, the banner timer and the
// dispatch loop. It is safe to call more than once.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	started := o.started
	o.mu.Unlock()

	o.logger.Info("stopping sync")

	// Unblocks producers waiting on a full queue.
	if o.cancel != nil {
		o.cancel()
	}

	var errs []error
	if o.manager != nil {
		if err := o.manager.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop push channel: %w", err))
		}
	}
	if started {
		if err := o.poller.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop poller: %w", err))
		}
	}
	o.banner.Stop()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	o.logger.Info("sync stopped")
	return nil
}

func (o *Orchestrator) refreshInterval() time.Duration {
	if o.manager == nil {
		return o.cfg.FallbackInterval
	}
	return o.cfg.RefreshInterval
}

// target is the poller's view of the active symbol.
func (o *Orchestrator) target() poller.Target {
	o.mu.Lock()
	defer o.mu.Unlock()
	return poller.Target{Symbol: o.symbol, Epoch: o.epoch}
}

func (o *Orchestrator) current() (string, uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.symbol, o.epoch
}

// subscribe asks the push channel for symbol. When the channel is down the
// next OnOpen subscribes instead.
func (o *Orchestrator) subscribe(symbol string) {
	if o.manager == nil {
		return
	}
	err := o.manager.Send(connection.FrameSubscribe, connection.SubscribeData{Symbol: symbol})
	if err != nil && !errors.Is(err, connection.ErrNotConnected) {
		o.logger.Debug("subscribe failed", "symbol", symbol, "error", err)
	}
}

// enqueue blocks until the update is queued or the orchestrator stops.
func (o *Orchestrator) enqueue(item inbound) {
	select {
	case o.queue <- item:
	case <-o.ctx.Done():
	}
}

// dispatchLoop is the single consumer of the inbound queue.
func (o *Orchestrator) dispatchLoop() {
	defer o.wg.Done()

	for {
		select {
		case <-o.ctx.Done():
			return
		case item := <-o.queue:
			o.deliver(item)
		}
	}
}

// deliver applies the staleness guards and dispatches one update.
func (o *Orchestrator) deliver(item inbound) {
	symbol, epoch := o.current()
	source := sourceOf(item.msg)

	if source == router.SourcePull && item.epoch != epoch {
		o.stalePulls.Add(1)
		o.metrics.Discarded("stale")
		o.logger.Debug("discarding stale pull",
			"tag", item.msg.Tag(),
			"epoch", item.epoch,
			"current_epoch", epoch,
		)
		return
	}

	// Pulls are bound to their request by epoch; only pushes carry
	// someone else's symbol.
	if s := router.SymbolOf(item.msg); source == router.SourcePush && s != "" && s != symbol {
		o.foreignPush.Add(1)
		o.metrics.Discarded("foreign_symbol")
		o.logger.Debug("discarding update for inactive symbol",
			"tag", item.msg.Tag(),
			"symbol", s,
			"active", symbol,
		)
		return
	}

	if epoch != o.shownEpoch {
		o.shownEpoch = epoch
		if o.sinks.Reset != nil {
			o.sinks.Reset.Reset()
		}
	}

	o.router.Dispatch(item.msg)
	if source != "" {
		o.metrics.MessageRouted(string(source), string(item.msg.Tag()))
	}
}

// Push path

func (o *Orchestrator) onPushFrame(data []byte, receivedAt time.Time) {
	msg, err := o.router.Decode(data, receivedAt)
	if err != nil {
		o.decodeErrors.Add(1)
		o.metrics.DecodeError()
		o.logger.Warn("dropping malformed push frame", "error", err, "size", len(data))
		return
	}

	_, epoch := o.current()
	o.enqueue(inbound{msg: msg, epoch: epoch})
}

func (o *Orchestrator) onPushOpen() {
	symbol, _ := o.current()
	o.subscribe(symbol)
}

func (o *Orchestrator) onPushStateChange(from, to connection.State) {
	o.metrics.SetConnectionState(int(to))
	o.logger.Debug("push state", "from", from, "to", to)
}

func (o *Orchestrator) onPushGiveUp(attempts int) {
	o.metrics.ReconnectGaveUp()
	o.OnError(fmt.Errorf("live updates unavailable after %d reconnect attempts", attempts))
}

// Pull path

// pullHandler adapts the poller's results to the inbound queue.
type pullHandler struct {
	o *Orchestrator
}

func (h pullHandler) HandleResult(target poller.Target, category model.Category, payload any) {
	msg, ok := pullMessage(category, payload, h.o.clock.Now())
	if !ok {
		h.o.logger.Warn("unexpected pull payload", "category", category, "type", fmt.Sprintf("%T", payload))
		return
	}
	h.o.enqueue(inbound{msg: msg, epoch: target.Epoch})
}

func (h pullHandler) HandleError(target poller.Target, category model.Category, err error) {
	if _, epoch := h.o.current(); target.Epoch != epoch {
		h.o.stalePulls.Add(1)
		h.o.metrics.Discarded("stale")
		return
	}

	h.o.logger.Debug("refresh failed",
		"category", category,
		"symbol", target.Symbol,
		"retryable", api.IsRetryable(err),
	)
	h.o.OnError(fmt.Errorf("failed to refresh %s data: %w", category, err))
}

func pullMessage(category model.Category, payload any, now time.Time) (router.Message, bool) {
	switch category {
	case model.CategoryMarket:
		if p, ok := payload.(*model.MarketSnapshot); ok && p != nil {
			return router.MarketUpdate{Source: router.SourcePull, Snapshot: *p, ReceivedAt: now}, true
		}
	case model.CategoryTechnical:
		if p, ok := payload.(*model.TechnicalIndicators); ok && p != nil {
			return router.TechnicalUpdate{Source: router.SourcePull, Indicators: *p, ReceivedAt: now}, true
		}
	case model.CategoryPerformance:
		if p, ok := payload.(*model.PerformanceMetrics); ok && p != nil {
			return router.PerformanceUpdate{Source: router.SourcePull, Metrics: *p, ReceivedAt: now}, true
		}
	}
	return nil, false
}

func sourceOf(msg router.Message) router.Source {
	switch m := msg.(type) {
	case router.MarketUpdate:
		return m.Source
	case router.TechnicalUpdate:
		return m.Source
	case router.PerformanceUpdate:
		return m.Source
	case router.AlertUpdate:
		return m.Source
	case router.HeartbeatAck:
		return router.SourcePush
	}
	return ""
}

// Router handlers

func (o *Orchestrator) onMarket(u router.MarketUpdate) {
	if o.sinks.Market != nil {
		o.sinks.Market.ShowMarket(u.Snapshot)
	}
}

func (o *Orchestrator) onTechnical(u router.TechnicalUpdate) {
	if o.sinks.Technical != nil {
		o.sinks.Technical.ShowTechnical(u.Indicators)
	}
}

func (o *Orchestrator) onPerformance(u router.PerformanceUpdate) {
	if o.sinks.Performance != nil {
		o.sinks.Performance.ShowPerformance(u.Metrics)
	}
}

// onAlert buffers the alert, then notifies, then re-renders the list.
func (o *Orchestrator) onAlert(u router.AlertUpdate) {
	o.alerts.Insert(u.Alert)
	o.metrics.AlertReceived(string(u.Alert.Severity))

	if o.notifier != nil {
		o.notifier.Notify(u.Alert)
	}
	if o.sinks.Alerts != nil {
		o.sinks.Alerts.ShowAlerts(o.alerts.Snapshot())
	}
}

func (o *Orchestrator) onHeartbeatAck(u router.HeartbeatAck) {
	o.logger.Debug("heartbeat acknowledged", "received_at", u.ReceivedAt)
}
