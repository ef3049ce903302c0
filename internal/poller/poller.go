package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/market-pulse/internal/backoff"
	"github.com/rickgao/market-pulse/internal/model"
	"github.com/rickgao/market-pulse/internal/retry"
)

// Fetcher pulls one category for one symbol. *api.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, category model.Category, symbol string) (any, error)
}

// Target is the symbol a cycle pulls for, with the epoch it was read at.
type Target struct {
	Symbol string
	Epoch  uint64
}

// TargetFunc returns the current target. An empty symbol skips the cycle.
type TargetFunc func() Target

// ResultHandler receives pull outcomes. Calls for different categories may
// run concurrently.
type ResultHandler interface {
	HandleResult(target Target, category model.Category, payload any)
	HandleError(target Target, category model.Category, err error)
}

// Config holds poller configuration.
type Config struct {
	Interval   time.Duration    // Poll interval (default: 30s)
	Timeout    time.Duration    // Per-attempt timeout (default: 10s)
	Retry      retry.Config     // Retry budget per category per cycle
	Categories []model.Category // Categories to pull (default: all)
	Clock      clockwork.Clock

	// Observe is called after every attempt.
	Observe func(category model.Category, elapsed time.Duration, err error)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 30 * time.Second,
		Timeout:  10 * time.Second,
		Retry: retry.Config{
			MaxAttempts: 3,
			Delay:       backoff.Constant(time.Second),
		},
		Categories: model.Categories,
	}
}

// Stats contains poller statistics.
type Stats struct {
	Cycles  int64
	Fetched int64
	Failed  int64
	Retries int64
}

// Poller periodically pulls dashboard categories.
type Poller struct {
	cfg     Config
	fetcher Fetcher
	targets TargetFunc
	handler ResultHandler
	logger  *slog.Logger
	clock   clockwork.Clock

	trigger chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cycles  atomic.Int64
	fetched atomic.Int64
	failed  atomic.Int64
	retries atomic.Int64
}

// New creates a new Poller.
func New(cfg Config, fetcher Fetcher, targets TargetFunc, handler ResultHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Retry.Clock == nil {
		cfg.Retry.Clock = cfg.Clock
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = model.Categories
	}
	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		targets: targets,
		handler: handler,
		logger:  logger,
		clock:   cfg.Clock,
		trigger: make(chan struct{}, 1),
	}
}

// Start begins the polling loop. The first poll runs immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("poller started",
		"interval", p.cfg.Interval,
		"max_attempts", p.cfg.Retry.MaxAttempts,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger requests an immediate poll. Requests made while a poll is
// pending coalesce into one.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Stats returns current statistics.
func (p *Poller) Stats() Stats {
	return Stats{
		Cycles:  p.cycles.Load(),
		Fetched: p.fetched.Load(),
		Failed:  p.failed.Load(),
		Retries: p.retries.Load(),
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := p.clock.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollAll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.Chan():
			p.pollAll()
		case <-p.trigger:
			p.pollAll()
		}
	}
}

// pollAll pulls every category for the current target concurrently.
func (p *Poller) pollAll() {
	target := p.targets()
	if target.Symbol == "" {
		p.logger.Debug("no symbol to poll")
		return
	}

	start := p.clock.Now()
	p.cycles.Add(1)

	var g errgroup.Group
	var fetched, failed atomic.Int64

	for _, category := range p.cfg.Categories {
		g.Go(func() error {
			if err := p.pollCategory(target, category); err != nil {
				failed.Add(1)
				return err
			}
			fetched.Add(1)
			return nil
		})
	}

	g.Wait()

	p.logger.Debug("poll cycle complete",
		"symbol", target.Symbol,
		"epoch", target.Epoch,
		"fetched", fetched.Load(),
		"errors", failed.Load(),
		"duration", p.clock.Since(start),
	)
}

// pollCategory pulls one category with retries and hands the outcome to
// the handler. Outcomes of a cancelled poller are dropped.
func (p *Poller) pollCategory(target Target, category model.Category) error {
	cfg := p.cfg.Retry
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		p.retries.Add(1)
		p.logger.Debug("retrying pull",
			"category", category,
			"symbol", target.Symbol,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	payload, err := retry.Do(p.ctx, cfg, func(ctx context.Context) (any, error) {
		return p.fetchOnce(ctx, target.Symbol, category)
	})

	if p.ctx.Err() != nil {
		return p.ctx.Err()
	}

	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("pull failed",
			"category", category,
			"symbol", target.Symbol,
			"error", err,
		)
		p.handler.HandleError(target, category, err)
		return err
	}

	p.fetched.Add(1)
	p.handler.HandleResult(target, category, payload)
	return nil
}

// fetchOnce is a single attempt bounded by the per-attempt timeout.
func (p *Poller) fetchOnce(ctx context.Context, symbol string, category model.Category) (any, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	start := p.clock.Now()
	payload, err := p.fetcher.Fetch(ctx, category, symbol)
	if p.cfg.Observe != nil {
		p.cfg.Observe(category, p.clock.Since(start), err)
	}
	return payload, err
}
