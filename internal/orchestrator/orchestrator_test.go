package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/market-pulse/internal/alerts"
	"github.com/rickgao/market-pulse/internal/backoff"
	"github.com/rickgao/market-pulse/internal/connection"
	"github.com/rickgao/market-pulse/internal/metrics"
	"github.com/rickgao/market-pulse/internal/model"
)

const waitFor = time.Second
const tick = 5 * time.Millisecond

// fakeBoard records every sink call.
type fakeBoard struct {
	mu          sync.Mutex
	markets     []model.MarketSnapshot
	technical   []model.TechnicalIndicators
	performance []model.PerformanceMetrics
	alertLists  [][]alerts.Alert
	errorText   string
	shown       int
	cleared     int

	resets         int
	marketsAtReset int
}

func (b *fakeBoard) ShowMarket(s model.MarketSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.markets = append(b.markets, s)
}

func (b *fakeBoard) ShowTechnical(t model.TechnicalIndicators) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.technical = append(b.technical, t)
}

func (b *fakeBoard) ShowPerformance(p model.PerformanceMetrics) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.performance = append(b.performance, p)
}

func (b *fakeBoard) ShowAlerts(items []alerts.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alertLists = append(b.alertLists, items)
}

func (b *fakeBoard) ShowError(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errorText = message
	b.shown++
}

func (b *fakeBoard) ClearError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errorText = ""
	b.cleared++
}

func (b *fakeBoard) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resets++
	b.marketsAtReset = len(b.markets)
}

func (b *fakeBoard) sinks() Sinks {
	return Sinks{Market: b, Technical: b, Performance: b, Alerts: b, Errors: b, Reset: b}
}

func (b *fakeBoard) panelCounts() (int, int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.markets), len(b.technical), len(b.performance)
}

func (b *fakeBoard) marketSymbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.markets))
	for i, m := range b.markets {
		out[i] = m.Symbol
	}
	return out
}

func (b *fakeBoard) banner() (string, int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errorText, b.shown, b.cleared
}

func (b *fakeBoard) lastAlerts() []alerts.Alert {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.alertLists) == 0 {
		return nil
	}
	return b.alertLists[len(b.alertLists)-1]
}

// fakeFetcher serves category payloads for any symbol. A non-empty
// respondAs replaces the symbol written into the payloads.
type fakeFetcher struct {
	mu        sync.Mutex
	calls     []string
	hook      func(category model.Category, symbol string) error
	respondAs string
}

func (f *fakeFetcher) Fetch(_ context.Context, category model.Category, symbol string) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, string(category)+":"+symbol)
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(category, symbol); err != nil {
			return nil, err
		}
	}
	if f.respondAs != "" {
		symbol = f.respondAs
	}

	switch category {
	case model.CategoryMarket:
		return &model.MarketSnapshot{Symbol: symbol, Price: decimal.NewFromInt(100)}, nil
	case model.CategoryTechnical:
		return &model.TechnicalIndicators{Symbol: symbol, RSI: []float64{50}}, nil
	default:
		return &model.PerformanceMetrics{Symbol: symbol, Accuracy: []float64{0.7}}, nil
	}
}

func (f *fakeFetcher) symbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeConn and fakeTransport stand in for the websocket.
type fakeConn struct {
	incoming  chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{incoming: make(chan []byte, 64), closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.incoming:
		return data, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, string(data))
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) deliver(frame string) {
	c.incoming <- []byte(frame)
}

func (c *fakeConn) frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

type fakeTransport struct {
	mu    sync.Mutex
	conns []*fakeConn
}

func (t *fakeTransport) Dial(context.Context, string) (connection.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := newFakeConn()
	t.conns = append(t.conns, c)
	return c, nil
}

func (t *fakeTransport) last() *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

type countingNotifier struct {
	mu   sync.Mutex
	seen []alerts.Alert
}

func (n *countingNotifier) Notify(a alerts.Alert) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = append(n.seen, a)
	return true
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.seen)
}

func testConfig(clock clockwork.Clock) Config {
	cfg := DefaultConfig()
	cfg.Clock = clock
	cfg.Poller.Retry.Delay = backoff.Constant(0)
	cfg.Push.URL = "ws://example.test/ws"
	return cfg
}

func newTestOrchestrator(t *testing.T, cfg Config, deps Deps) *Orchestrator {
	t.Helper()
	o := New(cfg, deps)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		o.Shutdown(ctx)
	})
	return o
}

// connected starts o and waits for the push channel to open.
func connected(t *testing.T, o *Orchestrator, transport *fakeTransport, symbol string) *fakeConn {
	t.Helper()
	require.NoError(t, o.Start(context.Background(), symbol))
	require.Eventually(t, func() bool {
		return o.Status().Connection == "connected"
	}, waitFor, tick)
	conn := transport.last()
	require.NotNil(t, conn)
	return conn
}

func TestStart_PullsImmediately(t *testing.T) {
	board := &fakeBoard{}
	fetcher := &fakeFetcher{}

	o := newTestOrchestrator(t, testConfig(clockwork.NewFakeClock()), Deps{
		Fetcher: fetcher,
		Sinks:   board.sinks(),
	})
	require.NoError(t, o.Start(context.Background(), "btcusdt"))

	require.Eventually(t, func() bool {
		board.mu.Lock()
		defer board.mu.Unlock()
		return len(board.markets) == 1 && len(board.technical) == 1 && len(board.performance) == 1
	}, waitFor, tick)

	assert.Equal(t, []string{"BTCUSDT"}, board.marketSymbols())
	assert.Equal(t, "BTCUSDT", o.Symbol())
}

func TestPull_RenderedWhateverSymbolSpellingServiceEchoes(t *testing.T) {
	board := &fakeBoard{}
	fetcher := &fakeFetcher{respondAs: "BTC/USDT"}

	o := newTestOrchestrator(t, testConfig(clockwork.NewFakeClock()), Deps{
		Fetcher: fetcher,
		Sinks:   board.sinks(),
	})
	require.NoError(t, o.Start(context.Background(), "BTCUSDT"))

	require.Eventually(t, func() bool {
		m, tech, perf := board.panelCounts()
		return m == 1 && tech == 1 && perf == 1
	}, waitFor, tick)

	assert.Equal(t, []string{"BTC/USDT"}, board.marketSymbols())
	assert.Zero(t, o.Status().ForeignPush)
	assert.Zero(t, o.Status().StalePulls)
}

func TestNew_FillsPollerDefaults(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, Deps{Fetcher: &fakeFetcher{}})

	assert.Equal(t, 3, o.cfg.Poller.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Second, o.cfg.Poller.Timeout)
	require.NotNil(t, o.cfg.Poller.Retry.Delay)
	assert.Equal(t, time.Second, o.cfg.Poller.Retry.Delay.Delay(0))
}

func TestStart_FirstCallWins(t *testing.T) {
	fetcher := &fakeFetcher{}
	o := newTestOrchestrator(t, testConfig(clockwork.NewFakeClock()), Deps{Fetcher: fetcher})

	require.NoError(t, o.Start(context.Background(), "BTCUSDT"))
	require.NoError(t, o.Start(context.Background(), "ETHUSDT"))

	assert.Equal(t, "BTCUSDT", o.Symbol())

	require.Eventually(t, func() bool { return len(fetcher.symbols()) == 3 }, waitFor, tick)
	for _, call := range fetcher.symbols() {
		assert.True(t, strings.HasSuffix(call, ":BTCUSDT"), call)
	}
}

func TestStart_RequiresSymbol(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(clockwork.NewFakeClock()), Deps{Fetcher: &fakeFetcher{}})

	assert.ErrorIs(t, o.Start(context.Background(), "  "), ErrSymbolRequired)
	assert.False(t, o.Status().Started)

	require.NoError(t, o.Start(context.Background(), "SOLUSDT"))
	assert.True(t, o.Status().Started)
}

func TestStart_FallbackIntervalWithoutPush(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(clockwork.NewFakeClock()), Deps{Fetcher: &fakeFetcher{}})

	st := o.Status()
	assert.False(t, st.PushEnabled)
	assert.Equal(t, "disabled", st.Connection)
	assert.Equal(t, 60*time.Second, st.RefreshInterval)

	withPush := newTestOrchestrator(t, testConfig(clockwork.NewFakeClock()), Deps{
		Fetcher:   &fakeFetcher{},
		Transport: &fakeTransport{},
	})
	assert.Equal(t, 30*time.Second, withPush.Status().RefreshInterval)
}

func TestSetSymbol_DiscardsStalePull(t *testing.T) {
	board := &fakeBoard{}
	inFlight := make(chan struct{}, 1)
	release := make(chan struct{})

	fetcher := &fakeFetcher{
		hook: func(_ model.Category, symbol string) error {
			if symbol == "BTCUSDT" {
				inFlight <- struct{}{}
				<-release
			}
			return nil
		},
	}

	cfg := testConfig(clockwork.NewFakeClock())
	cfg.Poller.Categories = []model.Category{model.CategoryMarket}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	o := newTestOrchestrator(t, cfg, Deps{Fetcher: fetcher, Sinks: board.sinks(), Metrics: m})
	require.NoError(t, o.Start(context.Background(), "BTCUSDT"))

	<-inFlight
	assert.True(t, o.SetSymbol("ETHUSDT"))
	close(release)

	require.Eventually(t, func() bool {
		return len(board.marketSymbols()) == 1
	}, waitFor, tick)
	assert.Equal(t, []string{"ETHUSDT"}, board.marketSymbols())

	require.Eventually(t, func() bool { return o.Status().StalePulls == 1 }, waitFor, tick)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesDiscarded.WithLabelValues("stale")))
	assert.Equal(t, uint64(2), o.Status().Epoch)
}

func TestSetSymbol_ResetsPanelsBeforeFirstNewUpdate(t *testing.T) {
	board := &fakeBoard{}
	o := newTestOrchestrator(t, testConfig(clockwork.NewFakeClock()), Deps{
		Fetcher: &fakeFetcher{},
		Sinks:   board.sinks(),
	})
	require.NoError(t, o.Start(context.Background(), "BTCUSDT"))

	require.Eventually(t, func() bool {
		m, tech, perf := board.panelCounts()
		return m == 1 && tech == 1 && perf == 1
	}, waitFor, tick)

	board.mu.Lock()
	resets := board.resets
	board.mu.Unlock()
	require.Zero(t, resets, "first symbol renders without a reset")

	require.True(t, o.SetSymbol("ETHUSDT"))

	require.Eventually(t, func() bool {
		m, _, _ := board.panelCounts()
		return m == 2
	}, waitFor, tick)

	board.mu.Lock()
	resets, at := board.resets, board.marketsAtReset
	board.mu.Unlock()

	assert.Equal(t, 1, resets)
	assert.Equal(t, 1, at, "reset must run before the new symbol's first update")
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, board.marketSymbols())

	// Later updates for the same symbol do not reset again.
	o.poller.Trigger()
	require.Eventually(t, func() bool {
		m, _, _ := board.panelCounts()
		return m == 3
	}, waitFor, tick)
	board.mu.Lock()
	defer board.mu.Unlock()
	assert.Equal(t, 1, board.resets)
}

func TestSetSymbol_IgnoresEmptyAndUnchanged(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(clockwork.NewFakeClock()), Deps{Fetcher: &fakeFetcher{}})
	require.NoError(t, o.Start(context.Background(), "BTCUSDT"))

	epoch := o.Status().Epoch
	assert.False(t, o.SetSymbol(""))
	assert.False(t, o.SetSymbol(" btcusdt "))
	assert.Equal(t, epoch, o.Status().Epoch)

	assert.True(t, o.SetSymbol("ethusdt"))
	assert.Equal(t, "ETHUSDT", o.Symbol())
	assert.Equal(t, epoch+1, o.Status().Epoch)
}

func TestSetSymbol_BeforeStart(t *testing.T) {
	fetcher := &fakeFetcher{}
	o := newTestOrchestrator(t, testConfig(clockwork.NewFakeClock()), Deps{Fetcher: fetcher})

	assert.True(t, o.SetSymbol("ETHUSDT"))
	require.NoError(t, o.Start(context.Background(), ""))

	assert.Equal(t, "ETHUSDT", o.Symbol())
	require.Eventually(t, func() bool { return len(fetcher.symbols()) == 3 }, waitFor, tick)
}

func TestOnError_BannerSelfClears(t *testing.T) {
	clock := clockwork.NewFakeClock()
	board := &fakeBoard{}
	o := newTestOrchestrator(t, testConfig(clock), Deps{Fetcher: &fakeFetcher{}, Sinks: board.sinks()})

	o.OnError(errors.New("failed to refresh market data"))

	text, shown, cleared := board.banner()
	assert.Equal(t, "failed to refresh market data", text)
	assert.Equal(t, 1, shown)
	assert.Equal(t, 0, cleared)

	clock.Advance(5 * time.Second)

	require.Eventually(t, func() bool {
		text, _, cleared := board.banner()
		return text == "" && cleared == 1
	}, waitFor, tick)
}

func TestOnError_NewErrorRestartsCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	board := &fakeBoard{}
	o := newTestOrchestrator(t, testConfig(clock), Deps{Fetcher: &fakeFetcher{}, Sinks: board.sinks()})

	o.OnError(errors.New("first"))
	clock.Advance(4 * time.Second)
	o.OnError(errors.New("second"))
	clock.Advance(3 * time.Second)

	time.Sleep(20 * time.Millisecond)
	text, shown, cleared := board.banner()
	assert.Equal(t, "second", text)
	assert.Equal(t, 2, shown)
	assert.Equal(t, 0, cleared)

	clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool {
		_, _, cleared := board.banner()
		return cleared == 1
	}, waitFor, tick)
}

func TestPullFailure_SurfacedAndLoopContinues(t *testing.T) {
	clock := clockwork.NewFakeClock()
	board := &fakeBoard{}

	var mu sync.Mutex
	fail := true
	fetcher := &fakeFetcher{
		hook: func(model.Category, string) error {
			mu.Lock()
			defer mu.Unlock()
			if fail {
				return errors.New("service unavailable")
			}
			return nil
		},
	}

	cfg := testConfig(clock)
	cfg.Poller.Categories = []model.Category{model.CategoryMarket}
	o := newTestOrchestrator(t, cfg, Deps{Fetcher: fetcher, Sinks: board.sinks()})
	require.NoError(t, o.Start(context.Background(), "BTCUSDT"))

	require.Eventually(t, func() bool {
		text, _, _ := board.banner()
		return strings.Contains(text, "failed to refresh market data")
	}, waitFor, tick)
	assert.Len(t, fetcher.symbols(), 3)

	mu.Lock()
	fail = false
	mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 2))
	clock.Advance(60 * time.Second)

	require.Eventually(t, func() bool { return len(board.marketSymbols()) == 1 }, waitFor, tick)
}

func TestPush_SubscribesOnOpen(t *testing.T) {
	transport := &fakeTransport{}
	cfg := testConfig(clockwork.NewFakeClock())
	cfg.Poller.Categories = []model.Category{model.CategoryPerformance}

	o := newTestOrchestrator(t, cfg, Deps{Fetcher: &fakeFetcher{}, Transport: transport})
	conn := connected(t, o, transport, "BTCUSDT")

	require.Eventually(t, func() bool { return len(conn.frames()) == 1 }, waitFor, tick)
	assert.Equal(t, `{"type":"subscribe","data":{"symbol":"BTCUSDT"}}`, conn.frames()[0])

	o.SetSymbol("ETHUSDT")
	require.Eventually(t, func() bool { return len(conn.frames()) == 2 }, waitFor, tick)
	assert.Equal(t, `{"type":"subscribe","data":{"symbol":"ETHUSDT"}}`, conn.frames()[1])
}

func TestPush_ResubscribesAfterReconnect(t *testing.T) {
	clock := clockwork.NewFakeClock()
	transport := &fakeTransport{}
	cfg := testConfig(clock)
	cfg.Poller.Categories = []model.Category{model.CategoryPerformance}

	o := newTestOrchestrator(t, cfg, Deps{Fetcher: &fakeFetcher{}, Transport: transport})
	first := connected(t, o, transport, "BTCUSDT")
	o.SetSymbol("SOLUSDT")

	first.Close()
	require.Eventually(t, func() bool { return o.Status().ReconnectPending }, waitFor, tick)
	clock.Advance(5 * time.Second)

	require.Eventually(t, func() bool {
		c := transport.last()
		return c != first && len(c.frames()) == 1
	}, waitFor, tick)
	assert.Equal(t, `{"type":"subscribe","data":{"symbol":"SOLUSDT"}}`, transport.last().frames()[0])
}

func TestPush_RoutesAndFiltersBySymbol(t *testing.T) {
	transport := &fakeTransport{}
	board := &fakeBoard{}
	cfg := testConfig(clockwork.NewFakeClock())
	cfg.Poller.Categories = []model.Category{model.CategoryPerformance}

	o := newTestOrchestrator(t, cfg, Deps{Fetcher: &fakeFetcher{}, Transport: transport, Sinks: board.sinks()})
	conn := connected(t, o, transport, "BTCUSDT")

	conn.deliver(`{"type":"market","data":{"symbol":"btcusdt","price":"101.5"}}`)
	conn.deliver(`{"type":"market","data":{"symbol":"ETHUSDT","price":"3000"}}`)
	conn.deliver(`{"type":"market","data":{"symbol":"BTCUSDT","price":"102"}}`)

	require.Eventually(t, func() bool { return o.Status().ForeignPush == 1 && len(board.marketSymbols()) == 2 }, waitFor, tick)

	board.mu.Lock()
	prices := []string{board.markets[0].Price.String(), board.markets[1].Price.String()}
	board.mu.Unlock()
	assert.Equal(t, []string{"101.5", "102"}, prices)
}

func TestPush_AlertsBufferedNotifiedRendered(t *testing.T) {
	transport := &fakeTransport{}
	board := &fakeBoard{}
	notifier := &countingNotifier{}
	cfg := testConfig(clockwork.NewFakeClock())
	cfg.Poller.Categories = []model.Category{model.CategoryPerformance}

	o := newTestOrchestrator(t, cfg, Deps{
		Fetcher:   &fakeFetcher{},
		Transport: transport,
		Sinks:     board.sinks(),
		Notifier:  notifier,
	})
	conn := connected(t, o, transport, "BTCUSDT")

	severities := []string{"low", "high", "medium"}
	for i := 0; i < 12; i++ {
		conn.deliver(fmt.Sprintf(`{"type":"alert","data":{"severity":%q,"message":"alert %d","icon":"!"}}`,
			severities[i%3], i))
	}

	require.Eventually(t, func() bool { return notifier.count() == 12 }, waitFor, tick)
	require.Eventually(t, func() bool {
		last := board.lastAlerts()
		return len(last) == 10 && last[0].Message == "alert 11"
	}, waitFor, tick)

	got := board.lastAlerts()
	assert.Equal(t, "alert 11", got[0].Message)
	assert.Equal(t, "alert 2", got[9].Message)
	assert.Equal(t, 10, o.Status().Alerts)
	assert.Equal(t, got, o.Alerts())
}

func TestPush_MalformedFrameDropped(t *testing.T) {
	transport := &fakeTransport{}
	board := &fakeBoard{}
	cfg := testConfig(clockwork.NewFakeClock())
	cfg.Poller.Categories = []model.Category{model.CategoryPerformance}

	o := newTestOrchestrator(t, cfg, Deps{Fetcher: &fakeFetcher{}, Transport: transport, Sinks: board.sinks()})
	conn := connected(t, o, transport, "BTCUSDT")

	conn.deliver(`{"type":"market",`)
	conn.deliver(`{"type":"market","data":"not an object"}`)
	conn.deliver(`{"type":"mystery","data":{}}`)
	conn.deliver(`{"type":"market","data":{"symbol":"BTCUSDT","price":"1"}}`)

	require.Eventually(t, func() bool { return len(board.marketSymbols()) == 1 }, waitFor, tick)

	st := o.Status()
	assert.Equal(t, int64(2), st.DecodeErrors)
	assert.Equal(t, int64(2), st.Router.ParseErrors)
	assert.Equal(t, int64(1), st.Router.UnknownMessages)
	assert.Equal(t, "connected", st.Connection)
}

func TestShutdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	transport := &fakeTransport{}
	board := &fakeBoard{}
	cfg := testConfig(clock)
	cfg.Poller.Categories = []model.Category{model.CategoryPerformance}

	o := New(cfg, Deps{Fetcher: &fakeFetcher{}, Transport: transport, Sinks: board.sinks()})
	connected(t, o, transport, "BTCUSDT")

	o.OnError(errors.New("boom"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, o.Shutdown(ctx))
	require.NoError(t, o.Shutdown(ctx))

	st := o.Status()
	assert.Equal(t, "closing", st.Connection)
	assert.False(t, st.HeartbeatActive)
	assert.False(t, st.ReconnectPending)

	// The banner timer was cancelled and later errors are ignored.
	clock.Advance(time.Minute)
	o.OnError(errors.New("after shutdown"))
	time.Sleep(20 * time.Millisecond)

	text, shown, cleared := board.banner()
	assert.Equal(t, "boom", text)
	assert.Equal(t, 1, shown)
	assert.Equal(t, 0, cleared)

	assert.False(t, o.SetSymbol("ETHUSDT"))
	assert.NoError(t, o.Start(context.Background(), "ETHUSDT"))
	assert.Equal(t, "BTCUSDT", o.Symbol())
}
