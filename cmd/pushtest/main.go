// pushtest connects to the push channel and prints decoded updates to the
// console. It does not pull and does not render a dashboard.
// Usage: go run ./cmd/pushtest --config configs/pulse.yaml --symbol ETHUSDT
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/market-pulse/internal/config"
	"github.com/rickgao/market-pulse/internal/connection"
	"github.com/rickgao/market-pulse/internal/logging"
	"github.com/rickgao/market-pulse/internal/model"
	"github.com/rickgao/market-pulse/internal/router"
)

func main() {
	configPath := flag.String("config", "configs/pulse.yaml", "path to config file")
	symbolFlag := flag.String("symbol", "", "symbol to subscribe (overrides config)")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(logging.NewHandler(os.Stdout, "debug", "text"))

	// Load config
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	symbol := cfg.Symbol
	if *symbolFlag != "" {
		symbol = model.NormalizeSymbol(*symbolFlag)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	base, path := cfg.API.RestURL, cfg.Push.Path
	if cfg.Push.URL != "" {
		base, path = cfg.Push.URL, ""
	}
	pushURL, err := connection.PushURL(base, path, url.Values{"session": []string{uuid.New().String()}})
	if err != nil {
		logger.Error("invalid push url", "error", err)
		os.Exit(1)
	}

	p := printer{verbose: *verbose}
	rtr := router.NewRouter(router.Handlers{
		Market:       p.market,
		Technical:    p.technical,
		Performance:  p.performance,
		Alert:        p.alert,
		HeartbeatAck: p.heartbeatAck,
	}, logger)

	connCfg := connection.DefaultManagerConfig()
	connCfg.URL = pushURL
	connCfg.HeartbeatInterval = cfg.Push.HeartbeatInterval
	connCfg.ReconnectPolicy = cfg.Push.Policy()
	connCfg.ReconnectAttempts = cfg.Push.ReconnectAttempts
	connCfg.DialTimeout = cfg.Push.DialTimeout

	var connMgr *connection.Manager
	connMgr = connection.NewManager(connCfg, connection.NewWebsocketTransport(connection.DefaultTransportConfig(), logger), connection.Hooks{
		OnOpen: func() {
			if err := connMgr.Send(connection.FrameSubscribe, connection.SubscribeData{Symbol: symbol}); err != nil {
				logger.Warn("subscribe failed", "error", err)
			}
		},
		OnMessage: func(data []byte, receivedAt time.Time) {
			msg, err := rtr.Decode(data, receivedAt)
			if err != nil {
				logger.Warn("dropping malformed frame", "error", err)
				return
			}
			rtr.Dispatch(msg)
		},
		OnReconnectScheduled: func(attempt int, delay time.Duration) {
			logger.Info("reconnect scheduled", "attempt", attempt, "delay", delay)
		},
		OnGiveUp: func(attempts int) {
			logger.Error("push channel gave up", "attempts", attempts)
			cancel()
		},
	}, logger)

	logger.Info("connecting", "url", pushURL, "symbol", symbol)
	connMgr.Connect()

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				routerStats := rtr.Stats()
				connStats := connMgr.Stats()
				logger.Info("stats",
					"state", connStats.State,
					"connects", connStats.Connects,
					"reconnects_scheduled", connStats.ReconnectsScheduled,
					"heartbeats_sent", connStats.HeartbeatsSent,
					"heartbeats_failed", connStats.HeartbeatsFailed,
					"router_received", routerStats.MessagesReceived,
					"router_routed", routerStats.MessagesRouted,
					"parse_errors", routerStats.ParseErrors,
					"unknown", routerStats.UnknownMessages,
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	// Wait for shutdown
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down...")
	if err := connMgr.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", "error", err)
	}

	logger.Info("shutdown complete")
}

type printer struct {
	verbose bool
}

func (p printer) dump(label string, v any) bool {
	if !p.verbose {
		return false
	}
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Printf("[%s] %s\n", label, data)
	return true
}

func (p printer) market(u router.MarketUpdate) {
	if p.dump("MARKET", u.Snapshot) {
		return
	}
	s := u.Snapshot
	fmt.Printf("[MARKET] symbol=%s price=%s change=%s (%s%%) volume=%s\n",
		s.Symbol, s.Price, s.Change24h, s.ChangePercent24h, s.Volume24h)
}

func (p printer) technical(u router.TechnicalUpdate) {
	if p.dump("TECHNICAL", u.Indicators) {
		return
	}
	t := u.Indicators
	last, _ := t.LatestClose()
	fmt.Printf("[TECHNICAL] symbol=%s candles=%d close=%s rsi_points=%d macd_points=%d\n",
		t.Symbol, len(t.Candles), last, len(t.RSI), len(t.MACD))
}

func (p printer) performance(u router.PerformanceUpdate) {
	if p.dump("PERFORMANCE", u.Metrics) {
		return
	}
	m := u.Metrics
	fmt.Printf("[PERFORMANCE] symbol=%s accuracy_points=%d predictions=%d\n",
		m.Symbol, len(m.Accuracy), len(m.Predictions))
}

func (p printer) alert(u router.AlertUpdate) {
	if p.dump("ALERT", u.Alert) {
		return
	}
	a := u.Alert
	fmt.Printf("[ALERT] severity=%s message=%q at=%s\n",
		a.Severity, a.Message, a.Timestamp.Format(time.RFC3339))
}

func (p printer) heartbeatAck(u router.HeartbeatAck) {
	if p.verbose {
		fmt.Printf("[HEARTBEAT_ACK] at=%s\n", u.ReceivedAt.Format(time.RFC3339))
	}
}
