package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rickgao/market-pulse/internal/api"
	"github.com/rickgao/market-pulse/internal/config"
	"github.com/rickgao/market-pulse/internal/connection"
	"github.com/rickgao/market-pulse/internal/dashboard"
	"github.com/rickgao/market-pulse/internal/logging"
	"github.com/rickgao/market-pulse/internal/metrics"
	"github.com/rickgao/market-pulse/internal/model"
	"github.com/rickgao/market-pulse/internal/notify"
	"github.com/rickgao/market-pulse/internal/orchestrator"
	"github.com/rickgao/market-pulse/internal/retry"
	"github.com/rickgao/market-pulse/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pulse.yaml", "path to config file")
	symbol := flag.String("symbol", "", "symbol to watch (overrides config)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}
	if *symbol != "" {
		cfg.Symbol = model.NormalizeSymbol(*symbol)
	}

	// Set up structured logging
	logger, logCloser := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer logCloser.Close()
	slog.SetDefault(logger)

	sessionID := uuid.New().String()
	logger.Info("starting pulse",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"session", sessionID,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Create API client
	apiClient := api.NewClient(
		cfg.API.RestURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
	)
	checkSymbol(ctx, apiClient, cfg, logger)

	ocfg := orchestratorConfig(cfg)

	var transport connection.Transport
	if !cfg.Push.Disabled {
		endpoint, err := pushURL(cfg, sessionID)
		if err != nil {
			logger.Error("invalid push url", "error", err)
			os.Exit(1)
		}
		ocfg.Push.URL = endpoint

		tcfg := connection.DefaultTransportConfig()
		tcfg.HandshakeTimeout = cfg.Push.DialTimeout
		tcfg.WriteTimeout = cfg.Push.WriteTimeout
		tcfg.Header = http.Header{
			"User-Agent":   []string{version.UserAgent()},
			"X-Session-Id": []string{sessionID},
		}
		transport = connection.NewWebsocketTransport(tcfg, logger)
	} else {
		logger.Warn("push channel disabled, running pull-only",
			"interval", cfg.Refresh.FallbackInterval)
	}

	board := dashboard.NewBoard(nil)
	gate := notify.NewGate(
		notify.NewLogNotifier(logger),
		notify.StaticPermission(cfg.Alerts.Notifications),
		cfg.Alerts.NotifyTimeout,
		logger,
	)

	orch := orchestrator.New(ocfg, orchestrator.Deps{
		Transport: transport,
		Fetcher:   apiClient,
		Sinks: orchestrator.Sinks{
			Market:      board,
			Technical:   board,
			Performance: board,
			Alerts:      board,
			Errors:      board,
			Reset:       board,
		},
		Notifier: gate,
		Metrics:  m,
		Logger:   logger,
	})

	// Dashboard server
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = metrics.Handler(registry)
	}
	server := dashboard.NewServer(board, orch, apiClient, metricsHandler, logger,
		dashboard.WithMetricsPath(cfg.Metrics.Path))
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting dashboard server", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("dashboard server error", "error", err)
			cancel()
		}
	}()

	if err := orch.Start(ctx, cfg.Symbol); err != nil {
		logger.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}

	logger.Info("pulse running",
		"symbol", cfg.Symbol,
		"push", !cfg.Push.Disabled,
		"dashboard_url", fmt.Sprintf("http://%s/api/dashboard", displayAddr(cfg.HTTP.Addr)),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("dashboard server shutdown", "error", err)
	}
	if err := orch.Shutdown(shutdownCtx); err != nil {
		logger.Warn("orchestrator shutdown", "error", err)
	}
	if err := gate.Wait(shutdownCtx); err != nil {
		logger.Warn("pending notifications dropped", "error", err)
	}

	logger.Info("pulse stopped")
}

// orchestratorConfig maps the file configuration onto the orchestrator.
func orchestratorConfig(cfg *config.Config) orchestrator.Config {
	ocfg := orchestrator.DefaultConfig()
	ocfg.RefreshInterval = cfg.Refresh.Interval
	ocfg.FallbackInterval = cfg.Refresh.FallbackInterval
	ocfg.ErrorDisplay = cfg.UI.ErrorDisplay
	ocfg.QueueSize = cfg.UI.QueueSize

	ocfg.Push.HeartbeatInterval = cfg.Push.HeartbeatInterval
	ocfg.Push.ReconnectPolicy = cfg.Push.Policy()
	ocfg.Push.ReconnectAttempts = cfg.Push.ReconnectAttempts
	ocfg.Push.DialTimeout = cfg.Push.DialTimeout

	ocfg.Poller.Timeout = cfg.Refresh.Timeout
	ocfg.Poller.Retry = retry.Config{
		MaxAttempts: cfg.Refresh.MaxAttempts,
		Delay:       cfg.Refresh.Policy(),
	}
	return ocfg
}

// pushURL derives the push endpoint, tagged with this process's session.
func pushURL(cfg *config.Config, sessionID string) (string, error) {
	query := url.Values{"session": []string{sessionID}}
	if cfg.Push.URL != "" {
		return connection.PushURL(cfg.Push.URL, "", query)
	}
	return connection.PushURL(cfg.API.RestURL, cfg.Push.Path, query)
}

// checkSymbol warns when the configured symbol is not listed upstream. It
// never blocks startup: the pull loop surfaces a dead API on its own.
func checkSymbol(ctx context.Context, client *api.Client, cfg *config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var symbols []string
	err := retry.DoVoid(ctx, retry.Config{
		MaxAttempts: cfg.Refresh.MaxAttempts,
		Delay:       cfg.Refresh.Policy(),
		OnRetry: func(attempt int, err error, wait time.Duration) {
			logger.Debug("symbol list unavailable, retrying",
				"attempt", attempt, "wait", wait, "error", err)
		},
	}, func(ctx context.Context) error {
		var err error
		symbols, err = client.GetSymbols(ctx)
		return err
	})
	if err != nil {
		logger.Warn("could not list symbols", "error", err, "retryable", api.IsRetryable(err))
		return
	}
	if !slices.Contains(symbols, cfg.Symbol) {
		logger.Warn("symbol not listed by api", "symbol", cfg.Symbol, "available", len(symbols))
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
