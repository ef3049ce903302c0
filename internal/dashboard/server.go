package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rickgao/market-pulse/internal/orchestrator"
	"github.com/rickgao/market-pulse/internal/version"
)

// Controller is the part of the orchestrator the HTTP surface drives.
type Controller interface {
	Status() orchestrator.Status
	SetSymbol(symbol string) bool
}

// SymbolLister lists the symbols the market service tracks.
type SymbolLister interface {
	GetSymbols(ctx context.Context) ([]string, error)
}

// Server exposes the dashboard as JSON.
type Server struct {
	board   *Board
	ctrl    Controller
	symbols SymbolLister
	metrics http.Handler
	logger  *slog.Logger

	metricsPath string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetricsPath mounts the metrics handler at path instead of /metrics.
func WithMetricsPath(path string) ServerOption {
	return func(s *Server) {
		if path != "" {
			s.metricsPath = path
		}
	}
}

// NewServer creates a Server. symbols and metrics may be nil.
func NewServer(board *Board, ctrl Controller, symbols SymbolLister, metrics http.Handler, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		board:       board,
		ctrl:        ctrl,
		symbols:     symbols,
		metrics:     metrics,
		logger:      logger,
		metricsPath: "/metrics",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle(s.metricsPath, s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/alerts", s.handleAlerts)
		r.Get("/status", s.handleStatus)
		r.Post("/symbol", s.handleSetSymbol)
		r.Get("/symbols", s.handleSymbols)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := s.ctrl.Status()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    version.String(),
		"symbol":     status.Symbol,
		"connection": status.Connection,
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.board.Snapshot())
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"alerts": s.board.Snapshot().Alerts,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.ctrl.Status())
}

type setSymbolRequest struct {
	Symbol string `json:"symbol"`
}

func (s *Server) handleSetSymbol(w http.ResponseWriter, r *http.Request) {
	var req setSymbolRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "symbol is required")
		return
	}

	// The orchestrator clears the panels once the new symbol's first
	// update is dispatched.
	changed := s.ctrl.SetSymbol(req.Symbol)

	respondJSON(w, http.StatusOK, map[string]any{
		"symbol":  s.ctrl.Status().Symbol,
		"changed": changed,
	})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	if s.symbols == nil {
		respondError(w, http.StatusNotFound, "not_available", "symbol listing is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	symbols, err := s.symbols.GetSymbols(ctx)
	if err != nil {
		s.logger.Warn("list symbols failed", "error", err)
		respondError(w, http.StatusBadGateway, "upstream_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"symbols": symbols})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
