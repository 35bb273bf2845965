// Package server exposes the agent over HTTP: a single payment-gated
// execute endpoint plus health and metrics routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/michealimuse777/solana-ai-agent/service/config"
	"github.com/michealimuse777/solana-ai-agent/service/intent"
	"github.com/michealimuse777/solana-ai-agent/service/metrics"
	"github.com/michealimuse777/solana-ai-agent/service/payment"
	"github.com/michealimuse777/solana-ai-agent/service/swap"
)

// Server represents the HTTP server for the agent service.
type Server struct {
	addr     string
	cfg      *config.Config
	gate     *payment.Gate
	parser   intent.Parser
	provider swap.Provider
	metrics  *metrics.Metrics
	logger   *slog.Logger
	server   *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The gate guards the execute endpoint; the parser and provider are the
// external collaborators the handler dispatches to. The metrics collector
// is optional - if nil, the /metrics endpoint won't be available.
func New(addr string, cfg *config.Config, gate *payment.Gate, parser intent.Parser, provider swap.Provider, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:     addr,
		cfg:      cfg,
		gate:     gate,
		parser:   parser,
		provider: provider,
		metrics:  m,
		logger:   logger,
	}
}

// routes assembles the full handler chain.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	execute := handleAgentExecute(s.cfg, s.parser, s.provider, s.metrics, s.logger)
	execute = metrics.HTTPMetricsMiddleware(s.metrics, "/agent/execute")(execute)
	mux.Handle("/agent/execute", requireMethod(http.MethodPost, s.gate.Middleware(execute)))

	// Health check endpoint, reporting which network payments settle on.
	mux.Handle("/health", requireMethod(http.MethodGet, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{
			"status":          "ok",
			"payment_network": s.cfg.PaymentNetwork,
		}, http.StatusOK)
	})))

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("/metrics", requireMethod(http.MethodGet, promhttp.Handler()))
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requireMethod restricts a route to a single HTTP method, matching the
// behavior of Go 1.22+ "METHOD /path" ServeMux patterns, which the Go 1.21
// toolchain used to build this module does not support.
func requireMethod(method string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS
// preflight requests. The payment proof header must be allowed so browser
// clients can present it.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+payment.HeaderPaymentSig)
		w.Header().Set("Access-Control-Max-Age", "3600")

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
