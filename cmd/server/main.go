package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/michealimuse777/solana-ai-agent/service/config"
	"github.com/michealimuse777/solana-ai-agent/service/intent"
	"github.com/michealimuse777/solana-ai-agent/service/metrics"
	"github.com/michealimuse777/solana-ai-agent/service/payment"
	"github.com/michealimuse777/solana-ai-agent/service/server"
	"github.com/michealimuse777/solana-ai-agent/service/swap"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting agent server",
		"addr", cfg.ServerAddr,
		"environment", cfg.Environment,
		"payment_network", cfg.PaymentNetwork,
	)

	m := metrics.NewMetrics(nil)

	// Payment gate: ledger verifier on the configured payment network
	rpcClient := payment.NewRPCClient(cfg.RPCURLFor(cfg.PaymentNetwork))
	verifier := payment.NewVerifier(rpcClient, cfg.PaymentNetwork, m, logger)

	var ledger payment.ProofLedger
	if cfg.PaymentReplayProtection {
		if cfg.RedisURL != "" {
			redisLedger, err := payment.NewRedisLedger(cfg.RedisURL, cfg.PaymentProofTTL)
			if err != nil {
				logger.Error("failed to create redis proof ledger", "error", err)
				os.Exit(1)
			}
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := redisLedger.Ping(pingCtx); err != nil {
				cancel()
				logger.Error("failed to ping redis", "error", err)
				os.Exit(1)
			}
			cancel()
			defer redisLedger.Close()
			ledger = redisLedger
			logger.Info("payment replay protection enabled", "backend", "redis")
		} else {
			ledger = payment.NewMemoryLedger(cfg.PaymentProofTTL)
			logger.Info("payment replay protection enabled", "backend", "memory")
		}
	}

	// The dev bypass token never survives into production, configured or not.
	bypassToken := cfg.PaymentBypassToken
	if cfg.Environment == "production" {
		bypassToken = ""
	}

	gate := payment.NewGate(payment.GateConfig{
		MerchantAddress: cfg.MerchantWalletAddress,
		PriceLamports:   cfg.PaymentPriceLamports,
		BypassToken:     bypassToken,
		VerifyTimeout:   cfg.PaymentVerifyTimeout,
	}, verifier, ledger, m, logger)

	// Intent parser with rotating credentials
	ring, err := intent.NewKeyRing(cfg.GeminiAPIKeys)
	if err != nil {
		logger.Error("failed to build key ring", "error", err)
		os.Exit(1)
	}
	parser := intent.NewGeminiParser(cfg.GeminiBaseURL, cfg.GeminiModel, ring, cfg.IntentTimeout, logger)

	// Swap provider
	provider := swap.NewJupiter(cfg.JupiterBaseURL, cfg.SwapSlippageBps, cfg.SwapAPIKey, cfg.SwapTimeout, logger)

	httpServer := server.New(cfg.ServerAddr, cfg, gate, parser, provider, m, logger)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level and
// format. "text" uses a tinted handler for local development; everything
// else logs JSON.
func setupLogger(levelStr, format string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if format == "text" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
