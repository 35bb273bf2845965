package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr  string
	LogLevel    string
	LogFormat   string // "json" or "text"
	Environment string // "development" or "production"

	// Intent parser configuration
	GeminiAPIKeys []string
	GeminiModel   string
	GeminiBaseURL string
	IntentTimeout time.Duration

	// Solana configuration
	SolanaMainnetRPCURL string
	SolanaDevnetRPCURL  string

	// Payment gate configuration
	MerchantWalletAddress   string
	PaymentPriceLamports    uint64
	PaymentNetwork          string
	PaymentBypassToken      string
	PaymentVerifyTimeout    time.Duration
	PaymentReplayProtection bool
	PaymentProofTTL         time.Duration
	RedisURL                string

	// Fee bundling configuration
	FeeWalletAddress  string
	FeeAmountLamports uint64

	// Swap provider configuration
	JupiterBaseURL  string
	SwapAPIKey      string
	SwapSlippageBps int
	SwapTimeout     time.Duration
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", "json")
	cfg.Environment = getEnvOrDefault("APP_ENV", "development")

	// Intent parser configuration
	cfg.GeminiAPIKeys = splitAndTrim(os.Getenv("GEMINI_API_KEYS"))
	if len(cfg.GeminiAPIKeys) == 0 {
		errs = append(errs, fmt.Errorf("GEMINI_API_KEYS is required (comma-separated)"))
	}
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash")
	cfg.GeminiBaseURL = os.Getenv("GEMINI_BASE_URL")

	intentTimeout, err := parseDuration("INTENT_TIMEOUT", "15s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.IntentTimeout = intentTimeout
	}

	// Solana configuration
	cfg.SolanaMainnetRPCURL = os.Getenv("SOLANA_MAINNET_RPC_URL")
	if cfg.SolanaMainnetRPCURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_MAINNET_RPC_URL is required"))
	}
	cfg.SolanaDevnetRPCURL = os.Getenv("SOLANA_DEVNET_RPC_URL")
	if cfg.SolanaDevnetRPCURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_DEVNET_RPC_URL is required"))
	}
	if cfg.SolanaMainnetRPCURL != "" && cfg.SolanaMainnetRPCURL == cfg.SolanaDevnetRPCURL {
		errs = append(errs, fmt.Errorf("SOLANA_MAINNET_RPC_URL and SOLANA_DEVNET_RPC_URL must be different"))
	}

	// Payment gate configuration
	cfg.MerchantWalletAddress = os.Getenv("MERCHANT_WALLET_ADDRESS")
	if cfg.MerchantWalletAddress == "" {
		errs = append(errs, fmt.Errorf("MERCHANT_WALLET_ADDRESS is required"))
	} else if _, err := solana.PublicKeyFromBase58(cfg.MerchantWalletAddress); err != nil {
		errs = append(errs, fmt.Errorf("MERCHANT_WALLET_ADDRESS is not a valid address: %w", err))
	}

	price, err := parseUint64("PAYMENT_PRICE_LAMPORTS", 5000)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.PaymentPriceLamports = price
	}

	cfg.PaymentNetwork = getEnvOrDefault("PAYMENT_NETWORK", "devnet")
	if cfg.PaymentNetwork != "devnet" && cfg.PaymentNetwork != "mainnet" {
		errs = append(errs, fmt.Errorf("PAYMENT_NETWORK must be devnet or mainnet, got %q", cfg.PaymentNetwork))
	}

	// The dev bypass sentinel defaults on only outside production.
	defaultBypass := "mock_devnet_signature"
	if cfg.Environment == "production" {
		defaultBypass = ""
	}
	cfg.PaymentBypassToken = getEnvOrDefault("PAYMENT_BYPASS_TOKEN", defaultBypass)

	verifyTimeout, err := parseDuration("PAYMENT_VERIFY_TIMEOUT", "5s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.PaymentVerifyTimeout = verifyTimeout
	}

	replay, err := parseBool("PAYMENT_REPLAY_PROTECTION", false)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.PaymentReplayProtection = replay
	}

	proofTTL, err := parseDuration("PAYMENT_PROOF_TTL", "10m")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.PaymentProofTTL = proofTTL
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")

	// Fee bundling configuration
	cfg.FeeWalletAddress = os.Getenv("FEE_WALLET_ADDRESS")
	if cfg.FeeWalletAddress != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.FeeWalletAddress); err != nil {
			errs = append(errs, fmt.Errorf("FEE_WALLET_ADDRESS is not a valid address: %w", err))
		}
	}
	feeAmount, err := parseUint64("FEE_AMOUNT_LAMPORTS", 0)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.FeeAmountLamports = feeAmount
	}

	// Swap provider configuration
	cfg.JupiterBaseURL = getEnvOrDefault("JUPITER_BASE_URL", "https://quote-api.jup.ag")
	cfg.SwapAPIKey = os.Getenv("SWAP_API_KEY")

	slippage, err := parseInt("SWAP_SLIPPAGE_BPS", 50)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.SwapSlippageBps = slippage
	}

	swapTimeout, err := parseDuration("SWAP_TIMEOUT", "10s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.SwapTimeout = swapTimeout
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// RPCURLFor returns the RPC URL for the given network.
func (c *Config) RPCURLFor(network string) string {
	if network == "mainnet" {
		return c.SolanaMainnetRPCURL
	}
	return c.SolanaDevnetRPCURL
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if len(c.GeminiAPIKeys) == 0 {
		errs = append(errs, fmt.Errorf("GeminiAPIKeys is required"))
	}
	if c.SolanaMainnetRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaMainnetRPCURL is required"))
	}
	if c.SolanaDevnetRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaDevnetRPCURL is required"))
	}
	if c.MerchantWalletAddress == "" {
		errs = append(errs, fmt.Errorf("MerchantWalletAddress is required"))
	}
	if c.PaymentNetwork != "devnet" && c.PaymentNetwork != "mainnet" {
		errs = append(errs, fmt.Errorf("PaymentNetwork must be devnet or mainnet"))
	}
	if c.PaymentReplayProtection && c.PaymentProofTTL <= 0 {
		errs = append(errs, fmt.Errorf("PaymentProofTTL must be positive when replay protection is on"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitAndTrim splits a comma-separated value, dropping empty entries.
func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseUint64 parses an unsigned integer from an environment variable or uses a default.
func parseUint64(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid unsigned integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseBool parses a boolean from an environment variable or uses a default.
func parseBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, value, err)
	}
	return result, nil
}
