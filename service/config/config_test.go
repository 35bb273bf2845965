package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMerchant = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

// setRequiredEnv sets the minimum environment for Load to succeed.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEYS", "key-a,key-b")
	t.Setenv("SOLANA_MAINNET_RPC_URL", "https://api.mainnet-beta.solana.com")
	t.Setenv("SOLANA_DEVNET_RPC_URL", "https://api.devnet.solana.com")
	t.Setenv("MERCHANT_WALLET_ADDRESS", testMerchant)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.GeminiAPIKeys)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 15*time.Second, cfg.IntentTimeout)
	assert.Equal(t, uint64(5000), cfg.PaymentPriceLamports)
	assert.Equal(t, "devnet", cfg.PaymentNetwork)
	assert.Equal(t, "mock_devnet_signature", cfg.PaymentBypassToken)
	assert.Equal(t, 5*time.Second, cfg.PaymentVerifyTimeout)
	assert.False(t, cfg.PaymentReplayProtection)
	assert.Equal(t, 10*time.Minute, cfg.PaymentProofTTL)
	assert.Equal(t, uint64(0), cfg.FeeAmountLamports)
	assert.Equal(t, "https://quote-api.jup.ag", cfg.JupiterBaseURL)
	assert.Equal(t, 50, cfg.SwapSlippageBps)
	assert.Equal(t, 10*time.Second, cfg.SwapTimeout)
}

func TestLoad_ProductionDisablesBypassDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.PaymentBypassToken)
}

func TestLoad_MissingRequiredCollectsAllErrors(t *testing.T) {
	// No required env set: every missing field shows up in one error.
	t.Setenv("GEMINI_API_KEYS", "")
	t.Setenv("SOLANA_MAINNET_RPC_URL", "")
	t.Setenv("SOLANA_DEVNET_RPC_URL", "")
	t.Setenv("MERCHANT_WALLET_ADDRESS", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEYS")
	assert.Contains(t, err.Error(), "SOLANA_MAINNET_RPC_URL")
	assert.Contains(t, err.Error(), "SOLANA_DEVNET_RPC_URL")
	assert.Contains(t, err.Error(), "MERCHANT_WALLET_ADDRESS")
}

func TestLoad_RejectsInvalidMerchantAddress(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MERCHANT_WALLET_ADDRESS", "not-base58!!!")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MERCHANT_WALLET_ADDRESS")
}

func TestLoad_RejectsIdenticalRPCURLs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOLANA_DEVNET_RPC_URL", "https://api.mainnet-beta.solana.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be different")
}

func TestLoad_RejectsBadPaymentNetwork(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAYMENT_NETWORK", "testnet")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_NETWORK")
}

func TestLoad_RejectsBadDurationsAndNumbers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAYMENT_VERIFY_TIMEOUT", "soon")
	t.Setenv("PAYMENT_PRICE_LAMPORTS", "-1")
	t.Setenv("SWAP_SLIPPAGE_BPS", "half")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_VERIFY_TIMEOUT")
	assert.Contains(t, err.Error(), "PAYMENT_PRICE_LAMPORTS")
	assert.Contains(t, err.Error(), "SWAP_SLIPPAGE_BPS")
}

func TestLoad_FeeWalletOptionalButValidated(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.FeeWalletAddress)

	t.Setenv("FEE_WALLET_ADDRESS", "garbage")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEE_WALLET_ADDRESS")
}

func TestRPCURLFor(t *testing.T) {
	cfg := &Config{
		SolanaMainnetRPCURL: "https://mainnet.example",
		SolanaDevnetRPCURL:  "https://devnet.example",
	}

	assert.Equal(t, "https://mainnet.example", cfg.RPCURLFor("mainnet"))
	assert.Equal(t, "https://devnet.example", cfg.RPCURLFor("devnet"))
	assert.Equal(t, "https://devnet.example", cfg.RPCURLFor(""), "unknown networks fall back to devnet")
}

func TestValidate(t *testing.T) {
	valid := &Config{
		GeminiAPIKeys:         []string{"k"},
		SolanaMainnetRPCURL:   "https://mainnet.example",
		SolanaDevnetRPCURL:    "https://devnet.example",
		MerchantWalletAddress: testMerchant,
		PaymentNetwork:        "devnet",
	}
	assert.NoError(t, valid.Validate())

	replayNoTTL := *valid
	replayNoTTL.PaymentReplayProtection = true
	err := replayNoTTL.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PaymentProofTTL")
}
