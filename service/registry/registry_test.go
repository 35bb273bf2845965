package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_CaseInsensitive(t *testing.T) {
	r := ForNetwork("mainnet")

	// Same token regardless of how the symbol is cased.
	for _, sym := range []string{"usdc", "USDC", "Usdc", "uSdC"} {
		tok, err := r.Resolve(sym)
		require.NoError(t, err, "symbol %q should resolve", sym)
		assert.Equal(t, "USDC", tok.Symbol)
		assert.Equal(t, USDCMainnetMint, tok.Mint)
		assert.Equal(t, uint8(6), tok.Decimals)
		assert.False(t, tok.Native)
	}
}

func TestResolve_EmptySymbolIsNativeSOL(t *testing.T) {
	for _, network := range []string{"mainnet", "devnet"} {
		tok, err := ForNetwork(network).Resolve("")
		require.NoError(t, err)
		assert.Equal(t, "SOL", tok.Symbol)
		assert.True(t, tok.Native)
		assert.Equal(t, uint8(9), tok.Decimals)
	}
}

func TestResolve_UnknownSymbol(t *testing.T) {
	r := ForNetwork("mainnet")

	_, err := r.Resolve("DOGE")
	require.Error(t, err)

	var unsupported *UnsupportedAssetError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "DOGE", unsupported.Symbol)
	assert.Equal(t, "mainnet", unsupported.Network)
	// The error enumerates what the network does support.
	assert.Equal(t, []string{"BONK", "SOL", "USDC"}, unsupported.Supported)
	assert.Contains(t, err.Error(), "DOGE")
	assert.Contains(t, err.Error(), "SOL")
}

func TestForNetwork_DevnetHasNoBONK(t *testing.T) {
	devnet := ForNetwork("devnet")

	assert.False(t, devnet.IsSupported("BONK"))
	assert.True(t, devnet.IsSupported("usdc"))
	assert.True(t, devnet.IsSupported("SOL"))

	// Devnet USDC is a different mint than mainnet USDC.
	devUSDC, err := devnet.Resolve("USDC")
	require.NoError(t, err)
	mainUSDC, err := ForNetwork("mainnet").Resolve("USDC")
	require.NoError(t, err)
	assert.NotEqual(t, mainUSDC.Mint, devUSDC.Mint)
}

func TestForNetwork_UnknownNetworkGetsDevnet(t *testing.T) {
	r := ForNetwork("testnet")
	assert.Equal(t, "devnet", r.Network())
}
