// Package registry holds the static token tables the agent can build
// transactions for. Tables are per-network: a symbol may exist on mainnet
// but have no devnet issuance.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Well-known mint addresses.
var (
	// WrappedSOLMint is the wSOL mint, used as the mint identity of native
	// SOL when talking to swap providers.
	WrappedSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	// USDCMainnetMint is Circle's mainnet USDC mint.
	USDCMainnetMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	// USDCDevnetMint is Circle's devnet USDC mint.
	USDCDevnetMint = solana.MustPublicKeyFromBase58("4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU")

	// BONKMainnetMint is the BONK mint (mainnet only).
	BONKMainnetMint = solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263")
)

// Token describes an asset the agent can build transactions for.
type Token struct {
	Symbol   string
	Mint     solana.PublicKey
	Decimals uint8
	Native   bool // native SOL, moved via the system program rather than SPL token accounts
}

// Registry resolves token symbols for a single network.
// Lookups are case-insensitive. The zero value is unusable; use ForNetwork.
type Registry struct {
	network string
	tokens  map[string]Token
}

var (
	mainnetRegistry = build("mainnet", []Token{
		{Symbol: "SOL", Mint: WrappedSOLMint, Decimals: 9, Native: true},
		{Symbol: "USDC", Mint: USDCMainnetMint, Decimals: 6},
		{Symbol: "BONK", Mint: BONKMainnetMint, Decimals: 5},
	})
	devnetRegistry = build("devnet", []Token{
		{Symbol: "SOL", Mint: WrappedSOLMint, Decimals: 9, Native: true},
		{Symbol: "USDC", Mint: USDCDevnetMint, Decimals: 6},
	})
)

func build(network string, tokens []Token) *Registry {
	r := &Registry{
		network: network,
		tokens:  make(map[string]Token, len(tokens)),
	}
	for _, t := range tokens {
		r.tokens[strings.ToUpper(t.Symbol)] = t
	}
	return r
}

// ForNetwork returns the token registry for the given network.
// "mainnet" selects the mainnet tables; anything else gets devnet.
func ForNetwork(network string) *Registry {
	if network == "mainnet" {
		return mainnetRegistry
	}
	return devnetRegistry
}

// Network returns the network this registry serves.
func (r *Registry) Network() string {
	return r.network
}

// Resolve looks up a token by symbol, ignoring case. The empty symbol
// resolves to native SOL. Unknown symbols return an UnsupportedAssetError
// listing what the network does support.
func (r *Registry) Resolve(symbol string) (Token, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	if key == "" {
		key = "SOL"
	}
	t, ok := r.tokens[key]
	if !ok {
		return Token{}, &UnsupportedAssetError{
			Symbol:    symbol,
			Network:   r.network,
			Supported: r.Symbols(),
		}
	}
	return t, nil
}

// IsSupported reports whether the symbol resolves on this network.
func (r *Registry) IsSupported(symbol string) bool {
	_, err := r.Resolve(symbol)
	return err == nil
}

// Symbols returns the supported symbols in sorted order.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.tokens))
	for sym := range r.tokens {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// UnsupportedAssetError indicates a symbol with no entry on the requested
// network's registry.
type UnsupportedAssetError struct {
	Symbol    string
	Network   string
	Supported []string
}

func (e *UnsupportedAssetError) Error() string {
	return fmt.Sprintf("unsupported token %q on %s (supported: %s)",
		e.Symbol, e.Network, strings.Join(e.Supported, ", "))
}
