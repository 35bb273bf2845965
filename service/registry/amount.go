package registry

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of atomic units in one SOL.
const LamportsPerSOL = 1_000_000_000

// ToAtomic converts a human-readable amount into atomic units for an asset
// with the given number of decimals. Conversion is exact fixed-point: the
// amount is shifted by decimals and truncated toward zero, never rounded up,
// so 0.5 SOL is exactly 500000000 lamports and 1.9999999999 SOL never
// becomes 2 SOL.
func ToAtomic(amount float64, decimals uint8) (uint64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("amount must be a finite number")
	}
	if amount < 0 {
		return 0, fmt.Errorf("amount must not be negative, got %v", amount)
	}
	atomic := decimal.NewFromFloat(amount).Shift(int32(decimals)).BigInt()
	if !atomic.IsUint64() {
		return 0, fmt.Errorf("amount %v overflows at %d decimals", amount, decimals)
	}
	return atomic.Uint64(), nil
}

// Lamports converts a SOL amount to lamports.
func Lamports(amount float64) (uint64, error) {
	return ToAtomic(amount, 9)
}
