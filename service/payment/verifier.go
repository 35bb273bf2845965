// Package payment gates requests on verifiable on-chain payment proofs. A
// proof is a transaction signature presented in the X-Payment-Sig header and
// checked against the configured network's ledger.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/michealimuse777/solana-ai-agent/service/metrics"
)

// RPCClient is the slice of the Solana RPC surface the gate needs.
// This allows us to mock the RPC layer in tests without hitting real nodes.
type RPCClient interface {
	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

var (
	// ErrTransactionNotFound indicates the ledger has no record of the
	// signature.
	ErrTransactionNotFound = errors.New("transaction not found on ledger")

	// ErrTransactionFailed indicates the referenced transaction executed
	// but failed on chain.
	ErrTransactionFailed = errors.New("transaction failed on chain")
)

// Verifier checks payment proofs against the ledger via a single RPC lookup.
type Verifier struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // RPC endpoint identifier for metrics (e.g., "mainnet", "devnet")
}

// NewVerifier creates a ledger verifier. The endpoint parameter is used for
// metrics labeling. If m is nil, no metrics are recorded.
func NewVerifier(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Verifier {
	return &Verifier{
		rpc:      rpcClient,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// VerifyTransaction confirms the signature references a transaction the
// ledger has seen and that the transaction did not fail. The lookup is made
// exactly once; callers bound it with a context deadline.
func (v *Verifier) VerifyTransaction(ctx context.Context, sig solana.Signature) error {
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &[]uint64{0}[0],
	}

	start := time.Now()
	result, err := v.rpc.GetTransaction(ctx, sig, opts)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if v.metrics != nil {
		v.metrics.RecordRPCCall("GetTransaction", status, v.endpoint, duration)
	}

	if err != nil {
		v.logger.DebugContext(ctx, "ledger lookup failed",
			"signature", sig.String(),
			"error", err,
		)
		return fmt.Errorf("ledger lookup: %w", err)
	}
	if result == nil {
		return ErrTransactionNotFound
	}
	if result.Meta != nil && result.Meta.Err != nil {
		return ErrTransactionFailed
	}
	return nil
}
