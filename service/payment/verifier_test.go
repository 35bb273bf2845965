package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRPCClient implements RPCClient for testing.
type mockRPCClient struct {
	result *rpc.GetTransactionResult
	err    error
}

func (m *mockRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func mustSig(t *testing.T) solana.Signature {
	t.Helper()
	sig, err := solana.SignatureFromBase58(validSig)
	require.NoError(t, err)
	return sig
}

func TestVerifyTransaction_Found(t *testing.T) {
	mock := &mockRPCClient{result: &rpc.GetTransactionResult{}}
	v := NewVerifier(mock, "devnet", nil, discardLogger())

	err := v.VerifyTransaction(context.Background(), mustSig(t))
	assert.NoError(t, err)
}

func TestVerifyTransaction_NotFound(t *testing.T) {
	// A nil result means the ledger has no record of the signature.
	mock := &mockRPCClient{result: nil}
	v := NewVerifier(mock, "devnet", nil, discardLogger())

	err := v.VerifyTransaction(context.Background(), mustSig(t))
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestVerifyTransaction_FailedOnChain(t *testing.T) {
	mock := &mockRPCClient{result: &rpc.GetTransactionResult{
		Meta: &rpc.TransactionMeta{Err: map[string]any{"InstructionError": []any{}}},
	}}
	v := NewVerifier(mock, "devnet", nil, discardLogger())

	err := v.VerifyTransaction(context.Background(), mustSig(t))
	assert.ErrorIs(t, err, ErrTransactionFailed)
}

func TestVerifyTransaction_RPCError(t *testing.T) {
	mock := &mockRPCClient{err: errors.New("connection refused")}
	v := NewVerifier(mock, "devnet", nil, discardLogger())

	err := v.VerifyTransaction(context.Background(), mustSig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger lookup")
}
