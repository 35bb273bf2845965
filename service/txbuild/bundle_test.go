package txbuild

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodedTransfer(t *testing.T) string {
	t.Helper()
	tx, err := NativeTransfer(testSender, testRecipient, 0.1)
	require.NoError(t, err)
	blob, err := EncodeBase64(tx)
	require.NoError(t, err)
	return blob
}

func TestAppendFee_ZeroAmountIsByteIdenticalNoOp(t *testing.T) {
	blob := encodedTransfer(t)

	out, err := AppendFee(blob, testSender, testFeeWallet, 0)
	require.NoError(t, err)
	assert.Equal(t, blob, out)
}

func TestAppendFee_EmptyWalletIsByteIdenticalNoOp(t *testing.T) {
	blob := encodedTransfer(t)

	out, err := AppendFee(blob, testSender, "", 5000)
	require.NoError(t, err)
	assert.Equal(t, blob, out)
}

func TestAppendFee_AppendsTransferInstruction(t *testing.T) {
	blob := encodedTransfer(t)
	original, err := DecodeBase64(blob)
	require.NoError(t, err)

	out, err := AppendFee(blob, testSender, testFeeWallet, 5000)
	require.NoError(t, err)

	tx, err := DecodeBase64(out)
	require.NoError(t, err)
	keys := tx.Message.AccountKeys

	require.Len(t, tx.Message.Instructions, len(original.Message.Instructions)+1)
	feeIx := tx.Message.Instructions[len(tx.Message.Instructions)-1]

	// The appended instruction moves feeAmount from the payer to the fee
	// wallet via the system program.
	assert.Equal(t, SystemProgramID, keys[feeIx.ProgramIDIndex])
	require.Len(t, feeIx.Accounts, 2)
	assert.Equal(t, testSender, keys[feeIx.Accounts[0]].String())
	assert.Equal(t, testFeeWallet, keys[feeIx.Accounts[1]].String())

	data := []byte(feeIx.Data)
	require.Len(t, data, 12)
	assert.Equal(t, SystemProgramTransferInstruction, binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint64(5000), binary.LittleEndian.Uint64(data[4:12]))

	// Payer and system program indices are reused from the compiled table;
	// only the fee wallet is new, appended after the original keys.
	assert.Equal(t, uint16(0), feeIx.Accounts[0])
	assert.Equal(t, uint16(len(keys)-1), feeIx.Accounts[1])
	assert.Len(t, keys, len(original.Message.AccountKeys)+1)

	// Header counts are exactly as the provider compiled them.
	assert.Equal(t, original.Message.Header, tx.Message.Header)
}

func TestAppendFee_ReusesKeysOnRepeatApplication(t *testing.T) {
	blob := encodedTransfer(t)

	once, err := AppendFee(blob, testSender, testFeeWallet, 5000)
	require.NoError(t, err)
	twice, err := AppendFee(once, testSender, testFeeWallet, 5000)
	require.NoError(t, err)

	txOnce, err := DecodeBase64(once)
	require.NoError(t, err)
	txTwice, err := DecodeBase64(twice)
	require.NoError(t, err)

	// Second application reuses every index: one more instruction, no new
	// account entries.
	assert.Len(t, txTwice.Message.Instructions, len(txOnce.Message.Instructions)+1)
	assert.Equal(t, txOnce.Message.AccountKeys, txTwice.Message.AccountKeys)

	feeKey := solana.MustPublicKeyFromBase58(testFeeWallet)
	occurrences := 0
	for _, k := range txTwice.Message.AccountKeys {
		if k.Equals(feeKey) {
			occurrences++
		}
	}
	assert.Equal(t, 1, occurrences)

	last := txTwice.Message.Instructions[len(txTwice.Message.Instructions)-1]
	prev := txTwice.Message.Instructions[len(txTwice.Message.Instructions)-2]
	assert.Equal(t, prev.Accounts, last.Accounts)
}

func TestAppendFee_GarbageBlobFails(t *testing.T) {
	_, err := AppendFee("!!!not-base64!!!", testSender, testFeeWallet, 5000)
	require.Error(t, err)

	var serErr *SerializationError
	assert.True(t, errors.As(err, &serErr))
}

func TestAppendFee_PayerOutsideSignerRegionFails(t *testing.T) {
	blob := encodedTransfer(t)

	// The recipient is in the key table, but past the signer boundary: a
	// transfer it funds could never be authorized.
	_, err := AppendFee(blob, testRecipient, testFeeWallet, 5000)
	require.Error(t, err)

	var payerErr *FeePayerNotSignerError
	require.True(t, errors.As(err, &payerErr))
	assert.Equal(t, testRecipient, payerErr.Payer)
	assert.Equal(t, uint8(1), payerErr.Signers)
	assert.GreaterOrEqual(t, payerErr.Index, uint16(payerErr.Signers))

	// An account absent from the table entirely is rejected the same way.
	_, err = AppendFee(blob, testFeeWallet, testRecipient, 5000)
	require.Error(t, err)
	assert.True(t, errors.As(err, &payerErr))
}

func TestAppendFee_BadPayerFails(t *testing.T) {
	blob := encodedTransfer(t)

	_, err := AppendFee(blob, "bogus", testFeeWallet, 5000)
	require.Error(t, err)

	var addrErr *InvalidAddressError
	require.True(t, errors.As(err, &addrErr))
	assert.Equal(t, "payer", addrErr.Field)
}
