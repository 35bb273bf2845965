package txbuild

import (
	"github.com/gagliardetto/solana-go"
)

// AppendFee deserializes a base64-encoded transaction, appends a lamport
// transfer of feeAmount from payer to feeWallet, and re-serializes it. A
// zero feeAmount or empty feeWallet is a no-op: the input is returned
// unchanged, byte for byte.
//
// Existing key-table entries are reused; keys not present are appended after
// the compiled table. The message header counts are left as the provider
// compiled them, so appended keys land in the unsigned read-write region.
// The payer is normally the transaction's existing fee payer (index 0); it
// must already sit inside the signer region, otherwise the appended transfer
// could never be authorized and a *FeePayerNotSignerError is returned.
func AppendFee(txBase64, payer, feeWallet string, feeAmount uint64) (string, error) {
	if feeAmount == 0 || feeWallet == "" {
		return txBase64, nil
	}

	tx, err := DecodeBase64(txBase64)
	if err != nil {
		return "", err
	}

	payerKey, err := solana.PublicKeyFromBase58(payer)
	if err != nil {
		return "", &InvalidAddressError{Field: "payer", Value: payer, Err: err}
	}
	feeKey, err := solana.PublicKeyFromBase58(feeWallet)
	if err != nil {
		return "", &InvalidAddressError{Field: "fee_wallet", Value: feeWallet, Err: err}
	}

	msg := &tx.Message
	payerIdx := keyIndex(msg, payerKey)
	if payerIdx >= uint16(msg.Header.NumRequiredSignatures) {
		return "", &FeePayerNotSignerError{
			Payer:   payer,
			Index:   payerIdx,
			Signers: msg.Header.NumRequiredSignatures,
		}
	}
	feeIdx := keyIndex(msg, feeKey)
	programIdx := keyIndex(msg, SystemProgramID)

	msg.Instructions = append(msg.Instructions, solana.CompiledInstruction{
		ProgramIDIndex: programIdx,
		Accounts:       []uint16{payerIdx, feeIdx},
		Data:           solana.Base58(systemTransferData(feeAmount)),
	})

	return EncodeBase64(tx)
}

// keyIndex returns the index of key in the message's account table,
// appending it first if absent. Repeat calls with the same key always
// return the same index.
func keyIndex(msg *solana.Message, key solana.PublicKey) uint16 {
	for i, existing := range msg.AccountKeys {
		if existing.Equals(key) {
			return uint16(i)
		}
	}
	msg.AccountKeys = append(msg.AccountKeys, key)
	return uint16(len(msg.AccountKeys) - 1)
}
