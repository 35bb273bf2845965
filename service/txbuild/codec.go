package txbuild

import (
	"encoding/base64"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// EncodeBase64 serializes a transaction to its base64 wire form.
func EncodeBase64(tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", &SerializationError{Op: "encode", Err: err}
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeBase64 parses a base64-encoded serialized transaction.
func DecodeBase64(blob string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, &SerializationError{Op: "decode", Err: err}
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, &SerializationError{Op: "decode", Err: err}
	}
	return tx, nil
}
