package txbuild

import "fmt"

// InvalidAddressError reports a field whose value failed base58 public key
// decoding. Field names the offending input ("from", "recipient", "mint", ...).
type InvalidAddressError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid %s address %q: %v", e.Field, e.Value, e.Err)
}

func (e *InvalidAddressError) Unwrap() error { return e.Err }

// FeePayerNotSignerError reports a fee funding account that sits outside the
// transaction's signer region. A transfer funded by it could never be
// authorized, so bundling is refused rather than producing an unsignable
// transaction.
type FeePayerNotSignerError struct {
	Payer   string
	Index   uint16
	Signers uint8
}

func (e *FeePayerNotSignerError) Error() string {
	return fmt.Sprintf("fee payer %s at account index %d is outside the signer region (%d signers)", e.Payer, e.Index, e.Signers)
}

// SerializationError reports a transaction (de)serialization failure.
type SerializationError struct {
	Op  string // "encode" or "decode"
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
