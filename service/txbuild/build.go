// Package txbuild constructs unsigned Solana transactions: native and SPL
// token transfers, dust-sized rehearsal transfers, and fee injection into
// externally built transactions. Everything here is pure computation; no
// network access, no signing.
package txbuild

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/michealimuse777/solana-ai-agent/service/registry"
)

// MockTransferLamports is the dust amount moved by rehearsal transactions
// (0.000001 SOL).
const MockTransferLamports = uint64(1000)

// NativeTransfer builds an unsigned SOL transfer of amount (in SOL) from one
// wallet to another. An undecodable sender is an error; an undecodable
// recipient degrades to a self-transfer so the caller still gets a valid
// transaction to rehearse with.
func NativeTransfer(from, to string, amount float64) (*solana.Transaction, error) {
	sender, err := solana.PublicKeyFromBase58(from)
	if err != nil {
		return nil, &InvalidAddressError{Field: "from", Value: from, Err: err}
	}

	recipient, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		recipient = sender
	}

	lamports, err := registry.Lamports(amount)
	if err != nil {
		return nil, fmt.Errorf("convert amount: %w", err)
	}

	ix := system.NewTransferInstruction(lamports, sender, recipient).Build()
	return newUnsignedTransaction([]solana.Instruction{ix}, sender)
}

// TokenTransfer builds an unsigned SPL token transfer of amount atomic units
// between the owner's and recipient's associated token accounts. The
// transaction carries exactly two instructions, in order: an idempotent
// create of the recipient's ATA, then the token transfer authorized by the
// owner. The owner funds the ATA creation and pays the transaction fee.
func TokenTransfer(owner, recipient, mint string, amount uint64) (*solana.Transaction, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return nil, &InvalidAddressError{Field: "owner", Value: owner, Err: err}
	}
	recipientKey, err := solana.PublicKeyFromBase58(recipient)
	if err != nil {
		return nil, &InvalidAddressError{Field: "recipient", Value: recipient, Err: err}
	}
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, &InvalidAddressError{Field: "mint", Value: mint, Err: err}
	}

	sourceATA, _, err := solana.FindAssociatedTokenAddress(ownerKey, mintKey)
	if err != nil {
		return nil, fmt.Errorf("derive source token account: %w", err)
	}
	destATA, _, err := solana.FindAssociatedTokenAddress(recipientKey, mintKey)
	if err != nil {
		return nil, fmt.Errorf("derive destination token account: %w", err)
	}

	createIx := newCreateIdempotentATAInstruction(ownerKey, destATA, recipientKey, mintKey)
	transferIx := token.NewTransferInstruction(amount, sourceATA, destATA, ownerKey, nil).Build()

	return newUnsignedTransaction([]solana.Instruction{createIx, transferIx}, ownerKey)
}

// MockTransfer builds an unsigned self-transfer of dust from the user's
// wallet back to itself. Used as the rehearsal transaction on test networks
// and for assets without an issuance on the requested network.
func MockTransfer(user string) (*solana.Transaction, error) {
	userKey, err := solana.PublicKeyFromBase58(user)
	if err != nil {
		return nil, &InvalidAddressError{Field: "user", Value: user, Err: err}
	}

	ix := system.NewTransferInstruction(MockTransferLamports, userKey, userKey).Build()
	return newUnsignedTransaction([]solana.Instruction{ix}, userKey)
}

// newUnsignedTransaction compiles instructions into a legacy transaction with
// a zero recent-blockhash placeholder and one all-zero signature slot per
// required signer. The signer swaps in a live blockhash before signing.
func newUnsignedTransaction(instructions []solana.Instruction, payer solana.PublicKey) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(instructions, solana.Hash{}, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("compile transaction: %w", err)
	}
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	return tx, nil
}
