package txbuild

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Well-known Solana program IDs
var (
	// SystemProgramID is the native SOL transfer program
	SystemProgramID = solana.SystemProgramID

	// TokenProgramID is the SPL Token program
	TokenProgramID = solana.TokenProgramID

	// AssociatedTokenProgramID is the Associated Token Account program
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID
)

// System Program instruction types
const (
	SystemProgramTransferInstruction = uint32(2)
)

// Associated Token Account program instruction types
const (
	ATACreateIdempotentInstruction = uint8(1)
)

// systemTransferData encodes the data payload of a System Program Transfer:
// [0..4]  = instruction type (u32 little-endian, 2 = Transfer)
// [4..12] = lamports (u64 little-endian)
func systemTransferData(lamports uint64) []byte {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], SystemProgramTransferInstruction)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return data
}

// newCreateIdempotentATAInstruction builds the Associated Token Account
// program's CreateIdempotent instruction: create the wallet's ATA for the
// mint if it does not exist, succeed without effect if it does.
// Account order is fixed by the program: funding payer, ata, wallet owner,
// mint, system program, token program.
func newCreateIdempotentATAInstruction(payer, ata, owner, mint solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		AssociatedTokenProgramID,
		solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(ata).WRITE(),
			solana.Meta(owner),
			solana.Meta(mint),
			solana.Meta(SystemProgramID),
			solana.Meta(TokenProgramID),
		},
		[]byte{ATACreateIdempotentInstruction},
	)
}
