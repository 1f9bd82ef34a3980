// internal/blockchain/blockchain.go
package blockchain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	MetadataProgramID  = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
)

// DeriveAddress вычисляет PDA для programID и упорядоченных seeds.
// Порядок seeds - часть протокола.
func DeriveAddress(programID solana.PublicKey, seeds ...[]byte) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("%w: program %s: %v", ErrAddressDerivationExhausted, programID, err)
	}
	return addr, bump, nil
}

// DeriveAssociatedTokenAddress вычисляет ATA для owner+mint под конкретной токен-программой.
func DeriveAssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := DeriveAddress(solana.SPLAssociatedTokenAccountProgramID, owner[:], tokenProgram[:], mint[:])
	return addr, err
}

// DeriveMetadataAddress вычисляет адрес Metaplex-метаданных для mint.
func DeriveMetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := DeriveAddress(MetadataProgramID, []byte("metadata"), MetadataProgramID[:], mint[:])
	return addr, err
}
