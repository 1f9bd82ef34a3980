package wallet

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
)

// CreateAssociatedTokenAccountIdempotentInstruction создаёт ATA owner+mint, если его ещё нет.
func CreateAssociatedTokenAccountIdempotentInstruction(payer, owner, mint, tokenProgram solana.PublicKey) (solana.Instruction, error) {
	ata, err := blockchain.DeriveAssociatedTokenAddress(owner, mint, tokenProgram)
	if err != nil {
		return nil, err
	}
	return CreateATAIdempotentInstruction(payer, ata, owner, mint, tokenProgram), nil
}

// CreateATAIdempotentInstruction - то же для уже вычисленного адреса ata.
func CreateATAIdempotentInstruction(payer, ata, owner, mint, tokenProgram solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		solana.AccountMetaSlice{
			solana.Meta(payer).SIGNER().WRITE(),
			solana.Meta(ata).WRITE(),
			solana.Meta(owner),
			solana.Meta(mint),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(tokenProgram),
		},
		[]byte{1}, // Instruction code 1 for create idempotent
	)
}

// WrapSOLInstructions создаёт WSOL-аккаунт owner, переводит lamports и синхронизирует баланс.
func WrapSOLInstructions(owner solana.PublicKey, lamports uint64) ([]solana.Instruction, error) {
	create, err := CreateAssociatedTokenAccountIdempotentInstruction(owner, owner, solana.SolMint, solana.TokenProgramID)
	if err != nil {
		return nil, err
	}
	ata, err := blockchain.DeriveAssociatedTokenAddress(owner, solana.SolMint, solana.TokenProgramID)
	if err != nil {
		return nil, err
	}
	return []solana.Instruction{
		create,
		system.NewTransferInstruction(lamports, owner, ata).Build(),
		token.NewSyncNativeInstruction(ata).Build(),
	}, nil
}

// CloseWSOLInstruction закрывает WSOL-аккаунт owner, возвращая лампорты владельцу.
func CloseWSOLInstruction(owner solana.PublicKey) (solana.Instruction, error) {
	ata, err := blockchain.DeriveAssociatedTokenAddress(owner, solana.SolMint, solana.TokenProgramID)
	if err != nil {
		return nil, err
	}
	return token.NewCloseAccountInstruction(ata, owner, owner, []solana.PublicKey{}).Build(), nil
}
