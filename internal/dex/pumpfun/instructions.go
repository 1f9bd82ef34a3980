// ==============================================
// File: internal/dex/pumpfun/instructions.go
// ==============================================
package pumpfun

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	bin "github.com/rovshanmuradov/pump-trader/internal/utils/binary"
)

func encodeArgs(selector []byte, a, b uint64) ([]byte, error) {
	data, err := bin.NewWriter().Raw(selector).U64(a).U64(b).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode instruction data: %w", err)
	}
	return data, nil
}

func atLeastOne(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	return v
}

// BuildBuyInstruction собирает buy на кривой: получить tokenAmount, потратив не более maxSolCost.
func BuildBuyInstruction(curve *BondingCurve, accounts *TradeAccounts, tokenAmount, maxSolCost uint64) (solana.Instruction, error) {
	if err := curve.EnsureOpen(); err != nil {
		return nil, err
	}
	data, err := encodeArgs(BuyDiscriminator, atLeastOne(tokenAmount), maxSolCost)
	if err != nil {
		return nil, err
	}

	// Порядок аккаунтов фиксирован программой
	metas := solana.AccountMetaSlice{
		solana.Meta(accounts.Global),
		solana.Meta(accounts.FeeRecipient).WRITE(),
		solana.Meta(accounts.Mint),
		solana.Meta(accounts.BondingCurve).WRITE(),
		solana.Meta(accounts.AssociatedBondingCurve).WRITE(),
		solana.Meta(accounts.UserATA).WRITE(),
		solana.Meta(accounts.User).SIGNER().WRITE(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(accounts.TokenProgram),
		solana.Meta(accounts.CreatorVault).WRITE(),
		solana.Meta(accounts.EventAuthority),
		solana.Meta(PumpFunProgramID),
		solana.Meta(accounts.GlobalVolumeAccumulator).WRITE(),
		solana.Meta(accounts.UserVolumeAccumulator).WRITE(),
		solana.Meta(accounts.FeeConfig),
		solana.Meta(PumpFeeProgramID),
	}
	return solana.NewInstruction(PumpFunProgramID, metas, data), nil
}

// BuildSellInstruction собирает sell на кривой: продать tokenAmount, получив не менее minSolOutput.
// Нулевая нижняя граница поднимается до 1.
func BuildSellInstruction(curve *BondingCurve, accounts *TradeAccounts, tokenAmount, minSolOutput uint64) (solana.Instruction, error) {
	if err := curve.EnsureOpen(); err != nil {
		return nil, err
	}
	data, err := encodeArgs(SellDiscriminator, tokenAmount, atLeastOne(minSolOutput))
	if err != nil {
		return nil, err
	}

	// creator vault идёт перед token program, в отличие от buy
	metas := solana.AccountMetaSlice{
		solana.Meta(accounts.Global),
		solana.Meta(accounts.FeeRecipient).WRITE(),
		solana.Meta(accounts.Mint),
		solana.Meta(accounts.BondingCurve).WRITE(),
		solana.Meta(accounts.AssociatedBondingCurve).WRITE(),
		solana.Meta(accounts.UserATA).WRITE(),
		solana.Meta(accounts.User).SIGNER().WRITE(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(accounts.CreatorVault).WRITE(),
		solana.Meta(accounts.TokenProgram),
		solana.Meta(accounts.EventAuthority),
		solana.Meta(PumpFunProgramID),
		solana.Meta(accounts.FeeConfig),
		solana.Meta(PumpFeeProgramID),
	}
	return solana.NewInstruction(PumpFunProgramID, metas, data), nil
}
