// =============================
// File: internal/dex/pumpfun/accounts.go
// =============================
package pumpfun

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
)

func derive(seeds ...[]byte) (solana.PublicKey, error) {
	addr, _, err := blockchain.DeriveAddress(PumpFunProgramID, seeds...)
	return addr, err
}

// GlobalAddress - PDA глобальной конфигурации.
func GlobalAddress() (solana.PublicKey, error) {
	return derive([]byte(SeedGlobal))
}

// BondingCurveAddress - PDA состояния кривой для mint.
func BondingCurveAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	return derive([]byte(SeedBondingCurve), mint[:])
}

// CreatorVaultAddress - PDA хранилища комиссий создателя.
func CreatorVaultAddress(creator solana.PublicKey) (solana.PublicKey, error) {
	return derive([]byte(SeedCreatorVault), creator[:])
}

func EventAuthorityAddress() (solana.PublicKey, error) {
	return derive([]byte(SeedEventAuthority))
}

func GlobalVolumeAccumulatorAddress() (solana.PublicKey, error) {
	return derive([]byte(SeedGlobalVolumeAccumulator))
}

func UserVolumeAccumulatorAddress(user solana.PublicKey) (solana.PublicKey, error) {
	return derive([]byte(SeedUserVolumeAccumulator), user[:])
}

// FeeConfigAddress - PDA fee config под fee-программой; второй seed - 32 байта program id кривой.
func FeeConfigAddress() (solana.PublicKey, error) {
	addr, _, err := blockchain.DeriveAddress(PumpFeeProgramID, []byte(SeedFeeConfig), PumpFunProgramID[:])
	return addr, err
}

// PoolAuthorityAddress - PDA, от имени которого кривая создаёт канонический AMM-пул при миграции.
func PoolAuthorityAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	return derive([]byte(SeedPoolAuthority), mint[:])
}

// TradeAccounts - полный набор адресов для buy/sell на кривой.
type TradeAccounts struct {
	Global                  solana.PublicKey
	FeeRecipient            solana.PublicKey
	Mint                    solana.PublicKey
	BondingCurve            solana.PublicKey
	AssociatedBondingCurve  solana.PublicKey
	UserATA                 solana.PublicKey
	User                    solana.PublicKey
	TokenProgram            solana.PublicKey
	CreatorVault            solana.PublicKey
	EventAuthority          solana.PublicKey
	GlobalVolumeAccumulator solana.PublicKey
	UserVolumeAccumulator   solana.PublicKey
	FeeConfig               solana.PublicKey
}

// ResolveTradeAccounts вычисляет все PDA и ATA для сделки user по mint.
func ResolveTradeAccounts(mint, user solana.PublicKey, global *GlobalAccount, curve *BondingCurve, tokenProgram solana.PublicKey) (*TradeAccounts, error) {
	a := &TradeAccounts{
		FeeRecipient: global.FeeRecipient,
		Mint:         mint,
		User:         user,
		TokenProgram: tokenProgram,
	}

	var err error
	if a.Global, err = GlobalAddress(); err != nil {
		return nil, fmt.Errorf("failed to derive global: %w", err)
	}
	if a.BondingCurve, err = BondingCurveAddress(mint); err != nil {
		return nil, fmt.Errorf("failed to derive bonding curve: %w", err)
	}
	if a.AssociatedBondingCurve, err = blockchain.DeriveAssociatedTokenAddress(a.BondingCurve, mint, tokenProgram); err != nil {
		return nil, fmt.Errorf("failed to derive associated bonding curve: %w", err)
	}
	if a.UserATA, err = blockchain.DeriveAssociatedTokenAddress(user, mint, tokenProgram); err != nil {
		return nil, fmt.Errorf("failed to derive user ATA: %w", err)
	}
	if a.CreatorVault, err = CreatorVaultAddress(curve.Creator); err != nil {
		return nil, fmt.Errorf("failed to derive creator vault: %w", err)
	}
	if a.EventAuthority, err = EventAuthorityAddress(); err != nil {
		return nil, fmt.Errorf("failed to derive event authority: %w", err)
	}
	if a.GlobalVolumeAccumulator, err = GlobalVolumeAccumulatorAddress(); err != nil {
		return nil, fmt.Errorf("failed to derive global volume accumulator: %w", err)
	}
	if a.UserVolumeAccumulator, err = UserVolumeAccumulatorAddress(user); err != nil {
		return nil, fmt.Errorf("failed to derive user volume accumulator: %w", err)
	}
	if a.FeeConfig, err = FeeConfigAddress(); err != nil {
		return nil, fmt.Errorf("failed to derive fee config: %w", err)
	}
	return a, nil
}
