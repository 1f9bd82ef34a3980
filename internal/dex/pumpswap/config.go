// =============================
// File: internal/dex/pumpswap/config.go
// =============================
package pumpswap

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	"github.com/rovshanmuradov/pump-trader/internal/dex/pumpfun"
)

var (
	// PumpSwapProgramID - программа AMM, куда мигрируют завершённые кривые.
	PumpSwapProgramID = solana.MustPublicKeyFromBase58("pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA")

	// WSOLMint - quote-сторона канонического пула.
	WSOLMint = solana.SolMint
)

const (
	seedPool           = "pool"
	seedGlobalConfig   = "global_config"
	seedCreatorVault   = "creator_vault"
	seedEventAuthority = "__event_authority"

	// CanonicalPoolIndex - индекс пула, который создаёт миграция.
	CanonicalPoolIndex uint16 = 0
)

func derive(seeds ...[]byte) (solana.PublicKey, error) {
	addr, _, err := blockchain.DeriveAddress(PumpSwapProgramID, seeds...)
	return addr, err
}

// PoolAddress вычисляет адрес канонического пула mint/WSOL.
// Authority пула - PDA программы кривой ("pool-authority", mint).
func PoolAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	authority, err := pumpfun.PoolAuthorityAddress(mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive pool authority: %w", err)
	}
	index := make([]byte, 2)
	binary.LittleEndian.PutUint16(index, CanonicalPoolIndex)
	return derive([]byte(seedPool), index, authority[:], mint[:], WSOLMint[:])
}

// GlobalConfigAddress вычисляет PDA глобальной конфигурации AMM.
func GlobalConfigAddress() (solana.PublicKey, error) {
	return derive([]byte(seedGlobalConfig))
}

func EventAuthorityAddress() (solana.PublicKey, error) {
	return derive([]byte(seedEventAuthority))
}

// CoinCreatorVaultAuthority - PDA, владеющий комиссиями создателя монеты в AMM.
func CoinCreatorVaultAuthority(coinCreator solana.PublicKey) (solana.PublicKey, error) {
	return derive([]byte(seedCreatorVault), coinCreator[:])
}

func GlobalVolumeAccumulatorAddress() (solana.PublicKey, error) {
	return derive([]byte(pumpfun.SeedGlobalVolumeAccumulator))
}

func UserVolumeAccumulatorAddress(user solana.PublicKey) (solana.PublicKey, error) {
	return derive([]byte(pumpfun.SeedUserVolumeAccumulator), user[:])
}

// FeeConfigAddress - fee config AMM под общей fee-программой.
func FeeConfigAddress() (solana.PublicKey, error) {
	addr, _, err := blockchain.DeriveAddress(pumpfun.PumpFeeProgramID, []byte(pumpfun.SeedFeeConfig), PumpSwapProgramID[:])
	return addr, err
}
