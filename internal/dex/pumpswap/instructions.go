// =============================
// File: internal/dex/pumpswap/instructions.go
// =============================
package pumpswap

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	"github.com/rovshanmuradov/pump-trader/internal/dex/pumpfun"
	bin "github.com/rovshanmuradov/pump-trader/internal/utils/binary"
)

// Instruction discriminators extracted from the IDL
var (
	buyDiscriminator  = []byte{102, 6, 61, 18, 1, 218, 235, 234}
	sellDiscriminator = []byte{51, 230, 133, 164, 1, 127, 131, 173}
)

// trackVolume - OptionBool Some(true) в конце данных buy.
var trackVolume = []byte{1, 1}

// SwapAccounts contains all accounts needed to create a swap instruction
type SwapAccounts struct {
	Pool                             solana.PublicKey
	User                             solana.PublicKey
	GlobalConfig                     solana.PublicKey
	BaseMint                         solana.PublicKey
	QuoteMint                        solana.PublicKey
	UserBaseTokenAccount             solana.PublicKey
	UserQuoteTokenAccount            solana.PublicKey
	PoolBaseTokenAccount             solana.PublicKey
	PoolQuoteTokenAccount            solana.PublicKey
	ProtocolFeeRecipient             solana.PublicKey
	ProtocolFeeRecipientTokenAccount solana.PublicKey
	BaseTokenProgram                 solana.PublicKey
	QuoteTokenProgram                solana.PublicKey
	EventAuthority                   solana.PublicKey
	CoinCreatorVaultATA              solana.PublicKey
	CoinCreatorVaultAuthority        solana.PublicKey
	GlobalVolumeAccumulator          solana.PublicKey
	UserVolumeAccumulator            solana.PublicKey
	FeeConfig                        solana.PublicKey
}

// ResolveSwapAccounts вычисляет адреса свапа для user по состоянию пула.
// baseTokenProgram - программа mint'а, quote всегда WSOL под legacy-программой.
func ResolveSwapAccounts(state *PoolState, user, baseTokenProgram solana.PublicKey) (*SwapAccounts, error) {
	pool := state.Pool
	quoteProgram := solana.TokenProgramID
	a := &SwapAccounts{
		Pool:                  state.Address,
		User:                  user,
		BaseMint:              pool.BaseMint,
		QuoteMint:             pool.QuoteMint,
		PoolBaseTokenAccount:  pool.PoolBaseTokenAccount,
		PoolQuoteTokenAccount: pool.PoolQuoteTokenAccount,
		ProtocolFeeRecipient:  state.Config.ProtocolFeeRecipient(),
		BaseTokenProgram:      baseTokenProgram,
		QuoteTokenProgram:     quoteProgram,
	}

	var err error
	steps := []struct {
		name string
		fn   func() (solana.PublicKey, error)
		dst  *solana.PublicKey
	}{
		{"global config", GlobalConfigAddress, &a.GlobalConfig},
		{"user base ATA", func() (solana.PublicKey, error) {
			return blockchain.DeriveAssociatedTokenAddress(user, pool.BaseMint, baseTokenProgram)
		}, &a.UserBaseTokenAccount},
		{"user quote ATA", func() (solana.PublicKey, error) {
			return blockchain.DeriveAssociatedTokenAddress(user, pool.QuoteMint, quoteProgram)
		}, &a.UserQuoteTokenAccount},
		{"protocol fee recipient ATA", func() (solana.PublicKey, error) {
			return blockchain.DeriveAssociatedTokenAddress(a.ProtocolFeeRecipient, pool.QuoteMint, quoteProgram)
		}, &a.ProtocolFeeRecipientTokenAccount},
		{"event authority", EventAuthorityAddress, &a.EventAuthority},
		{"coin creator vault authority", func() (solana.PublicKey, error) {
			return CoinCreatorVaultAuthority(pool.CoinCreator)
		}, &a.CoinCreatorVaultAuthority},
		{"coin creator vault ATA", func() (solana.PublicKey, error) {
			return blockchain.DeriveAssociatedTokenAddress(a.CoinCreatorVaultAuthority, pool.QuoteMint, quoteProgram)
		}, &a.CoinCreatorVaultATA},
		{"global volume accumulator", GlobalVolumeAccumulatorAddress, &a.GlobalVolumeAccumulator},
		{"user volume accumulator", func() (solana.PublicKey, error) {
			return UserVolumeAccumulatorAddress(user)
		}, &a.UserVolumeAccumulator},
		{"fee config", FeeConfigAddress, &a.FeeConfig},
	}
	for _, s := range steps {
		if *s.dst, err = s.fn(); err != nil {
			return nil, fmt.Errorf("failed to derive %s: %w", s.name, err)
		}
	}
	return a, nil
}

// common - первые 19 аккаунтов, общие для buy и sell.
func (a *SwapAccounts) common() solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.Meta(a.Pool).WRITE(),
		solana.Meta(a.User).SIGNER().WRITE(),
		solana.Meta(a.GlobalConfig),
		solana.Meta(a.BaseMint),
		solana.Meta(a.QuoteMint),
		solana.Meta(a.UserBaseTokenAccount).WRITE(),
		solana.Meta(a.UserQuoteTokenAccount).WRITE(),
		solana.Meta(a.PoolBaseTokenAccount).WRITE(),
		solana.Meta(a.PoolQuoteTokenAccount).WRITE(),
		solana.Meta(a.ProtocolFeeRecipient),
		solana.Meta(a.ProtocolFeeRecipientTokenAccount).WRITE(),
		solana.Meta(a.BaseTokenProgram),
		solana.Meta(a.QuoteTokenProgram),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SPLAssociatedTokenAccountProgramID),
		solana.Meta(a.EventAuthority),
		solana.Meta(PumpSwapProgramID),
		solana.Meta(a.CoinCreatorVaultATA).WRITE(),
		solana.Meta(a.CoinCreatorVaultAuthority),
	}
}

// BuildBuyInstruction - получить baseAmountOut токенов, заплатив не более maxQuoteIn.
func BuildBuyInstruction(a *SwapAccounts, baseAmountOut, maxQuoteIn uint64) (solana.Instruction, error) {
	if baseAmountOut == 0 {
		baseAmountOut = 1
	}
	data, err := bin.NewWriter().Raw(buyDiscriminator).U64(baseAmountOut).U64(maxQuoteIn).Raw(trackVolume).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode buy data: %w", err)
	}

	metas := append(a.common(),
		solana.Meta(a.GlobalVolumeAccumulator),
		solana.Meta(a.UserVolumeAccumulator).WRITE(),
		solana.Meta(a.FeeConfig),
		solana.Meta(pumpfun.PumpFeeProgramID),
	)
	return solana.NewInstruction(PumpSwapProgramID, metas, data), nil
}

// BuildSellInstruction - продать baseAmountIn токенов, получив не менее minQuoteOut.
// Нулевая нижняя граница поднимается до 1.
func BuildSellInstruction(a *SwapAccounts, baseAmountIn, minQuoteOut uint64) (solana.Instruction, error) {
	if minQuoteOut == 0 {
		minQuoteOut = 1
	}
	data, err := bin.NewWriter().Raw(sellDiscriminator).U64(baseAmountIn).U64(minQuoteOut).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode sell data: %w", err)
	}

	metas := append(a.common(),
		solana.Meta(a.FeeConfig),
		solana.Meta(pumpfun.PumpFeeProgramID),
	)
	return solana.NewInstruction(PumpSwapProgramID, metas, data), nil
}
