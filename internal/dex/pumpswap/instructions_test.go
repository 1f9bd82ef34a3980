package pumpswap

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/pump-trader/internal/dex/pumpfun"
)

func testSwapAccounts(t *testing.T) *SwapAccounts {
	t.Helper()
	mint := solana.NewWallet().PublicKey()
	state := &PoolState{
		Address: solana.NewWallet().PublicKey(),
		Pool:    samplePool(mint),
		Config:  &GlobalConfig{ProtocolFeeRecipients: [8]solana.PublicKey{solana.NewWallet().PublicKey()}},
	}
	a, err := ResolveSwapAccounts(state, solana.NewWallet().PublicKey(), solana.TokenProgramID)
	require.NoError(t, err)
	return a
}

func TestBuildBuyInstruction(t *testing.T) {
	a := testSwapAccounts(t)

	ix, err := BuildBuyInstruction(a, 45_040, 1_050_000)
	require.NoError(t, err)
	assert.Equal(t, PumpSwapProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 26)
	assert.Equal(t, buyDiscriminator, data[:8])
	assert.Equal(t, uint64(45_040), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(1_050_000), binary.LittleEndian.Uint64(data[16:24]))
	assert.Equal(t, []byte{1, 1}, data[24:])

	metas := ix.Accounts()
	require.Len(t, metas, 23)
	assert.Equal(t, a.Pool, metas[0].PublicKey)
	assert.True(t, metas[0].IsWritable)
	assert.True(t, metas[1].IsSigner)
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, metas[14].PublicKey)
	assert.Equal(t, a.CoinCreatorVaultAuthority, metas[18].PublicKey)
	assert.Equal(t, a.GlobalVolumeAccumulator, metas[19].PublicKey)
	assert.False(t, metas[19].IsWritable)
	assert.Equal(t, a.UserVolumeAccumulator, metas[20].PublicKey)
	assert.True(t, metas[20].IsWritable)
	assert.Equal(t, a.FeeConfig, metas[21].PublicKey)
	assert.Equal(t, pumpfun.PumpFeeProgramID, metas[22].PublicKey)
}

func TestBuildSellInstruction(t *testing.T) {
	a := testSwapAccounts(t)

	ix, err := BuildSellInstruction(a, 10_000, 0)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 24)
	assert.Equal(t, sellDiscriminator, data[:8])
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(data[16:24]), "zero min output clamps to 1")

	metas := ix.Accounts()
	require.Len(t, metas, 21)
	writable := map[int]bool{0: true, 1: true, 5: true, 6: true, 7: true, 8: true, 10: true, 17: true}
	for i, m := range metas {
		assert.Equal(t, writable[i], m.IsWritable, "writable %d", i)
		assert.Equal(t, i == 1, m.IsSigner, "signer %d", i)
	}
	assert.Equal(t, a.FeeConfig, metas[19].PublicKey)
	assert.Equal(t, pumpfun.PumpFeeProgramID, metas[20].PublicKey)
}

func TestResolveSwapAccountsUsesWSOLLegacyProgram(t *testing.T) {
	a := testSwapAccounts(t)
	assert.Equal(t, WSOLMint, a.QuoteMint)
	assert.Equal(t, solana.TokenProgramID, a.QuoteTokenProgram)
	assert.NotEqual(t, a.UserBaseTokenAccount, a.UserQuoteTokenAccount)
}
