package pumpswap

import (
	"context"
	"encoding/binary"
	"strconv"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
)

type fakeReader struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey][]byte
	balances map[solana.PublicKey]*rpc.UiTokenAmount
	reads    map[solana.PublicKey]int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		accounts: map[solana.PublicKey][]byte{},
		balances: map[solana.PublicKey]*rpc.UiTokenAmount{},
		reads:    map[solana.PublicKey]int{},
	}
}

func (f *fakeReader) GetAccountInfo(_ context.Context, pk solana.PublicKey) (*rpc.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[pk]++
	data, ok := f.accounts[pk]
	if !ok {
		return nil, blockchain.NotFound(pk)
	}
	return &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(data)}, nil
}

func (f *fakeReader) GetMultipleAccounts(ctx context.Context, pks ...solana.PublicKey) ([]*rpc.Account, error) {
	out := make([]*rpc.Account, len(pks))
	for i, pk := range pks {
		acc, err := f.GetAccountInfo(ctx, pk)
		if err == nil {
			out[i] = acc
		}
	}
	return out, nil
}

func (f *fakeReader) GetTokenAccountBalance(_ context.Context, pk solana.PublicKey) (*rpc.UiTokenAmount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[pk]
	if !ok {
		return nil, blockchain.NotFound(pk)
	}
	return b, nil
}

func encodePool(p *Pool, withMode bool) []byte {
	data := append([]byte{}, PoolDiscriminator...)
	data = append(data, p.PoolBump)
	data = binary.LittleEndian.AppendUint16(data, p.Index)
	for _, k := range []solana.PublicKey{p.Creator, p.BaseMint, p.QuoteMint, p.LPMint, p.PoolBaseTokenAccount, p.PoolQuoteTokenAccount} {
		data = append(data, k[:]...)
	}
	data = binary.LittleEndian.AppendUint64(data, p.LPSupply)
	data = append(data, p.CoinCreator[:]...)
	if withMode {
		data = append(data, 1)
	}
	return data
}

func encodeGlobalConfig(recipient solana.PublicKey) []byte {
	data := append([]byte{}, GlobalConfigDiscriminator...)
	data = append(data, make([]byte, 32)...)
	data = binary.LittleEndian.AppendUint64(data, 20)
	data = binary.LittleEndian.AppendUint64(data, 5)
	data = append(data, 0)
	data = append(data, recipient[:]...)
	return append(data, make([]byte, 32*7)...)
}

func samplePool(mint solana.PublicKey) *Pool {
	return &Pool{
		PoolBump:              254,
		Index:                 CanonicalPoolIndex,
		Creator:               solana.NewWallet().PublicKey(),
		BaseMint:              mint,
		QuoteMint:             WSOLMint,
		LPMint:                solana.NewWallet().PublicKey(),
		PoolBaseTokenAccount:  solana.NewWallet().PublicKey(),
		PoolQuoteTokenAccount: solana.NewWallet().PublicKey(),
		LPSupply:              4_193_388_284_017,
		CoinCreator:           solana.NewWallet().PublicKey(),
	}
}

func TestParsePool(t *testing.T) {
	want := samplePool(solana.NewWallet().PublicKey())

	got, err := ParsePool(solana.PublicKey{}, encodePool(want, false))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	withMode, err := ParsePool(solana.PublicKey{}, encodePool(want, true))
	require.NoError(t, err)
	assert.True(t, withMode.IsMayhemMode)

	_, err = ParsePool(solana.PublicKey{}, encodePool(want, false)[:242])
	assert.ErrorIs(t, err, blockchain.ErrMalformedAccount)
}

func TestParseGlobalConfig(t *testing.T) {
	recipient := solana.NewWallet().PublicKey()
	data := encodeGlobalConfig(recipient)
	require.Len(t, data, 313)

	cfg, err := ParseGlobalConfig(solana.PublicKey{}, data)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), cfg.LPFeeBasisPoints)
	assert.Equal(t, uint64(5), cfg.ProtocolFeeBasisPoints)
	assert.Equal(t, recipient, cfg.ProtocolFeeRecipient())

	_, err = ParseGlobalConfig(solana.PublicKey{}, data[:312])
	assert.ErrorIs(t, err, blockchain.ErrMalformedAccount)
}

func TestPoolManagerFetchPoolState(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	pool := samplePool(mint)
	poolAddr, err := PoolAddress(mint)
	require.NoError(t, err)
	cfgAddr, err := GlobalConfigAddress()
	require.NoError(t, err)

	reader := newFakeReader()
	reader.accounts[poolAddr] = encodePool(pool, false)
	reader.accounts[cfgAddr] = encodeGlobalConfig(solana.NewWallet().PublicKey())
	reader.balances[pool.PoolBaseTokenAccount] = &rpc.UiTokenAmount{Amount: strconv.Itoa(200_000_000_000_000), Decimals: 6}
	reader.balances[pool.PoolQuoteTokenAccount] = &rpc.UiTokenAmount{Amount: "85000000000", Decimals: 9}

	pm := NewPoolManager(reader, zap.NewNop())
	state, err := pm.FetchPoolState(context.Background(), mint)
	require.NoError(t, err)
	assert.Equal(t, poolAddr, state.Address)
	assert.Equal(t, uint64(200_000_000_000_000), state.Reserves.Base)
	assert.Equal(t, uint64(85_000_000_000), state.Reserves.Quote)
	assert.Equal(t, uint8(6), state.Reserves.BaseDecimals)

	// конфигурация читается один раз, пул и резервы - каждый раз
	_, err = pm.FetchPoolState(context.Background(), mint)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.reads[cfgAddr])
	assert.Equal(t, 2, reader.reads[poolAddr])
}

func TestPoolManagerMissingPool(t *testing.T) {
	pm := NewPoolManager(newFakeReader(), zap.NewNop())
	_, _, err := pm.FetchPool(context.Background(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, blockchain.ErrAccountNotFound)
}
