package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	"github.com/rovshanmuradov/pump-trader/internal/wallet"
)

type fakeSubmitter struct {
	blockhash blockchain.Blockhash
	sendErr   error
	sent      []*solana.Transaction
	opts      []blockchain.TransactionOptions
}

func (f *fakeSubmitter) GetLatestBlockhash(context.Context) (blockchain.Blockhash, error) {
	return f.blockhash, nil
}

func (f *fakeSubmitter) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	f.sent = append(f.sent, tx)
	f.opts = append(f.opts, opts)
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	return tx.Signatures[0], nil
}

func TestManagerSendSignsAndSkipsPreflight(t *testing.T) {
	w := wallet.FromPrivateKey(solana.NewWallet().PrivateKey)
	sub := &fakeSubmitter{blockhash: blockchain.Blockhash{Hash: solana.Hash{9}, LastValidBlockHeight: 4242}}
	ix := system.NewTransferInstruction(1, w.PublicKey(), solana.NewWallet().PublicKey()).Build()

	sent, err := NewManager(sub, zap.NewNop()).Send(context.Background(), w, []solana.Instruction{ix})
	require.NoError(t, err)
	require.Len(t, sub.sent, 1)

	tx := sub.sent[0]
	assert.Equal(t, tx.Signatures[0], sent.Signature)
	assert.Equal(t, uint64(4242), sent.LastValidBlockHeight)
	assert.Equal(t, solana.Hash{9}, tx.Message.RecentBlockhash)
	assert.True(t, sub.opts[0].SkipPreflight)
	assert.NoError(t, tx.VerifySignatures())
}

func TestManagerSendPropagatesSubmitError(t *testing.T) {
	w := wallet.FromPrivateKey(solana.NewWallet().PrivateKey)
	boom := errors.New("node unavailable")
	sub := &fakeSubmitter{blockhash: blockchain.Blockhash{Hash: solana.Hash{1}}, sendErr: boom}
	ix := system.NewTransferInstruction(1, w.PublicKey(), solana.NewWallet().PublicKey()).Build()

	_, err := NewManager(sub, zap.NewNop()).Send(context.Background(), w, []solana.Instruction{ix})
	assert.ErrorIs(t, err, boom)
}

func TestValidatorRejectsEmptyBlockhash(t *testing.T) {
	w := wallet.FromPrivateKey(solana.NewWallet().PrivateKey)
	sub := &fakeSubmitter{}
	ix := system.NewTransferInstruction(1, w.PublicKey(), solana.NewWallet().PublicKey()).Build()

	_, err := NewManager(sub, zap.NewNop()).Send(context.Background(), w, []solana.Instruction{ix})
	assert.ErrorIs(t, err, ErrInvalidBlockhash)
	assert.Empty(t, sub.sent)
}
