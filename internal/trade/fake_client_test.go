package trade

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
)

type fakeAccount struct {
	owner solana.PublicKey
	data  []byte
}

// fakeClient - блокчейн в памяти для тестов движка.
type fakeClient struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]fakeAccount
	balances map[solana.PublicKey]uint64
	decimals map[solana.PublicKey]uint8
	owned    []*rpc.TokenAccount
	lamports uint64
	reads    map[solana.PublicKey]int

	// failSends - номера вызовов Send (с нуля), которые завершаются ошибкой
	failSends map[int]error
	sends     int
	sent      []*solana.Transaction
	// afterSend вызывается после каждого Send вне блокировки
	afterSend func(n int)
	// statusErr - поле err статуса подписи, nil - транзакция успешна
	statusErr interface{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		accounts:  map[solana.PublicKey]fakeAccount{},
		balances:  map[solana.PublicKey]uint64{},
		decimals:  map[solana.PublicKey]uint8{},
		reads:     map[solana.PublicKey]int{},
		failSends: map[int]error{},
	}
}

func (f *fakeClient) put(pk, owner solana.PublicKey, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[pk] = fakeAccount{owner: owner, data: data}
}

func (f *fakeClient) readCount(pk solana.PublicKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[pk]
}

func (f *fakeClient) sentTxs() []*solana.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*solana.Transaction(nil), f.sent...)
}

func (f *fakeClient) GetAccountInfo(_ context.Context, pk solana.PublicKey) (*rpc.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[pk]++
	acc, ok := f.accounts[pk]
	if !ok {
		return nil, blockchain.NotFound(pk)
	}
	return &rpc.Account{Owner: acc.owner, Data: rpc.DataBytesOrJSONFromBytes(acc.data)}, nil
}

func (f *fakeClient) GetMultipleAccounts(ctx context.Context, pks ...solana.PublicKey) ([]*rpc.Account, error) {
	out := make([]*rpc.Account, len(pks))
	for i, pk := range pks {
		if acc, err := f.GetAccountInfo(ctx, pk); err == nil {
			out[i] = acc
		}
	}
	return out, nil
}

func (f *fakeClient) GetSignatureStatus(context.Context, solana.Signature) (*rpc.SignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &rpc.SignatureStatusesResult{Err: f.statusErr}, nil
}

func (f *fakeClient) GetBlockHeight(context.Context) (uint64, error) { return 100, nil }

func (f *fakeClient) GetTokenAccountBalance(_ context.Context, pk solana.PublicKey) (*rpc.UiTokenAmount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[pk]
	if !ok {
		return nil, blockchain.NotFound(pk)
	}
	return &rpc.UiTokenAmount{Amount: strconv.FormatUint(b, 10), Decimals: f.decimals[pk]}, nil
}

func (f *fakeClient) GetTokenAccountsByOwner(context.Context, solana.PublicKey, solana.PublicKey) ([]*rpc.TokenAccount, error) {
	return f.owned, nil
}

func (f *fakeClient) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	return f.lamports, nil
}

func (f *fakeClient) GetLatestBlockhash(context.Context) (blockchain.Blockhash, error) {
	return blockchain.Blockhash{Hash: solana.Hash{1, 2, 3}, LastValidBlockHeight: 1_000}, nil
}

func (f *fakeClient) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, _ blockchain.TransactionOptions) (solana.Signature, error) {
	f.mu.Lock()
	n := f.sends
	f.sends++
	err, failed := f.failSends[n]
	if !failed {
		f.sent = append(f.sent, tx)
	}
	hook := f.afterSend
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if failed {
		return solana.Signature{}, err
	}
	return tx.Signatures[0], nil
}

var errNodeDown = errors.New("node unavailable")

var _ blockchain.Client = (*fakeClient)(nil)
