// internal/blockchain/types.go
package blockchain

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TransactionOptions определяет опции для отправки транзакций.
type TransactionOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
}

// Blockhash - свежий blockhash и высота блока, после которой транзакция с ним невалидна.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// AccountReader - чтение сырых аккаунтов. Отсутствующий аккаунт возвращается как ErrAccountNotFound.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.Account, error)
	// GetMultipleAccounts возвращает срез той же длины, nil на месте отсутствующих аккаунтов.
	GetMultipleAccounts(ctx context.Context, pubkeys ...solana.PublicKey) ([]*rpc.Account, error)
}

// StatusSource - источник статусов для поллера подтверждений.
type StatusSource interface {
	// GetSignatureStatus возвращает nil, если транзакция ещё не найдена.
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error)
	// GetBlockHeight возвращает финализированную высоту блока.
	GetBlockHeight(ctx context.Context) (uint64, error)
}

// Client определяет интерфейс удалённого леджера, которым пользуется торговый движок.
type Client interface {
	AccountReader
	StatusSource

	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.UiTokenAmount, error)
	GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]*rpc.TokenAccount, error)
	GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (Blockhash, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts TransactionOptions) (solana.Signature, error)
}
