// internal/blockchain/solbc/transaction/manager.go
package transaction

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	"github.com/rovshanmuradov/pump-trader/internal/blockchain/solbc"
)

// Submitter - часть клиента, нужная для отправки.
type Submitter interface {
	GetLatestBlockhash(ctx context.Context) (blockchain.Blockhash, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error)
}

// Signer подписывает транзакцию ключом плательщика.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

// Sent - отправленная транзакция и высота, после которой её blockhash истекает.
type Sent struct {
	Signature            solana.Signature
	LastValidBlockHeight uint64
}

// Manager собирает, подписывает и отправляет транзакции. Повторной отправки нет:
// результат каждой попытки фиксируется вызывающим.
type Manager struct {
	client    Submitter
	logger    *zap.Logger
	validator *Validator
}

func NewManager(client Submitter, logger *zap.Logger) *Manager {
	return &Manager{
		client:    client,
		logger:    logger.Named("tx-manager"),
		validator: NewValidator(logger),
	}
}

// Send берёт свежий blockhash, подписывает и отправляет без preflight.
func (tm *Manager) Send(ctx context.Context, signer Signer, instructions []solana.Instruction) (Sent, error) {
	bh, err := tm.client.GetLatestBlockhash(ctx)
	if err != nil {
		return Sent{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, bh.Hash, solana.TransactionPayer(signer.PublicKey()))
	if err != nil {
		return Sent{}, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := signer.SignTransaction(tx); err != nil {
		return Sent{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := tm.validator.ValidateTransaction(tx); err != nil {
		tm.logger.Error("Transaction validation failed", zap.Error(err))
		return Sent{}, err
	}

	sig, err := tm.client.SendTransactionWithOpts(ctx, tx, blockchain.TransactionOptions{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return Sent{}, solbc.AnalyzeSubmitError(err)
	}

	tm.logger.Debug("Transaction sent",
		zap.String("signature", sig.String()),
		zap.Uint64("last_valid_block_height", bh.LastValidBlockHeight))
	return Sent{Signature: sig, LastValidBlockHeight: bh.LastValidBlockHeight}, nil
}
