// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = 200 * time.Millisecond
	accountTimeout    = 5 * time.Second
)

// RPC - подмножество методов *rpc.Client, которые использует адаптер.
type RPC interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, opts *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	rpc        RPC
	commitment rpc.CommitmentType
	retries    uint
	retryDelay time.Duration
	logger     *zap.Logger
}

// Option настраивает Client.
type Option func(*Client)

// WithCommitment задаёт уровень подтверждения для чтений.
func WithCommitment(c rpc.CommitmentType) Option {
	return func(cl *Client) { cl.commitment = c }
}

// WithRetries задаёт число попыток и начальную задержку для чтения аккаунтов.
func WithRetries(n int, delay time.Duration) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.retries = uint(n)
		}
		if delay > 0 {
			cl.retryDelay = delay
		}
	}
}

// NewClient создаёт клиент по RPC URL.
func NewClient(rpcURL string, logger *zap.Logger, opts ...Option) *Client {
	return NewClientWithRPC(rpc.New(rpcURL), logger, opts...)
}

// NewClientWithRPC оборачивает готовый RPC (в тестах - фейк).
func NewClientWithRPC(r RPC, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		rpc:        r,
		commitment: rpc.CommitmentConfirmed,
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		logger:     logger.Named("solbc-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retry повторяет временные ошибки RPC; ErrAccountNotFound не повторяется.
func retry[T any](ctx context.Context, c *Client, method string, op func(context.Context) (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryDelay
	policy.MaxInterval = c.retryDelay * 10

	notify := func(err error, d time.Duration) {
		c.logger.Debug("Retrying RPC call", zap.String("method", method), zap.Error(err), zap.Duration("backoff", d))
	}

	return backoff.Retry(ctx, func() (T, error) {
		callCtx, cancel := context.WithTimeout(ctx, accountTimeout)
		defer cancel()
		v, err := op(callCtx)
		if err != nil && blockchain.IsAccountNotFoundError(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.retries),
		backoff.WithNotify(notify))
}

// GetAccountInfo получает аккаунт в base64.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.Account, error) {
	return retry(ctx, c, "getAccountInfo", func(ctx context.Context) (*rpc.Account, error) {
		res, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: c.commitment,
		})
		if errors.Is(err, rpc.ErrNotFound) || (err == nil && (res == nil || res.Value == nil)) {
			return nil, blockchain.NotFound(pubkey)
		}
		if err != nil {
			c.logger.Debug("GetAccountInfo error", zap.String("pubkey", pubkey.String()), zap.Error(err))
			return nil, fmt.Errorf("failed to get account %s: %w", pubkey, err)
		}
		return res.Value, nil
	})
}

// GetMultipleAccounts получает информацию о нескольких аккаунтах за один запрос.
func (c *Client) GetMultipleAccounts(ctx context.Context, pubkeys ...solana.PublicKey) ([]*rpc.Account, error) {
	if len(pubkeys) == 0 {
		return nil, nil
	}
	return retry(ctx, c, "getMultipleAccounts", func(ctx context.Context) ([]*rpc.Account, error) {
		res, err := c.rpc.GetMultipleAccountsWithOpts(ctx, pubkeys, &rpc.GetMultipleAccountsOpts{
			Commitment: c.commitment,
			Encoding:   solana.EncodingBase64,
		})
		if err != nil {
			c.logger.Debug("GetMultipleAccounts error", zap.Int("count", len(pubkeys)), zap.Error(err))
			return nil, fmt.Errorf("failed to get multiple accounts: %w", err)
		}
		if res == nil || len(res.Value) != len(pubkeys) {
			return nil, fmt.Errorf("failed to get multiple accounts: unexpected result size")
		}
		return res.Value, nil
	})
}

// GetTokenAccountBalance получает баланс токенного аккаунта.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.UiTokenAmount, error) {
	res, err := c.rpc.GetTokenAccountBalance(ctx, account, c.commitment)
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, blockchain.NotFound(account)
	}
	if err != nil {
		if isMissingAccountRPCError(err) {
			return nil, blockchain.NotFound(account)
		}
		return nil, fmt.Errorf("failed to get token balance %s: %w", account, err)
	}
	if res == nil || res.Value == nil {
		return nil, blockchain.NotFound(account)
	}
	return res.Value, nil
}

// GetTokenAccountsByOwner возвращает токен-аккаунты владельца по mint.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]*rpc.TokenAccount, error) {
	res, err := c.rpc.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{Mint: &mint},
		&rpc.GetTokenAccountsOpts{Commitment: c.commitment, Encoding: solana.EncodingBase64})
	if err != nil {
		return nil, fmt.Errorf("failed to get token accounts of %s: %w", owner, err)
	}
	if res == nil {
		return nil, nil
	}
	return res.Value, nil
}

// GetBalance получает баланс аккаунта в лампортах.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	res, err := c.rpc.GetBalance(ctx, pubkey, c.commitment)
	if err != nil {
		c.logger.Error("GetBalance error", zap.Error(err))
		return 0, fmt.Errorf("failed to get balance %s: %w", pubkey, err)
	}
	return res.Value, nil
}

// GetLatestBlockhash получает blockhash и потолок высоты блока для новой транзакции.
func (c *Client) GetLatestBlockhash(ctx context.Context) (blockchain.Blockhash, error) {
	res, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return blockchain.Blockhash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	if res == nil || res.Value == nil {
		return blockchain.Blockhash{}, errors.New("failed to get latest blockhash: empty result")
	}
	return blockchain.Blockhash{
		Hash:                 res.Value.Blockhash,
		LastValidBlockHeight: res.Value.LastValidBlockHeight,
	}, nil
}

// GetBlockHeight возвращает финализированную высоту блока.
func (c *Client) GetBlockHeight(ctx context.Context) (uint64, error) {
	h, err := c.rpc.GetBlockHeight(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get block height: %w", err)
	}
	return h, nil
}

// GetSignatureStatus возвращает статус одной подписи либо nil.
func (c *Client) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	res, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}
	if res == nil || len(res.Value) == 0 {
		return nil, nil
	}
	return res.Value[0], nil
}

// SendTransactionWithOpts отправляет транзакцию с заданными опциями.
func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: opts.PreflightCommitment,
	})
	if err != nil {
		c.logger.Error("SendTransactionWithOpts error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// Гарантируем, что Client реализует интерфейс blockchain.Client.
var _ blockchain.Client = (*Client)(nil)
