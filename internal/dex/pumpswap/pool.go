// =============================
// File: internal/dex/pumpswap/pool.go
// =============================
package pumpswap

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	"github.com/rovshanmuradov/pump-trader/internal/utils/memo"
)

// StateReader - то, что PoolManager читает из сети.
type StateReader interface {
	blockchain.AccountReader
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.UiTokenAmount, error)
}

// PoolState - всё, что нужно для котировки и сборки свапа.
type PoolState struct {
	Address  solana.PublicKey
	Pool     *Pool
	Reserves *PoolReserves
	Config   *GlobalConfig
}

// PoolManager отвечает за чтение пулов PumpSwap.
type PoolManager struct {
	reader StateReader
	logger *zap.Logger

	// кеш глобальной конфигурации
	cfg memo.Cell[GlobalConfig]
}

// NewPoolManager создаёт новый PoolManager.
func NewPoolManager(reader StateReader, logger *zap.Logger) *PoolManager {
	return &PoolManager{
		reader: reader,
		logger: logger.Named("pool_manager"),
	}
}

// GlobalConfig возвращает (и кеширует) GlobalConfig.
func (pm *PoolManager) GlobalConfig(ctx context.Context) (*GlobalConfig, error) {
	return pm.cfg.Get(ctx, pm.fetchGlobalConfig)
}

// fetchGlobalConfig получает глобальную конфигурацию программы PumpSwap.
func (pm *PoolManager) fetchGlobalConfig(ctx context.Context) (*GlobalConfig, error) {
	addr, err := GlobalConfigAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to derive global config address: %w", err)
	}
	acc, err := pm.reader.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get global config account: %w", err)
	}
	config, err := ParseGlobalConfig(addr, acc.Data.GetBinary())
	if err != nil {
		pm.logger.Error("Не удалось разобрать глобальную конфигурацию", zap.String("global_config", addr.String()), zap.Error(err))
		return nil, err
	}
	pm.logger.Debug("Global config loaded",
		zap.Uint64("lp_fee_bps", config.LPFeeBasisPoints),
		zap.Uint64("protocol_fee_bps", config.ProtocolFeeBasisPoints))
	return config, nil
}

// FetchPool получает канонический пул для mint.
func (pm *PoolManager) FetchPool(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, *Pool, error) {
	addr, err := PoolAddress(mint)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	acc, err := pm.reader.GetAccountInfo(ctx, addr)
	if err != nil {
		return addr, nil, fmt.Errorf("failed to get pool %s: %w", addr, err)
	}
	pool, err := ParsePool(addr, acc.Data.GetBinary())
	if err != nil {
		return addr, nil, err
	}
	return addr, pool, nil
}

// FetchReserves читает оба токен-аккаунта пула параллельно.
func (pm *PoolManager) FetchReserves(ctx context.Context, pool *Pool) (*PoolReserves, error) {
	var base, quote *rpc.UiTokenAmount

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		base, err = pm.reader.GetTokenAccountBalance(gctx, pool.PoolBaseTokenAccount)
		if err != nil {
			return fmt.Errorf("failed to get pool base balance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		quote, err = pm.reader.GetTokenAccountBalance(gctx, pool.PoolQuoteTokenAccount)
		if err != nil {
			return fmt.Errorf("failed to get pool quote balance: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	baseAmount, err := parseRawAmount(pool.PoolBaseTokenAccount, base)
	if err != nil {
		return nil, err
	}
	quoteAmount, err := parseRawAmount(pool.PoolQuoteTokenAccount, quote)
	if err != nil {
		return nil, err
	}
	return &PoolReserves{
		Base:          baseAmount,
		Quote:         quoteAmount,
		BaseDecimals:  base.Decimals,
		QuoteDecimals: quote.Decimals,
	}, nil
}

// FetchPoolState читает пул и конфигурацию параллельно, затем резервы.
func (pm *PoolManager) FetchPoolState(ctx context.Context, mint solana.PublicKey) (*PoolState, error) {
	state := &PoolState{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		state.Address, state.Pool, err = pm.FetchPool(gctx, mint)
		return err
	})
	g.Go(func() error {
		var err error
		state.Config, err = pm.GlobalConfig(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reserves, err := pm.FetchReserves(ctx, state.Pool)
	if err != nil {
		return nil, err
	}
	state.Reserves = reserves

	pm.logger.Debug("Получены данные пула",
		zap.String("pool_address", state.Address.String()),
		zap.String("mint", mint.String()),
		zap.Uint64("base_reserves", reserves.Base),
		zap.Uint64("quote_reserves", reserves.Quote))
	return state, nil
}

func parseRawAmount(account solana.PublicKey, amount *rpc.UiTokenAmount) (uint64, error) {
	if amount == nil {
		return 0, blockchain.NotFound(account)
	}
	v, err := strconv.ParseUint(amount.Amount, 10, 64)
	if err != nil {
		return 0, blockchain.Malformed(account, err)
	}
	return v, nil
}
