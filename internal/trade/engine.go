// internal/trade/engine.go
package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	"github.com/rovshanmuradov/pump-trader/internal/blockchain/solbc"
	"github.com/rovshanmuradov/pump-trader/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/pump-trader/internal/dex/pumpfun"
	"github.com/rovshanmuradov/pump-trader/internal/dex/pumpswap"
	"github.com/rovshanmuradov/pump-trader/internal/events"
	"github.com/rovshanmuradov/pump-trader/internal/types"
	bin "github.com/rovshanmuradov/pump-trader/internal/utils/binary"
	"github.com/rovshanmuradov/pump-trader/internal/utils/memo"
	"github.com/rovshanmuradov/pump-trader/internal/utils/metrics"
	"github.com/rovshanmuradov/pump-trader/internal/wallet"
)

// смещение amount в SPL token account (mint + owner)
const tokenAccountAmountOffset = 64

// Config - торговые параметры движка.
type Config struct {
	Slippage     types.SlippagePolicy
	Priority     types.PriorityFeePolicy
	ComputeUnits uint32
	// MaxPerTx - потолок лампортов на один buy под-ордер, 0 - без ограничения.
	MaxPerTx uint64
	// MaxOutPerTx - потолок ожидаемой выручки (лампорты) на один sell под-ордер, 0 - без ограничения.
	MaxOutPerTx uint64
	Poll        transaction.Config
}

type options struct {
	logSource events.LogSource
	metrics   *metrics.Collector
	sleeper   transaction.Sleeper
	randN     func(uint64) uint64
}

// Option настраивает Engine.
type Option func(*options)

// WithLogSource включает подписку на события сделок.
func WithLogSource(src events.LogSource) Option {
	return func(o *options) { o.logSource = src }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithSleeper подменяет задержку поллера подтверждений.
func WithSleeper(s transaction.Sleeper) Option {
	return func(o *options) { o.sleeper = s }
}

// WithPriorityRand подменяет генератор надбавки к priority fee.
func WithPriorityRand(fn func(uint64) uint64) Option {
	return func(o *options) { o.randN = fn }
}

// Engine - торговый движок для двух фаз рынка pump.fun: кривой и пула PumpSwap.
// Всё изменяемое состояние (кэш программ, глобальный конфиг) принадлежит экземпляру.
type Engine struct {
	client blockchain.Client
	signer wallet.Signer
	cfg    Config
	logger *zap.Logger

	global        memo.Cell[pumpfun.GlobalAccount]
	tokenPrograms *TokenProgramCache
	pools         *pumpswap.PoolManager
	metadata      *solbc.TokenMetadataCache
	monitor       *transaction.Monitor
	subscriber    *events.Subscriber
	exec          *executor
}

// NewEngine собирает движок поверх клиента и подписанта.
func NewEngine(client blockchain.Client, signer wallet.Signer, cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger = logger.Named("engine")

	var prioOpts []types.PriorityOption
	if o.randN != nil {
		prioOpts = append(prioOpts, types.WithRandSource(o.randN))
	}
	monOpts := []transaction.MonitorOption{transaction.WithMetrics(o.metrics)}
	if o.sleeper != nil {
		monOpts = append(monOpts, transaction.WithSleeper(o.sleeper))
	}

	e := &Engine{
		client:        client,
		signer:        signer,
		cfg:           cfg,
		logger:        logger,
		tokenPrograms: NewTokenProgramCache(client, logger),
		pools:         pumpswap.NewPoolManager(client, logger),
		metadata:      solbc.NewTokenMetadataCache(client, logger),
		monitor:       transaction.NewMonitor(client, cfg.Poll, logger, monOpts...),
		exec: &executor{
			sender:   transaction.NewManager(client, logger),
			signer:   signer,
			priority: types.NewPriorityManager(cfg.Priority, cfg.ComputeUnits, logger, prioOpts...),
			metrics:  o.metrics,
			logger:   logger.Named("executor"),
		},
	}
	if o.logSource != nil {
		e.subscriber = events.NewSubscriber(o.logSource, pumpfun.PumpFunProgramID, logger, o.metrics)
	}
	return e
}

// Close останавливает подписку на события, если она была.
func (e *Engine) Close() error {
	if e.subscriber == nil {
		return nil
	}
	return e.subscriber.Close()
}

// globalAccount загружает global кривой один раз за жизнь движка.
func (e *Engine) globalAccount(ctx context.Context) (*pumpfun.GlobalAccount, error) {
	return e.global.Get(ctx, func(ctx context.Context) (*pumpfun.GlobalAccount, error) {
		return pumpfun.FetchGlobalAccount(ctx, e.client)
	})
}

// DetectTokenProgram определяет программу mint'а (с кэшем).
func (e *Engine) DetectTokenProgram(ctx context.Context, mint solana.PublicKey) (TokenProgram, error) {
	return e.tokenPrograms.Detect(ctx, mint)
}

// CachedTokenPrograms возвращает снимок кэша программ.
func (e *Engine) CachedTokenPrograms() map[solana.PublicKey]TokenProgram {
	return e.tokenPrograms.Cached()
}

func (e *Engine) EvictTokenProgram(mint solana.PublicKey) { e.tokenPrograms.Evict(mint) }

func (e *Engine) ClearTokenPrograms() { e.tokenPrograms.Clear() }

// TradeMode выбирает фазу: кривая, пока она не завершена, затем пул.
// Mint без кривой торгуется в пуле, если пул существует.
func (e *Engine) TradeMode(ctx context.Context, mint solana.PublicKey) (types.Phase, error) {
	curve, err := pumpfun.FetchBondingCurve(ctx, e.client, mint)
	switch {
	case err == nil && !curve.Complete:
		return types.PhaseCurve, nil
	case err == nil:
		return types.PhaseAMM, nil
	case errors.Is(err, blockchain.ErrAccountNotFound):
		if _, _, perr := e.pools.FetchPool(ctx, mint); perr != nil {
			return "", perr
		}
		return types.PhaseAMM, nil
	default:
		return "", err
	}
}

// IsPhaseComplete сообщает, завершена ли кривая mint'а.
func (e *Engine) IsPhaseComplete(ctx context.Context, mint solana.PublicKey) (bool, error) {
	curve, err := pumpfun.FetchBondingCurve(ctx, e.client, mint)
	if err != nil {
		return false, err
	}
	return curve.Complete, nil
}

// QuotePrice возвращает цену токена в SOL: по кривой, пока она открыта, иначе по резервам пула.
func (e *Engine) QuotePrice(ctx context.Context, mint solana.PublicKey) (decimal.Decimal, error) {
	curve, err := pumpfun.FetchBondingCurve(ctx, e.client, mint)
	if err == nil && !curve.Complete {
		return curve.SpotPrice(), nil
	}
	if err != nil && !errors.Is(err, blockchain.ErrAccountNotFound) {
		return decimal.Zero, err
	}
	state, err := e.pools.FetchPoolState(ctx, mint)
	if err != nil {
		return decimal.Zero, err
	}
	return state.Reserves.SpotPrice(), nil
}

// PlanAndExecuteBuy покупает на lamports в текущей фазе.
func (e *Engine) PlanAndExecuteBuy(ctx context.Context, mint solana.PublicKey, lamports uint64) (*TradeOutcome, error) {
	phase, err := e.TradeMode(ctx, mint)
	if err != nil {
		return nil, err
	}
	if phase == types.PhaseCurve {
		return e.BuyOnCurve(ctx, mint, lamports)
	}
	return e.BuyOnAMM(ctx, mint, lamports)
}

// PlanAndExecuteSell продаёт tokens (сырые единицы) в текущей фазе.
func (e *Engine) PlanAndExecuteSell(ctx context.Context, mint solana.PublicKey, tokens uint64) (*TradeOutcome, error) {
	phase, err := e.TradeMode(ctx, mint)
	if err != nil {
		return nil, err
	}
	if phase == types.PhaseCurve {
		return e.SellOnCurve(ctx, mint, tokens)
	}
	return e.SellOnAMM(ctx, mint, tokens)
}

// curveSetup - то, что читается один раз до отправки под-ордеров по кривой.
type curveSetup struct {
	curve   *pumpfun.BondingCurve
	program TokenProgram
	global  *pumpfun.GlobalAccount
}

func (e *Engine) prepareCurve(ctx context.Context, mint solana.PublicKey) (*curveSetup, error) {
	curve, err := pumpfun.FetchBondingCurve(ctx, e.client, mint)
	if err != nil {
		return nil, err
	}
	if err := curve.EnsureOpen(); err != nil {
		return nil, err
	}
	program, err := e.DetectTokenProgram(ctx, mint)
	if err != nil {
		return nil, err
	}
	global, err := e.globalAccount(ctx)
	if err != nil {
		return nil, err
	}
	return &curveSetup{curve: curve, program: program, global: global}, nil
}

// curveLeg перечитывает кривую и вычисляет аккаунты для одного под-ордера.
func (e *Engine) curveLeg(ctx context.Context, mint solana.PublicKey, setup *curveSetup) (*pumpfun.BondingCurve, *pumpfun.TradeAccounts, error) {
	curve, err := pumpfun.FetchBondingCurve(ctx, e.client, mint)
	if err != nil {
		return nil, nil, err
	}
	// кривая могла завершиться между под-ордерами
	if err := curve.EnsureOpen(); err != nil {
		return nil, nil, err
	}
	accounts, err := pumpfun.ResolveTradeAccounts(mint, e.signer.PublicKey(), setup.global, curve, setup.program.ID)
	if err != nil {
		return nil, nil, err
	}
	return curve, accounts, nil
}

// ensureATA возвращает create-idempotent для ATA кошелька; адрес берётся из кэша кошелька.
func (e *Engine) ensureATA(mint, tokenProgram solana.PublicKey) (solana.Instruction, error) {
	user := e.signer.PublicKey()
	ata, err := e.signer.GetATA(mint, tokenProgram)
	if err != nil {
		return nil, fmt.Errorf("failed to derive ATA for %s: %w", mint, err)
	}
	return wallet.CreateATAIdempotentInstruction(user, ata, user, mint, tokenProgram), nil
}

// BuyOnCurve покупает на кривой на lamports, нарезая сумму по MaxPerTx.
func (e *Engine) BuyOnCurve(ctx context.Context, mint solana.PublicKey, lamports uint64) (*TradeOutcome, error) {
	setup, err := e.prepareCurve(ctx, mint)
	if err != nil {
		return nil, err
	}
	plan, err := PlanBuy(lamports, e.cfg.MaxPerTx)
	if err != nil {
		return nil, err
	}
	e.logger.Info("Buying on curve",
		zap.String("mint", mint.String()),
		zap.Uint64("lamports", lamports),
		zap.Int("sub_orders", plan.Len()))

	return e.exec.run(ctx, types.PhaseCurve, types.SideBuy, plan, func(ctx context.Context, amount uint64) ([]solana.Instruction, error) {
		curve, accounts, err := e.curveLeg(ctx, mint, setup)
		if err != nil {
			return nil, err
		}
		tokens := curve.QuoteBuy(amount)
		if tokens == 0 {
			return nil, fmt.Errorf("%w: %d lamports buy no tokens", ErrInvalidAmount, amount)
		}
		maxCost := types.ApplyBuy(amount, e.cfg.Slippage.Bps(amount, curve.VirtualSolReserves))

		ata, err := e.ensureATA(mint, setup.program.ID)
		if err != nil {
			return nil, err
		}
		buy, err := pumpfun.BuildBuyInstruction(curve, accounts, tokens, maxCost)
		if err != nil {
			return nil, err
		}
		return []solana.Instruction{ata, buy}, nil
	}), nil
}

// SellOnCurve продаёт tokens на кривой. Число частей оценивается одной котировкой до старта.
func (e *Engine) SellOnCurve(ctx context.Context, mint solana.PublicKey, tokens uint64) (*TradeOutcome, error) {
	setup, err := e.prepareCurve(ctx, mint)
	if err != nil {
		return nil, err
	}
	plan, err := PlanSell(tokens, setup.curve.QuoteSell(tokens), e.cfg.MaxOutPerTx)
	if err != nil {
		return nil, err
	}
	e.logger.Info("Selling on curve",
		zap.String("mint", mint.String()),
		zap.Uint64("tokens", tokens),
		zap.Int("sub_orders", plan.Len()))

	return e.exec.run(ctx, types.PhaseCurve, types.SideSell, plan, func(ctx context.Context, amount uint64) ([]solana.Instruction, error) {
		curve, accounts, err := e.curveLeg(ctx, mint, setup)
		if err != nil {
			return nil, err
		}
		out := curve.QuoteSell(amount)
		minOut := types.ApplySell(out, e.cfg.Slippage.Bps(amount, curve.VirtualTokenReserves))

		sell, err := pumpfun.BuildSellInstruction(curve, accounts, amount, minOut)
		if err != nil {
			return nil, err
		}
		return []solana.Instruction{sell}, nil
	}), nil
}

func (e *Engine) prepareAMM(ctx context.Context, mint solana.PublicKey, side types.Side) (*pumpswap.PoolState, TokenProgram, error) {
	state, err := e.pools.FetchPoolState(ctx, mint)
	if err != nil {
		return nil, TokenProgram{}, err
	}
	flag := uint8(pumpswap.DisableBuy)
	if side == types.SideSell {
		flag = pumpswap.DisableSell
	}
	if state.Config.DisableFlags&flag != 0 {
		return nil, TokenProgram{}, fmt.Errorf("%w: %s on pool %s", ErrTradingDisabled, side, state.Address)
	}
	program, err := e.DetectTokenProgram(ctx, mint)
	if err != nil {
		return nil, TokenProgram{}, err
	}
	return state, program, nil
}

// ammLeg перечитывает пул и резервы для одного под-ордера.
func (e *Engine) ammLeg(ctx context.Context, mint solana.PublicKey, program TokenProgram) (*pumpswap.PoolState, *pumpswap.SwapAccounts, error) {
	state, err := e.pools.FetchPoolState(ctx, mint)
	if err != nil {
		return nil, nil, err
	}
	accounts, err := pumpswap.ResolveSwapAccounts(state, e.signer.PublicKey(), program.ID)
	if err != nil {
		return nil, nil, err
	}
	return state, accounts, nil
}

// BuyOnAMM покупает в пуле PumpSwap за lamports через временный WSOL-аккаунт.
func (e *Engine) BuyOnAMM(ctx context.Context, mint solana.PublicKey, lamports uint64) (*TradeOutcome, error) {
	_, program, err := e.prepareAMM(ctx, mint, types.SideBuy)
	if err != nil {
		return nil, err
	}
	plan, err := PlanBuy(lamports, e.cfg.MaxPerTx)
	if err != nil {
		return nil, err
	}
	user := e.signer.PublicKey()
	e.logger.Info("Buying on AMM",
		zap.String("mint", mint.String()),
		zap.Uint64("lamports", lamports),
		zap.Int("sub_orders", plan.Len()))

	return e.exec.run(ctx, types.PhaseAMM, types.SideBuy, plan, func(ctx context.Context, amount uint64) ([]solana.Instruction, error) {
		state, accounts, err := e.ammLeg(ctx, mint, program)
		if err != nil {
			return nil, err
		}
		baseOut := state.Reserves.QuoteBuy(amount)
		if baseOut == 0 {
			return nil, fmt.Errorf("%w: %d lamports buy no tokens", ErrInvalidAmount, amount)
		}
		maxQuoteIn := types.ApplyBuy(amount, e.cfg.Slippage.Bps(amount, state.Reserves.Quote))

		ata, err := e.ensureATA(mint, program.ID)
		if err != nil {
			return nil, err
		}
		wrap, err := wallet.WrapSOLInstructions(user, maxQuoteIn)
		if err != nil {
			return nil, err
		}
		buy, err := pumpswap.BuildBuyInstruction(accounts, baseOut, maxQuoteIn)
		if err != nil {
			return nil, err
		}
		unwrap, err := wallet.CloseWSOLInstruction(user)
		if err != nil {
			return nil, err
		}

		ixs := append([]solana.Instruction{ata}, wrap...)
		return append(ixs, buy, unwrap), nil
	}), nil
}

// SellOnAMM продаёт tokens в пул; выручка приходит в WSOL и сразу разворачивается.
func (e *Engine) SellOnAMM(ctx context.Context, mint solana.PublicKey, tokens uint64) (*TradeOutcome, error) {
	state, program, err := e.prepareAMM(ctx, mint, types.SideSell)
	if err != nil {
		return nil, err
	}
	plan, err := PlanSell(tokens, state.Reserves.QuoteSell(tokens), e.cfg.MaxOutPerTx)
	if err != nil {
		return nil, err
	}
	user := e.signer.PublicKey()
	e.logger.Info("Selling on AMM",
		zap.String("mint", mint.String()),
		zap.Uint64("tokens", tokens),
		zap.Int("sub_orders", plan.Len()))

	return e.exec.run(ctx, types.PhaseAMM, types.SideSell, plan, func(ctx context.Context, amount uint64) ([]solana.Instruction, error) {
		state, accounts, err := e.ammLeg(ctx, mint, program)
		if err != nil {
			return nil, err
		}
		out := state.Reserves.QuoteSell(amount)
		minOut := types.ApplySell(out, e.cfg.Slippage.Bps(amount, state.Reserves.Base))

		wsol, err := e.ensureATA(solana.SolMint, solana.TokenProgramID)
		if err != nil {
			return nil, err
		}
		sell, err := pumpswap.BuildSellInstruction(accounts, amount, minOut)
		if err != nil {
			return nil, err
		}
		unwrap, err := wallet.CloseWSOLInstruction(user)
		if err != nil {
			return nil, err
		}
		return []solana.Instruction{wsol, sell, unwrap}, nil
	}), nil
}

// TokenBalance суммирует сырые балансы всех токен-аккаунтов кошелька по mint.
func (e *Engine) TokenBalance(ctx context.Context, mint solana.PublicKey) (uint64, error) {
	accounts, err := e.client.GetTokenAccountsByOwner(ctx, e.signer.PublicKey(), mint)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, acc := range accounts {
		if acc == nil || acc.Account == nil {
			continue
		}
		amount, err := bin.ReadUint64At(acc.Account.Data.GetBinary(), tokenAccountAmountOffset)
		if err != nil {
			return 0, blockchain.Malformed(acc.Pubkey, err)
		}
		total += amount
	}
	return total, nil
}

// SolBalance возвращает баланс кошелька в лампортах.
func (e *Engine) SolBalance(ctx context.Context) (uint64, error) {
	return e.client.GetBalance(ctx, e.signer.PublicKey())
}

// WaitForConfirmation опрашивает статус отправленного под-ордера.
// При skipPreflight отказ AMM по проскальзыванию виден только здесь, в статусе транзакции.
func (e *Engine) WaitForConfirmation(ctx context.Context, order PendingOrder) (solana.Signature, error) {
	sig, err := e.monitor.AwaitConfirmation(ctx, order.Signature, order.LastValidBlockHeight)
	if err != nil && pumpswap.IsSlippageExceededError(err) {
		e.logger.Warn("Sub-order rejected by slippage bound",
			zap.Int("index", order.Index),
			zap.Uint64("amount", order.Amount),
			zap.String("signature", sig.String()),
			zap.Bool("slippage_exceeded", true))
	}
	return sig, err
}

// SubscribeTrades подписывает handler на сделки по mint (nil - все).
func (e *Engine) SubscribeTrades(ctx context.Context, mint *solana.PublicKey, handler func(*events.TradeEvent)) (events.Subscription, error) {
	if e.subscriber == nil {
		return nil, ErrNoLogSource
	}
	return e.subscriber.Subscribe(ctx, mint, handler)
}

// TokenMetadata возвращает Metaplex-метаданные и decimals mint'а.
func (e *Engine) TokenMetadata(ctx context.Context, mint solana.PublicKey) (*solbc.TokenMetadata, error) {
	return e.metadata.GetTokenMetadata(ctx, mint)
}
