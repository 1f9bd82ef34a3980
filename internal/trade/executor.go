// internal/trade/executor.go
package trade

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/pump-trader/internal/dex/pumpswap"
	"github.com/rovshanmuradov/pump-trader/internal/types"
	"github.com/rovshanmuradov/pump-trader/internal/utils/metrics"
)

// PendingOrder - отправленный под-ордер, ожидающий подтверждения.
type PendingOrder struct {
	Index                int
	Amount               uint64
	Signature            solana.Signature
	LastValidBlockHeight uint64
}

// FailedOrder - под-ордер, который не удалось собрать, подписать или отправить.
type FailedOrder struct {
	Index  int
	Amount uint64
	Err    error
}

// TradeOutcome - результат одного вызова. Создаётся заново на каждый вызов.
type TradeOutcome struct {
	Phase   types.Phase
	Side    types.Side
	Pending []PendingOrder
	Failed  []FailedOrder
}

// AllFailed сообщает, что ни один под-ордер не был отправлен.
func (o *TradeOutcome) AllFailed() bool {
	return len(o.Pending) == 0 && len(o.Failed) > 0
}

// Signatures возвращает подписи отправленных под-ордеров по порядку плана.
func (o *TradeOutcome) Signatures() []solana.Signature {
	sigs := make([]solana.Signature, 0, len(o.Pending))
	for _, p := range o.Pending {
		sigs = append(sigs, p.Signature)
	}
	return sigs
}

// Sender отправляет набор инструкций одной транзакцией.
type Sender interface {
	Send(ctx context.Context, signer transaction.Signer, instructions []solana.Instruction) (transaction.Sent, error)
}

// buildFunc собирает торговые инструкции под-ордера по свежему состоянию.
type buildFunc func(ctx context.Context, amount uint64) ([]solana.Instruction, error)

// executor проводит план последовательно; ошибка одного под-ордера не прерывает остальные.
type executor struct {
	sender   Sender
	signer   transaction.Signer
	priority *types.PriorityManager
	metrics  *metrics.Collector
	logger   *zap.Logger
}

func (x *executor) run(ctx context.Context, phase types.Phase, side types.Side, plan OrderPlan, build buildFunc) *TradeOutcome {
	outcome := &TradeOutcome{Phase: phase, Side: side}

	for i, amount := range plan.Chunks {
		start := time.Now()
		sent, err := x.submit(ctx, amount, build)
		x.metrics.RecordSubOrder(string(phase), string(side), time.Since(start), err)

		if err != nil {
			fields := []zap.Field{zap.Int("index", i), zap.Uint64("amount", amount), zap.Error(err)}
			if phase == types.PhaseAMM && pumpswap.IsSlippageExceededError(err) {
				fields = append(fields, zap.Bool("slippage_exceeded", true))
			}
			x.logger.Warn("Sub-order failed", fields...)
			outcome.Failed = append(outcome.Failed, FailedOrder{
				Index:  i,
				Amount: amount,
				Err:    &SubmissionError{Index: i, Err: err},
			})
			continue
		}

		x.logger.Info("Sub-order submitted",
			zap.Int("index", i),
			zap.Uint64("amount", amount),
			zap.String("signature", sent.Signature.String()))
		outcome.Pending = append(outcome.Pending, PendingOrder{
			Index:                i,
			Amount:               amount,
			Signature:            sent.Signature,
			LastValidBlockHeight: sent.LastValidBlockHeight,
		})
	}

	x.logger.Info("Plan executed",
		zap.String("phase", string(phase)),
		zap.String("side", string(side)),
		zap.Int("submitted", len(outcome.Pending)),
		zap.Int("failed", len(outcome.Failed)))
	return outcome
}

func (x *executor) submit(ctx context.Context, amount uint64, build buildFunc) (transaction.Sent, error) {
	ixs, err := build(ctx, amount)
	if err != nil {
		return transaction.Sent{}, err
	}
	// приоритет берётся заново для каждого под-ордера
	prio, fee := x.priority.CreatePriorityInstructions()
	x.logger.Debug("Priority fee", zap.Uint64("micro_lamports", fee))

	all := make([]solana.Instruction, 0, len(prio)+len(ixs))
	all = append(all, prio...)
	all = append(all, ixs...)
	return x.sender.Send(ctx, x.signer, all)
}
