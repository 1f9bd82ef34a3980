// internal/blockchain/solbc/transaction/monitor.go
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	"github.com/rovshanmuradov/pump-trader/internal/utils/metrics"
)

// Sleeper ждёт d либо отмены ctx.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Monitor опрашивает статус транзакции до подтверждения, отказа или истечения blockhash.
type Monitor struct {
	source  blockchain.StatusSource
	config  Config
	sleep   Sleeper
	metrics *metrics.Collector
	logger  *zap.Logger
}

type MonitorOption func(*Monitor)

// WithSleeper подменяет источник задержки (в тестах - фейковые часы).
func WithSleeper(s Sleeper) MonitorOption {
	return func(m *Monitor) { m.sleep = s }
}

func WithMetrics(c *metrics.Collector) MonitorOption {
	return func(m *Monitor) { m.metrics = c }
}

func NewMonitor(source blockchain.StatusSource, config Config, logger *zap.Logger, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		source: source,
		config: config.withDefaults(),
		sleep:  sleepCtx,
		logger: logger.Named("tx-monitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// outcome - результат одной попытки поллера.
type outcome struct {
	state       State
	detail      string
	instruction *InstructionError
}

// step выполняет одну попытку и возвращает следующее состояние.
// Ошибки запросов считаются временными: состояние остаётся Polling.
func (m *Monitor) step(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) outcome {
	status, err := m.source.GetSignatureStatus(ctx, sig)
	if err != nil {
		m.logger.Debug("Status query failed", zap.String("signature", sig.String()), zap.Error(err))
		return outcome{state: StatePolling}
	}
	if status != nil {
		if status.Err != nil {
			if ie, ok := ParseInstructionError(status.Err); ok {
				return outcome{state: StateFailed, detail: ie.String(), instruction: ie}
			}
			return outcome{state: StateFailed, detail: fmt.Sprintf("%v", status.Err)}
		}
		return outcome{state: StateConfirmed}
	}

	height, err := m.source.GetBlockHeight(ctx)
	if err != nil {
		m.logger.Debug("Block height query failed", zap.Error(err))
		return outcome{state: StatePolling}
	}
	if height > lastValidBlockHeight {
		return outcome{state: StateExpired, detail: fmt.Sprintf("block height %d exceeds %d", height, lastValidBlockHeight)}
	}
	return outcome{state: StatePolling}
}

// AwaitConfirmation крутит автомат Polling -> Confirmed | Failed | Expired | TimedOut.
func (m *Monitor) AwaitConfirmation(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) (solana.Signature, error) {
	res := outcome{state: StatePolling}
	attempt := 0

	for attempt < m.config.Attempts {
		attempt++
		res = m.step(ctx, sig, lastValidBlockHeight)
		if res.state.Terminal() {
			break
		}
		if attempt < m.config.Attempts {
			if err := m.sleep(ctx, m.config.Delay); err != nil {
				return sig, fmt.Errorf("confirmation wait interrupted: %w", err)
			}
		}
	}
	if !res.state.Terminal() {
		res = outcome{state: StateTimedOut, detail: fmt.Sprintf("%d attempts", attempt)}
	}
	state, detail := res.state, res.detail

	m.metrics.RecordConfirmation(state.String(), attempt)
	logger := m.logger.With(
		zap.String("signature", sig.String()),
		zap.String("state", state.String()),
		zap.Int("attempts", attempt))

	switch state {
	case StateConfirmed:
		logger.Info("Transaction confirmed")
		return sig, nil
	case StateFailed:
		logger.Warn("Transaction rejected", zap.String("reason", detail))
		return sig, &ConfirmationError{Signature: sig, State: state, Kind: ErrTransactionRejected, Detail: detail, Instruction: res.instruction}
	case StateExpired:
		logger.Warn("Transaction expired", zap.String("reason", detail))
		return sig, &ConfirmationError{Signature: sig, State: state, Kind: ErrTransactionExpired, Detail: detail}
	default:
		logger.Warn("Transaction confirmation timed out")
		return sig, &ConfirmationError{Signature: sig, State: state, Kind: ErrConfirmationTimedOut, Detail: detail}
	}
}
