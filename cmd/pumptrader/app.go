// cmd/pumptrader/app.go
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain/solbc"
	"github.com/rovshanmuradov/pump-trader/internal/config"
	"github.com/rovshanmuradov/pump-trader/internal/events"
	"github.com/rovshanmuradov/pump-trader/internal/logger"
	"github.com/rovshanmuradov/pump-trader/internal/trade"
	"github.com/rovshanmuradov/pump-trader/internal/utils/metrics"
	"github.com/rovshanmuradov/pump-trader/internal/wallet"
)

const rpcRetryDelay = 500 * time.Millisecond

var errNoPrivateKey = errors.New("private_key is required for trading commands")

// app - зависимости одного запуска CLI.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *prometheus.Registry
	engine   *trade.Engine
}

// newApp собирает логгер, RPC клиент, кошелёк и движок.
// Без private_key подписант временный: годится только для чтения.
func newApp(cfgPath string, needSigner bool) (*app, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	signer, err := loadSigner(cfg.PrivateKey, needSigner)
	if err != nil {
		return nil, err
	}

	tradeCfg, err := cfg.TradeConfig()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	client := solbc.NewClient(cfg.RPCURL, log.Logger,
		solbc.WithCommitment(cfg.CommitmentType()),
		solbc.WithRetries(cfg.RPCRetries, rpcRetryDelay),
	)

	opts := []trade.Option{trade.WithMetrics(collector)}
	if cfg.WSURL != "" {
		opts = append(opts, trade.WithLogSource(events.WSLogSource{
			URL:        cfg.WSURL,
			Commitment: cfg.CommitmentType(),
		}))
	}

	log.Debug("Engine configured",
		zap.String("rpc", cfg.RPCURL),
		zap.String("wallet", logger.ShortenAddress(signer.PublicKey().String())),
		zap.Uint64("max_per_tx", tradeCfg.MaxPerTx),
		zap.Uint64("max_out_per_tx", tradeCfg.MaxOutPerTx))

	return &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		engine:   trade.NewEngine(client, signer, tradeCfg, log.Logger, opts...),
	}, nil
}

func loadSigner(privateKey string, required bool) (*wallet.Wallet, error) {
	if privateKey != "" {
		w, err := wallet.NewWallet(privateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load wallet: %w", err)
		}
		return w, nil
	}
	if required {
		return nil, errNoPrivateKey
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	return wallet.FromPrivateKey(key), nil
}

func (a *app) close() {
	if err := a.engine.Close(); err != nil {
		a.log.Warn("Engine shutdown error", zap.Error(err))
	}
	_ = a.log.Sync()
}
