// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/pump-trader/internal/logger"
	"github.com/rovshanmuradov/pump-trader/internal/trade"
	"github.com/rovshanmuradov/pump-trader/internal/types"
)

const EnvPrefix = "PUMP_TRADER"

type SlippageConfig struct {
	BaseBps      uint64  `mapstructure:"base_bps"`
	ImpactFactor string  `mapstructure:"impact_factor"`
	MinBps       *uint64 `mapstructure:"min_bps"`
	MaxBps       *uint64 `mapstructure:"max_bps"`
}

type PollConfig struct {
	Attempts int `mapstructure:"attempts"`
	DelayMs  int `mapstructure:"delay_ms"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Debug bool   `mapstructure:"debug"`
}

type Config struct {
	RPCURL            string         `mapstructure:"rpc_url"`
	WSURL             string         `mapstructure:"ws_url"`
	PrivateKey        string         `mapstructure:"private_key"`
	Commitment        string         `mapstructure:"commitment"`
	ComputeUnits      uint32         `mapstructure:"compute_units"`
	PriorityFee       uint64         `mapstructure:"priority_fee"`
	PriorityFeeRandom bool           `mapstructure:"priority_fee_random"`
	PriorityFeeRange  uint64         `mapstructure:"priority_fee_range"`
	MaxPerTxSOL       string         `mapstructure:"max_per_tx_sol"`
	MaxPerTxOutSOL    string         `mapstructure:"max_per_tx_out_sol"`
	Slippage          SlippageConfig `mapstructure:"slippage"`
	Poll              PollConfig     `mapstructure:"poll"`
	RPCRetries        int            `mapstructure:"rpc_retries"`
	Log               LogConfig      `mapstructure:"log"`
	MetricsAddr       string         `mapstructure:"metrics_addr"`
}

const (
	DefaultRPCURL       = "https://api.mainnet-beta.solana.com"
	DefaultCommitment   = "confirmed"
	DefaultComputeUnits = 200_000
	DefaultPriorityFee  = 100_000
	DefaultBaseBps      = 100
	DefaultPollAttempts = transaction.DefaultAttempts
	DefaultPollDelayMs  = 1000
	DefaultRetries      = 3
	DefaultLogFile      = "pump-trader.log"
)

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"rpc_url":                DefaultRPCURL,
		"ws_url":                 "",
		"private_key":            "",
		"commitment":             DefaultCommitment,
		"compute_units":          DefaultComputeUnits,
		"priority_fee":           DefaultPriorityFee,
		"priority_fee_random":    false,
		"priority_fee_range":     0,
		"max_per_tx_sol":         "0",
		"max_per_tx_out_sol":     "0",
		"slippage.base_bps":      DefaultBaseBps,
		"slippage.impact_factor": "1",
		"poll.attempts":          DefaultPollAttempts,
		"poll.delay_ms":          DefaultPollDelayMs,
		"rpc_retries":            DefaultRetries,
		"log.file":               DefaultLogFile,
		"log.debug":              false,
		"metrics_addr":           "",
	}
}

// LoadConfig читает конфигурацию из файла (если path не пуст) и переменных PUMP_TRADER_*.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	bindEnvironmentVariables(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, validateConfig(&cfg)
}

// bindEnvironmentVariables: slippage.min_bps -> PUMP_TRADER_SLIPPAGE_MIN_BPS.
func bindEnvironmentVariables(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// у необязательных границ нет значения по умолчанию
	_ = v.BindEnv("slippage.min_bps")
	_ = v.BindEnv("slippage.max_bps")
}

func validateConfig(cfg *Config) error {
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return fmt.Errorf("invalid rpc_url: %w", err)
	}
	if cfg.WSURL != "" {
		if err := validateURL(cfg.WSURL, "ws"); err != nil {
			return fmt.Errorf("invalid ws_url: %w", err)
		}
	}
	switch cfg.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	for key, raw := range map[string]string{
		"max_per_tx_sol":     cfg.MaxPerTxSOL,
		"max_per_tx_out_sol": cfg.MaxPerTxOutSOL,
	} {
		if _, err := SOLToLamports(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if _, err := cfg.impactFactor(); err != nil {
		return err
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.ComputeUnits == 0 {
		return errors.New("invalid compute_units")
	}
	if cfg.Poll.Attempts <= 0 {
		return errors.New("invalid poll.attempts")
	}
	if cfg.Poll.DelayMs < 0 {
		return errors.New("invalid poll.delay_ms")
	}
	if cfg.RPCRetries < 0 {
		return errors.New("invalid rpc_retries count")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	return nil
}

// SOLToLamports переводит десятичную сумму SOL в лампорты. Дробные лампорты недопустимы.
func SOLToLamports(raw string) (uint64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid SOL amount %q: %w", raw, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative SOL amount %q", raw)
	}
	lamports := d.Shift(9)
	if !lamports.Equal(lamports.Truncate(0)) {
		return 0, fmt.Errorf("SOL amount %q has more than 9 decimals", raw)
	}
	bi := lamports.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("SOL amount %q is too large", raw)
	}
	return bi.Uint64(), nil
}

func (c *Config) impactFactor() (decimal.Decimal, error) {
	f, err := decimal.NewFromString(c.Slippage.ImpactFactor)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid slippage.impact_factor: %w", err)
	}
	if f.IsNegative() {
		return decimal.Zero, errors.New("invalid slippage.impact_factor: negative")
	}
	return f, nil
}

// CommitmentType возвращает уровень подтверждения для RPC.
func (c *Config) CommitmentType() rpc.CommitmentType {
	return rpc.CommitmentType(c.Commitment)
}

// PollDelay возвращает паузу между попытками поллера.
func (c *Config) PollDelay() time.Duration {
	return time.Duration(c.Poll.DelayMs) * time.Millisecond
}

// TradeConfig собирает параметры движка. Конфигурация должна быть провалидирована.
func (c *Config) TradeConfig() (trade.Config, error) {
	factor, err := c.impactFactor()
	if err != nil {
		return trade.Config{}, err
	}
	maxPerTx, err := SOLToLamports(c.MaxPerTxSOL)
	if err != nil {
		return trade.Config{}, err
	}
	maxOut, err := SOLToLamports(c.MaxPerTxOutSOL)
	if err != nil {
		return trade.Config{}, err
	}
	return trade.Config{
		Slippage: types.SlippagePolicy{
			BaseBps:      c.Slippage.BaseBps,
			ImpactFactor: factor,
			MinBps:       c.Slippage.MinBps,
			MaxBps:       c.Slippage.MaxBps,
		},
		Priority: types.PriorityFeePolicy{
			BaseFee:     c.PriorityFee,
			Randomize:   c.PriorityFeeRandom,
			RandomRange: c.PriorityFeeRange,
		},
		ComputeUnits: c.ComputeUnits,
		MaxPerTx:     maxPerTx,
		MaxOutPerTx:  maxOut,
		Poll: transaction.Config{
			Attempts: c.Poll.Attempts,
			Delay:    c.PollDelay(),
		},
	}, nil
}

// LoggerConfig возвращает настройки логгера.
func (c *Config) LoggerConfig() *logger.Config {
	lc := logger.DefaultConfig()
	lc.LogFile = c.Log.File
	lc.Development = c.Log.Debug
	return lc
}
