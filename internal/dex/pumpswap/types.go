package pumpswap

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	bin "github.com/rovshanmuradov/pump-trader/internal/utils/binary"
)

// Account discriminators extracted from the IDL
var (
	// GlobalConfigDiscriminator is the discriminator for GlobalConfig accounts
	GlobalConfigDiscriminator = []byte{149, 8, 156, 202, 160, 252, 176, 217}

	// PoolDiscriminator is the discriminator for Pool accounts
	PoolDiscriminator = []byte{241, 154, 109, 4, 17, 177, 109, 188}
)

const (
	// tag + admin + 2 u64 + flags + 8 recipients
	globalConfigMinLen = 8 + 32 + 8 + 8 + 1 + 32*8
	// tag + bump + index + 6 pubkeys + lp supply + coin creator
	poolMinLen = 8 + 1 + 2 + 32*6 + 8 + 32
)

// GlobalConfig represents the global configuration for PumpSwap
type GlobalConfig struct {
	Admin                  solana.PublicKey    // The admin public key
	LPFeeBasisPoints       uint64              // LP fee in basis points (0.01%)
	ProtocolFeeBasisPoints uint64              // Protocol fee in basis points (0.01%)
	DisableFlags           uint8               // Flags to disable certain functionality
	ProtocolFeeRecipients  [8]solana.PublicKey // Addresses of protocol fee recipients
}

// DisableFlags bits in GlobalConfig
const (
	DisableCreatePool = 1 << iota
	DisableDeposit
	DisableWithdraw
	DisableBuy
	DisableSell
)

// ProtocolFeeRecipient returns the active (first) protocol fee recipient.
func (c *GlobalConfig) ProtocolFeeRecipient() solana.PublicKey {
	return c.ProtocolFeeRecipients[0]
}

// Pool represents a liquidity pool in PumpSwap
type Pool struct {
	PoolBump              uint8            // PDA bump
	Index                 uint16           // Pool index
	Creator               solana.PublicKey // Creator of the pool
	BaseMint              solana.PublicKey // Base token mint (the migrated token)
	QuoteMint             solana.PublicKey // Quote token mint (WSOL)
	LPMint                solana.PublicKey // LP token mint
	PoolBaseTokenAccount  solana.PublicKey // Pool's base token account
	PoolQuoteTokenAccount solana.PublicKey // Pool's quote token account
	LPSupply              uint64           // True circulating supply of LP tokens
	CoinCreator           solana.PublicKey // Creator fee beneficiary
	IsMayhemMode          bool             // Optional trailing flag, false when absent
}

// PoolReserves - балансы пула на момент чтения. Никогда не кэшируются.
type PoolReserves struct {
	Base          uint64
	Quote         uint64
	BaseDecimals  uint8
	QuoteDecimals uint8
}

// ParseGlobalConfig parses account data into GlobalConfig structure
func ParseGlobalConfig(address solana.PublicKey, data []byte) (*GlobalConfig, error) {
	r, err := bin.NewAccountReader(data, globalConfigMinLen)
	if err != nil {
		return nil, blockchain.Malformed(address, err)
	}

	config := &GlobalConfig{
		Admin:                  r.PubKey(),
		LPFeeBasisPoints:       r.U64(),
		ProtocolFeeBasisPoints: r.U64(),
		DisableFlags:           r.U8(),
	}
	for i := range config.ProtocolFeeRecipients {
		config.ProtocolFeeRecipients[i] = r.PubKey()
	}
	if err := r.Err(); err != nil {
		return nil, blockchain.Malformed(address, err)
	}
	return config, nil
}

// ParsePool parses account data into Pool structure
func ParsePool(address solana.PublicKey, data []byte) (*Pool, error) {
	r, err := bin.NewAccountReader(data, poolMinLen)
	if err != nil {
		return nil, blockchain.Malformed(address, err)
	}

	pool := &Pool{
		PoolBump:              r.U8(),
		Index:                 r.U16(),
		Creator:               r.PubKey(),
		BaseMint:              r.PubKey(),
		QuoteMint:             r.PubKey(),
		LPMint:                r.PubKey(),
		PoolBaseTokenAccount:  r.PubKey(),
		PoolQuoteTokenAccount: r.PubKey(),
		LPSupply:              r.U64(),
		CoinCreator:           r.PubKey(),
	}
	if r.Remaining() > 0 {
		pool.IsMayhemMode = r.Bool()
	}
	if err := r.Err(); err != nil {
		return nil, blockchain.Malformed(address, err)
	}
	return pool, nil
}
