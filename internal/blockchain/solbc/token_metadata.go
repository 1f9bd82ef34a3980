// internal/blockchain/solbc/token_metadata.go
package solbc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	bin "github.com/rovshanmuradov/pump-trader/internal/utils/binary"
)

const (
	metadataTTL        = 5 * time.Minute
	mintDecimalsOffset = 44
	// tag + update authority + mint + три пустые строки
	metadataMinLen = 1 + 32 + 32 + 4*3
)

// TokenMetadata хранит информацию о токене
type TokenMetadata struct {
	Mint            solana.PublicKey
	UpdateAuthority solana.PublicKey
	Name            string
	Symbol          string
	URI             string
	Decimals        uint8
	UpdatedAt       time.Time
}

// DecodeTokenMetadata декодирует запись Metaplex metadata.
func DecodeTokenMetadata(address solana.PublicKey, data []byte) (*TokenMetadata, error) {
	if len(data) < metadataMinLen {
		return nil, blockchain.Malformed(address, fmt.Errorf("metadata too short: %d bytes", len(data)))
	}
	r := bin.NewReader(data)
	r.Skip(1)
	md := &TokenMetadata{
		UpdateAuthority: r.PubKey(),
		Mint:            r.PubKey(),
		Name:            r.String(),
		Symbol:          r.String(),
		URI:             r.String(),
	}
	if err := r.Err(); err != nil {
		return nil, blockchain.Malformed(address, err)
	}
	return md, nil
}

// TokenMetadataCache управляет кэшированием метаданных токенов
type TokenMetadataCache struct {
	cache  sync.Map
	reader blockchain.AccountReader
	logger *zap.Logger
}

func NewTokenMetadataCache(reader blockchain.AccountReader, logger *zap.Logger) *TokenMetadataCache {
	return &TokenMetadataCache{
		reader: reader,
		logger: logger.Named("token-metadata"),
	}
}

// GetTokenMetadata получает метаданные и decimals токена с кэшированием
func (c *TokenMetadataCache) GetTokenMetadata(ctx context.Context, mint solana.PublicKey) (*TokenMetadata, error) {
	if value, ok := c.cache.Load(mint); ok {
		md := value.(*TokenMetadata)
		if time.Since(md.UpdatedAt) < metadataTTL {
			return md, nil
		}
		c.cache.Delete(mint)
	}

	metaAddr, err := blockchain.DeriveMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	accounts, err := c.reader.GetMultipleAccounts(ctx, mint, metaAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata accounts: %w", err)
	}
	if accounts[0] == nil {
		return nil, blockchain.NotFound(mint)
	}
	if accounts[1] == nil {
		return nil, blockchain.NotFound(metaAddr)
	}

	md, err := DecodeTokenMetadata(metaAddr, accounts[1].Data.GetBinary())
	if err != nil {
		return nil, err
	}
	mintData := accounts[0].Data.GetBinary()
	if len(mintData) <= mintDecimalsOffset {
		return nil, blockchain.Malformed(mint, fmt.Errorf("mint too short: %d bytes", len(mintData)))
	}
	md.Decimals = mintData[mintDecimalsOffset]
	md.UpdatedAt = time.Now()
	c.cache.Store(mint, md)

	c.logger.Debug("token metadata retrieved",
		zap.String("mint", mint.String()),
		zap.String("symbol", md.Symbol),
		zap.Uint8("decimals", md.Decimals))
	return md, nil
}
