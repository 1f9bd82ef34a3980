// internal/trade/token_program.go
package trade

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
)

// TokenProgramKind - вариант токен-программы, которой принадлежит mint.
type TokenProgramKind int

const (
	TokenProgramUnknown TokenProgramKind = iota
	TokenProgramLegacy
	TokenProgram2022
)

func (k TokenProgramKind) String() string {
	switch k {
	case TokenProgramLegacy:
		return "spl-token"
	case TokenProgram2022:
		return "token-2022"
	default:
		return "unknown"
	}
}

// TokenProgram - результат определения программы mint'а.
type TokenProgram struct {
	Kind TokenProgramKind
	ID   solana.PublicKey
}

// Known сообщает, что программа определена.
func (p TokenProgram) Known() bool { return p.Kind != TokenProgramUnknown }

// порядок проверки фиксирован: сначала legacy, затем 2022
var tokenProgramCandidates = []TokenProgram{
	{Kind: TokenProgramLegacy, ID: solana.TokenProgramID},
	{Kind: TokenProgram2022, ID: blockchain.Token2022ProgramID},
}

// classifyMintOwner сопоставляет владельца mint-аккаунта с известными программами.
func classifyMintOwner(owner solana.PublicKey) TokenProgram {
	for _, c := range tokenProgramCandidates {
		if owner.Equals(c.ID) {
			return c
		}
	}
	return TokenProgram{Kind: TokenProgramUnknown}
}

// TokenProgramCache определяет и хранит программы mint'ов до явного удаления.
// Параллельные промахи по одному mint могут оба сходить в сеть; результат детерминирован.
type TokenProgramCache struct {
	reader blockchain.AccountReader
	logger *zap.Logger
	cache  sync.Map // solana.PublicKey -> TokenProgram
}

func NewTokenProgramCache(reader blockchain.AccountReader, logger *zap.Logger) *TokenProgramCache {
	return &TokenProgramCache{reader: reader, logger: logger.Named("token_program")}
}

// Detect возвращает программу mint'а, обращаясь к сети только при промахе кэша.
func (c *TokenProgramCache) Detect(ctx context.Context, mint solana.PublicKey) (TokenProgram, error) {
	if v, ok := c.cache.Load(mint); ok {
		return v.(TokenProgram), nil
	}

	acc, err := c.reader.GetAccountInfo(ctx, mint)
	if err != nil {
		return TokenProgram{}, fmt.Errorf("%w: mint %s: %w", ErrTokenProgramDetectionFailed, mint, err)
	}
	tp := classifyMintOwner(acc.Owner)
	if !tp.Known() {
		return TokenProgram{}, fmt.Errorf("%w: mint %s is owned by %s", ErrTokenProgramDetectionFailed, mint, acc.Owner)
	}

	c.cache.Store(mint, tp)
	c.logger.Debug("Token program detected",
		zap.String("mint", mint.String()),
		zap.String("program", tp.Kind.String()))
	return tp, nil
}

// Cached возвращает копию содержимого кэша.
func (c *TokenProgramCache) Cached() map[solana.PublicKey]TokenProgram {
	out := make(map[solana.PublicKey]TokenProgram)
	c.cache.Range(func(k, v any) bool {
		out[k.(solana.PublicKey)] = v.(TokenProgram)
		return true
	})
	return out
}

// Evict удаляет запись одного mint'а.
func (c *TokenProgramCache) Evict(mint solana.PublicKey) {
	c.cache.Delete(mint)
}

// Clear удаляет все записи.
func (c *TokenProgramCache) Clear() {
	c.cache.Range(func(k, _ any) bool {
		c.cache.Delete(k)
		return true
	})
}
