// =============================
// File: internal/dex/pumpfun/global_account.go
// =============================
package pumpfun

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	bin "github.com/rovshanmuradov/pump-trader/internal/utils/binary"
)

// tag + init + 3 ключа + 5 u64
const globalAccountMinLen = 8 + 1 + 32*3 + 8*5

// GlobalAccount - глобальная конфигурация программы кривой.
type GlobalAccount struct {
	Initialized                 bool
	Authority                   solana.PublicKey
	FeeRecipient                solana.PublicKey
	WithdrawAuthority           solana.PublicKey
	InitialVirtualTokenReserves uint64
	InitialVirtualSolReserves   uint64
	InitialRealTokenReserves    uint64
	TokenTotalSupply            uint64
	FeeBasisPoints              uint64
}

// ParseGlobalAccount декодирует запись global.
func ParseGlobalAccount(address solana.PublicKey, data []byte) (*GlobalAccount, error) {
	r, err := bin.NewAccountReader(data, globalAccountMinLen)
	if err != nil {
		return nil, blockchain.Malformed(address, err)
	}
	g := &GlobalAccount{
		Initialized:                 r.Bool(),
		Authority:                   r.PubKey(),
		FeeRecipient:                r.PubKey(),
		WithdrawAuthority:           r.PubKey(),
		InitialVirtualTokenReserves: r.U64(),
		InitialVirtualSolReserves:   r.U64(),
		InitialRealTokenReserves:    r.U64(),
		TokenTotalSupply:            r.U64(),
		FeeBasisPoints:              r.U64(),
	}
	if err := r.Err(); err != nil {
		return nil, blockchain.Malformed(address, err)
	}
	return g, nil
}

// FetchGlobalAccount получает и декодирует global.
func FetchGlobalAccount(ctx context.Context, reader blockchain.AccountReader) (*GlobalAccount, error) {
	addr, err := GlobalAddress()
	if err != nil {
		return nil, err
	}
	acc, err := reader.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get global account: %w", err)
	}
	return ParseGlobalAccount(addr, acc.Data.GetBinary())
}
