// =============================
// File: internal/dex/pumpfun/bonding_curve.go
// =============================
package pumpfun

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	bin "github.com/rovshanmuradov/pump-trader/internal/utils/binary"
)

// ErrCurveAlreadyComplete - кривая завершена, токен торгуется только в AMM.
var ErrCurveAlreadyComplete = errors.New("bonding curve already complete")

// tag + 5 u64 + complete + creator
const bondingCurveMinLen = 8 + 8*5 + 1 + 32

// BondingCurve - снимок состояния кривой. Не кэшируется: каждая сделка меняет резервы.
type BondingCurve struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
	Creator              solana.PublicKey
}

// ParseBondingCurve декодирует запись bonding-curve.
func ParseBondingCurve(address solana.PublicKey, data []byte) (*BondingCurve, error) {
	r, err := bin.NewAccountReader(data, bondingCurveMinLen)
	if err != nil {
		return nil, blockchain.Malformed(address, err)
	}
	bc := &BondingCurve{
		VirtualTokenReserves: r.U64(),
		VirtualSolReserves:   r.U64(),
		RealTokenReserves:    r.U64(),
		RealSolReserves:      r.U64(),
		TokenTotalSupply:     r.U64(),
		Complete:             r.Bool(),
		Creator:              r.PubKey(),
	}
	if err := r.Err(); err != nil {
		return nil, blockchain.Malformed(address, err)
	}
	return bc, nil
}

// FetchBondingCurve читает свежий снимок кривой для mint.
func FetchBondingCurve(ctx context.Context, reader blockchain.AccountReader, mint solana.PublicKey) (*BondingCurve, error) {
	addr, err := BondingCurveAddress(mint)
	if err != nil {
		return nil, err
	}
	acc, err := reader.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get bonding curve: %w", err)
	}
	return ParseBondingCurve(addr, acc.Data.GetBinary())
}

// EnsureOpen возвращает ErrCurveAlreadyComplete для мигрировавшего токена.
func (bc *BondingCurve) EnsureOpen() error {
	if bc.Complete {
		return ErrCurveAlreadyComplete
	}
	return nil
}
