// internal/types/slippage.go
package types

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BasisPointsDenominator - 100% в базисных пунктах.
const BasisPointsDenominator uint64 = 10_000

// SlippagePolicy конфигурирует динамическую границу проскальзывания:
// bps = BaseBps + floor(impact * 10000 * ImpactFactor), impact = size / max(reserve, 1).
type SlippagePolicy struct {
	BaseBps      uint64
	ImpactFactor decimal.Decimal
	// MinBps и MaxBps необязательны; nil - граница не задана
	MinBps *uint64
	MaxBps *uint64
}

func u64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// Bps вычисляет границу для сделки размера size против резерва reserve.
// Сначала применяется max, затем min: при конфликте побеждает min.
func (p SlippagePolicy) Bps(size, reserve uint64) uint64 {
	if reserve == 0 {
		reserve = 1
	}
	// size*10000*factor / reserve, целочисленное частное без промежуточного округления
	num := u64(size).Mul(u64(BasisPointsDenominator)).Mul(p.ImpactFactor)
	raw, _ := num.QuoRem(u64(reserve), 0)

	bps := p.BaseBps
	if raw.IsPositive() {
		if raw.GreaterThan(u64(^uint64(0) - bps)) {
			bps = ^uint64(0)
		} else {
			bps += raw.BigInt().Uint64()
		}
	}
	if p.MaxBps != nil && bps > *p.MaxBps {
		bps = *p.MaxBps
	}
	if p.MinBps != nil && bps < *p.MinBps {
		bps = *p.MinBps
	}
	return bps
}

// ApplyBuy поднимает допустимую трату: spend*(10000+bps)/10000.
func ApplyBuy(spend, bps uint64) uint64 {
	v := new(big.Int).SetUint64(spend)
	v.Mul(v, new(big.Int).Add(new(big.Int).SetUint64(BasisPointsDenominator), new(big.Int).SetUint64(bps)))
	v.Quo(v, new(big.Int).SetUint64(BasisPointsDenominator))
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}

// ApplySell опускает минимальную выручку: out*(10000-bps)/10000, bps выше 100% дают 0.
func ApplySell(out, bps uint64) uint64 {
	if bps >= BasisPointsDenominator {
		return 0
	}
	v := new(big.Int).SetUint64(out)
	v.Mul(v, new(big.Int).SetUint64(BasisPointsDenominator-bps))
	return v.Quo(v, new(big.Int).SetUint64(BasisPointsDenominator)).Uint64()
}
