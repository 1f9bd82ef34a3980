// internal/dex/pumpswap/token_calc.go
package pumpswap

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// FeeBasisPoints - суммарная комиссия AMM, снимается со входа.
	FeeBasisPoints uint64 = 100
	bpsDenominator uint64 = 10_000
)

// afterFee возвращает x*(10000-fee)/10000.
func afterFee(x uint64) *big.Int {
	v := new(big.Int).SetUint64(x)
	v.Mul(v, new(big.Int).SetUint64(bpsDenominator-FeeBasisPoints))
	return v.Quo(v, new(big.Int).SetUint64(bpsDenominator))
}

// swapOut - out = outReserve*x'/(inReserve+x') для x' после комиссии.
func swapOut(in, inReserve, outReserve uint64) uint64 {
	x := afterFee(in)
	if x.Sign() == 0 {
		return 0
	}
	num := new(big.Int).Mul(new(big.Int).SetUint64(outReserve), x)
	den := x.Add(x, new(big.Int).SetUint64(inReserve))
	return num.Quo(num, den).Uint64()
}

// CalcBuy - base-токены за quoteIn лампортов.
func CalcBuy(quoteIn, baseReserve, quoteReserve uint64) uint64 {
	return swapOut(quoteIn, quoteReserve, baseReserve)
}

// CalcSell - лампорты за baseIn токенов, комиссия снимается с base-входа.
func CalcSell(baseIn, baseReserve, quoteReserve uint64) uint64 {
	return swapOut(baseIn, baseReserve, quoteReserve)
}

// QuoteBuy - котировка покупки по снимку резервов.
func (r *PoolReserves) QuoteBuy(quoteIn uint64) uint64 {
	return CalcBuy(quoteIn, r.Base, r.Quote)
}

// QuoteSell - котировка продажи по снимку резервов.
func (r *PoolReserves) QuoteSell(baseIn uint64) uint64 {
	return CalcSell(baseIn, r.Base, r.Quote)
}

// SpotPrice - (quote/10^qd)/(base/10^bd). Пустой пул даёт ноль.
func (r *PoolReserves) SpotPrice() decimal.Decimal {
	if r.Base == 0 {
		return decimal.Zero
	}
	quote := decimal.NewFromBigInt(new(big.Int).SetUint64(r.Quote), -int32(r.QuoteDecimals))
	base := decimal.NewFromBigInt(new(big.Int).SetUint64(r.Base), -int32(r.BaseDecimals))
	return quote.DivRound(base, 18)
}
