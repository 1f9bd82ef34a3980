// internal/dex/pumpfun/token_calc.go
package pumpfun

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Проба для спотовой цены: один целый токен в минимальных единицах.
const spotQuoteUnits uint64 = 1_000_000

// CalcBuy рассчитывает количество токенов за x лампортов на кривой с
// виртуальными резервами vSol/vToken: Vt - (Vb*Vt)/(Vb+x).
// Деление усекается. Результат всегда строго меньше vToken: кривую нельзя
// выкупить полностью.
func CalcBuy(x, vSol, vToken uint64) uint64 {
	if x == 0 || vToken == 0 {
		return 0
	}
	out := mirror(vToken, vSol, x)
	if out >= vToken {
		out = vToken - 1
	}
	return out
}

// CalcSell - зеркальная формула: Vb - (Vb*Vt)/(Vt+y).
func CalcSell(y, vSol, vToken uint64) uint64 {
	if y == 0 || vSol == 0 {
		return 0
	}
	out := mirror(vSol, vToken, y)
	if out >= vSol {
		out = vSol - 1
	}
	return out
}

// mirror возвращает outSide - (outSide*inSide)/(inSide+in) в точной целочисленной арифметике.
func mirror(outSide, inSide, in uint64) uint64 {
	k := new(big.Int).Mul(new(big.Int).SetUint64(outSide), new(big.Int).SetUint64(inSide))
	den := new(big.Int).Add(new(big.Int).SetUint64(inSide), new(big.Int).SetUint64(in))
	rest := k.Quo(k, den)
	out := new(big.Int).Sub(new(big.Int).SetUint64(outSide), rest)
	if out.Sign() <= 0 {
		return 0
	}
	return out.Uint64()
}

// QuoteBuy - токены за solIn лампортов по текущему снимку.
func (bc *BondingCurve) QuoteBuy(solIn uint64) uint64 {
	return CalcBuy(solIn, bc.VirtualSolReserves, bc.VirtualTokenReserves)
}

// QuoteSell - лампорты за tokensIn по текущему снимку.
func (bc *BondingCurve) QuoteSell(tokensIn uint64) uint64 {
	return CalcSell(tokensIn, bc.VirtualSolReserves, bc.VirtualTokenReserves)
}

// SpotPrice - цена одного токена в SOL: продажа пробы в 10^6 единиц.
func (bc *BondingCurve) SpotPrice() decimal.Decimal {
	lamports := bc.QuoteSell(spotQuoteUnits)
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -SolDecimals)
}
