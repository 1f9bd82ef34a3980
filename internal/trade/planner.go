// internal/trade/planner.go
package trade

import (
	"errors"
)

var (
	errZeroChunk = errors.New("chunk size must be positive")
	errZeroParts = errors.New("part count must be positive")
)

// OrderPlan - суммы под-ордеров по порядку. Сумма элементов всегда равна Total.
type OrderPlan struct {
	Total  uint64
	Chunks []uint64
}

// Len возвращает число под-ордеров.
func (p OrderPlan) Len() int { return len(p.Chunks) }

// SplitByMax режет total на куски не больше limit. Кусков ceil(total/limit).
func SplitByMax(total, limit uint64) ([]uint64, error) {
	if limit == 0 {
		return nil, errZeroChunk
	}
	var chunks []uint64
	for remaining := total; remaining > 0; {
		c := min(remaining, limit)
		chunks = append(chunks, c)
		remaining -= c
	}
	return chunks, nil
}

// SplitIntoN делит total на n частей по floor(total/n); остаток уходит в последнюю часть.
func SplitIntoN(total, n uint64) ([]uint64, error) {
	if n == 0 {
		return nil, errZeroParts
	}
	part := total / n
	chunks := make([]uint64, n)
	for i := range chunks {
		chunks[i] = part
	}
	chunks[n-1] += total - part*n
	return chunks, nil
}

// PlanBuy режет сумму покупки в лампортах. maxPerTx == 0 - без ограничения.
func PlanBuy(spend, maxPerTx uint64) (OrderPlan, error) {
	if spend == 0 {
		return OrderPlan{}, ErrInvalidAmount
	}
	if maxPerTx == 0 {
		return OrderPlan{Total: spend, Chunks: []uint64{spend}}, nil
	}
	chunks, err := SplitByMax(spend, maxPerTx)
	if err != nil {
		return OrderPlan{}, err
	}
	return OrderPlan{Total: spend, Chunks: chunks}, nil
}

// PlanSell делит tokens по одной предварительной котировке quotedOut:
// если выручка не превышает maxOutPerTx, ордер один, иначе ceil(quotedOut/maxOutPerTx) равных частей.
// Резервы между частями не перечитываются.
func PlanSell(tokens, quotedOut, maxOutPerTx uint64) (OrderPlan, error) {
	if tokens == 0 {
		return OrderPlan{}, ErrInvalidAmount
	}
	if maxOutPerTx == 0 || quotedOut <= maxOutPerTx {
		return OrderPlan{Total: tokens, Chunks: []uint64{tokens}}, nil
	}
	n := quotedOut / maxOutPerTx
	if quotedOut%maxOutPerTx != 0 {
		n++
	}
	// не больше одной части на единицу токена
	n = min(n, tokens)
	chunks, err := SplitIntoN(tokens, n)
	if err != nil {
		return OrderPlan{}, err
	}
	return OrderPlan{Total: tokens, Chunks: chunks}, nil
}
