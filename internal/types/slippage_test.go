package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptr(v uint64) *uint64 { return &v }

func TestSlippageBps(t *testing.T) {
	tests := []struct {
		name          string
		policy        SlippagePolicy
		size, reserve uint64
		want          uint64
	}{
		{
			name:    "base only when factor is zero",
			policy:  SlippagePolicy{BaseBps: 100},
			size:    5_000,
			reserve: 10_000,
			want:    100,
		},
		{
			name:    "impact added",
			policy:  SlippagePolicy{BaseBps: 100, ImpactFactor: decimal.NewFromInt(1)},
			size:    1_000_000_000,
			reserve: 30_000_000_000,
			// floor(1/30*10000) = 333
			want: 433,
		},
		{
			name:    "fractional factor",
			policy:  SlippagePolicy{BaseBps: 50, ImpactFactor: decimal.RequireFromString("0.5")},
			size:    1,
			reserve: 3,
			// floor(1*10000*0.5/3) = 1666
			want: 1716,
		},
		{
			name:    "zero reserve treated as one",
			policy:  SlippagePolicy{ImpactFactor: decimal.NewFromInt(1), MaxBps: ptr(2_000)},
			size:    7,
			reserve: 0,
			want:    2_000,
		},
		{
			name:    "max clamps",
			policy:  SlippagePolicy{BaseBps: 100, ImpactFactor: decimal.NewFromInt(10), MaxBps: ptr(1_500)},
			size:    1,
			reserve: 2,
			want:    1_500,
		},
		{
			name:    "min lifts",
			policy:  SlippagePolicy{BaseBps: 10, MinBps: ptr(300)},
			size:    1,
			reserve: 1_000_000,
			want:    300,
		},
		{
			name:    "min wins over max",
			policy:  SlippagePolicy{BaseBps: 5_000, MinBps: ptr(800), MaxBps: ptr(500)},
			size:    1,
			reserve: 1,
			want:    800,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Bps(tt.size, tt.reserve))
		})
	}
}

func TestSlippageAlwaysWithinBounds(t *testing.T) {
	policy := SlippagePolicy{
		BaseBps:      250,
		ImpactFactor: decimal.RequireFromString("3.7"),
		MinBps:       ptr(100),
		MaxBps:       ptr(4_900),
	}
	sizes := []uint64{0, 1, 999, 1_000_000, 1 << 40, ^uint64(0)}
	reserves := []uint64{0, 1, 17, 30_000_000_000, ^uint64(0)}
	for _, s := range sizes {
		for _, r := range reserves {
			bps := policy.Bps(s, r)
			assert.GreaterOrEqual(t, bps, uint64(100), "size=%d reserve=%d", s, r)
			assert.LessOrEqual(t, bps, uint64(4_900), "size=%d reserve=%d", s, r)
		}
	}
}

func TestApplyBuySell(t *testing.T) {
	assert.Equal(t, uint64(105_000_000), ApplyBuy(100_000_000, 500))
	assert.Equal(t, ^uint64(0), ApplyBuy(^uint64(0), 1))

	assert.Equal(t, uint64(95_000_000), ApplySell(100_000_000, 500))
	assert.Equal(t, uint64(9), ApplySell(10, 1)) // 10*9999/10000 усекается
	assert.Zero(t, ApplySell(100, 10_000))
}
