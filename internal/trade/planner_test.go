package trade

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(chunks []uint64) uint64 {
	var s uint64
	for _, c := range chunks {
		s += c
	}
	return s
}

func TestSplitByMax(t *testing.T) {
	tests := []struct {
		name  string
		total uint64
		limit uint64
		want  []uint64
	}{
		{"exact multiple", 300, 100, []uint64{100, 100, 100}},
		{"remainder last", 250, 100, []uint64{100, 100, 50}},
		{"below limit", 40, 100, []uint64{40}},
		{"zero total", 0, 100, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitByMax(tt.total, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SplitByMax(10, 0)
	assert.Error(t, err)
}

func TestSplitByMaxProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		total := r.Uint64N(10_000_000_000)
		limit := r.Uint64N(1_000_000_000) + 1

		chunks, err := SplitByMax(total, limit)
		require.NoError(t, err)
		assert.Equal(t, total, sum(chunks))
		assert.Len(t, chunks, int((total+limit-1)/limit))
		for _, c := range chunks {
			assert.LessOrEqual(t, c, limit)
			assert.Positive(t, c)
		}
	}
}

func TestSplitIntoNProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 1000; i++ {
		total := r.Uint64N(1_000_000_000_000)
		n := r.Uint64N(50) + 1

		chunks, err := SplitIntoN(total, n)
		require.NoError(t, err)
		require.Len(t, chunks, int(n))
		assert.Equal(t, total, sum(chunks))
		for _, c := range chunks[:n-1] {
			assert.Equal(t, total/n, c)
		}
	}

	chunks, err := SplitIntoN(10, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 3, 4}, chunks)

	_, err = SplitIntoN(10, 0)
	assert.Error(t, err)
}

func TestPlanBuy(t *testing.T) {
	plan, err := PlanBuy(2_500_000_000, 1_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1_000_000_000, 1_000_000_000, 500_000_000}, plan.Chunks)
	assert.Equal(t, uint64(2_500_000_000), plan.Total)

	plan, err = PlanBuy(2_500_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2_500_000_000}, plan.Chunks)

	_, err = PlanBuy(0, 1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPlanSell(t *testing.T) {
	tests := []struct {
		name      string
		tokens    uint64
		quotedOut uint64
		limit     uint64
		want      []uint64
	}{
		{"under ceiling", 1_000, 900, 1_000, []uint64{1_000}},
		{"at ceiling", 1_000, 1_000, 1_000, []uint64{1_000}},
		{"no ceiling", 1_000, 5_000, 0, []uint64{1_000}},
		// ceil(2500/1000) = 3
		{"split by estimate", 1_000, 2_500, 1_000, []uint64{333, 333, 334}},
		{"capped by token count", 2, 10_000, 1, []uint64{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanSell(tt.tokens, tt.quotedOut, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Chunks)
			assert.Equal(t, tt.tokens, sum(plan.Chunks))
		})
	}

	_, err := PlanSell(0, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
