package types

import (
	"testing"

	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPriorityFeeFixed(t *testing.T) {
	pm := NewPriorityManager(PriorityFeePolicy{BaseFee: 5_000, RandomRange: 1_000}, 200_000, zap.NewNop(),
		WithRandSource(func(uint64) uint64 { t.Fatal("random source must not be used"); return 0 }))

	for i := 0; i < 3; i++ {
		assert.Equal(t, uint64(5_000), pm.Fee())
	}
}

func TestPriorityFeeRandomized(t *testing.T) {
	var seen []uint64
	draws := []uint64{0, 999, 412}
	pm := NewPriorityManager(PriorityFeePolicy{BaseFee: 5_000, Randomize: true, RandomRange: 1_000}, 200_000, zap.NewNop(),
		WithRandSource(func(n uint64) uint64 {
			seen = append(seen, n)
			v := draws[0]
			draws = draws[1:]
			return v
		}))

	assert.Equal(t, uint64(5_000), pm.Fee())
	assert.Equal(t, uint64(5_999), pm.Fee())
	assert.Equal(t, uint64(5_412), pm.Fee())
	assert.Equal(t, []uint64{1_000, 1_000, 1_000}, seen)
}

func TestPriorityFeeDefaultSourceStaysInRange(t *testing.T) {
	pm := NewPriorityManager(PriorityFeePolicy{BaseFee: 10, Randomize: true, RandomRange: 5}, 1, zap.NewNop())
	for i := 0; i < 200; i++ {
		fee := pm.Fee()
		assert.GreaterOrEqual(t, fee, uint64(10))
		assert.Less(t, fee, uint64(15))
	}
}

func TestCreatePriorityInstructions(t *testing.T) {
	pm := NewPriorityManager(PriorityFeePolicy{BaseFee: 7_500}, 300_000, zap.NewNop())

	ixs, fee := pm.CreatePriorityInstructions()
	require.Len(t, ixs, 2)
	assert.Equal(t, uint64(7_500), fee)
	for _, ix := range ixs {
		assert.Equal(t, computebudget.ProgramID, ix.ProgramID())
	}
}
