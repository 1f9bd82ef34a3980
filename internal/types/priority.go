package types

import (
	"math/rand/v2"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"go.uber.org/zap"
)

// PriorityFeePolicy - базовая цена compute unit плюс необязательная случайная надбавка.
type PriorityFeePolicy struct {
	BaseFee     uint64 // micro-lamports per compute unit
	Randomize   bool
	RandomRange uint64 // надбавка из [0, RandomRange)
}

type PriorityManager struct {
	policy       PriorityFeePolicy
	computeUnits uint32
	randN        func(n uint64) uint64
	logger       *zap.Logger
}

// PriorityOption настраивает PriorityManager.
type PriorityOption func(*PriorityManager)

// WithRandSource подменяет генератор надбавки.
func WithRandSource(fn func(n uint64) uint64) PriorityOption {
	return func(pm *PriorityManager) { pm.randN = fn }
}

func NewPriorityManager(policy PriorityFeePolicy, computeUnits uint32, logger *zap.Logger, opts ...PriorityOption) *PriorityManager {
	pm := &PriorityManager{
		policy:       policy,
		computeUnits: computeUnits,
		randN:        rand.Uint64N,
		logger:       logger.Named("priority"),
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

// Fee возвращает цену для очередного под-ордера. Каждый вызов - независимая выборка.
func (pm *PriorityManager) Fee() uint64 {
	fee := pm.policy.BaseFee
	if pm.policy.Randomize && pm.policy.RandomRange > 0 {
		fee += pm.randN(pm.policy.RandomRange)
	}
	return fee
}

// CreatePriorityInstructions возвращает limit и price инструкции compute budget и выбранную цену.
func (pm *PriorityManager) CreatePriorityInstructions() ([]solana.Instruction, uint64) {
	fee := pm.Fee()
	pm.logger.Debug("Priority fee selected",
		zap.Uint32("compute_units", pm.computeUnits),
		zap.Uint64("micro_lamports", fee))
	return createInstructions(pm.computeUnits, fee), fee
}

func createInstructions(units uint32, priceMicroLamports uint64) []solana.Instruction {
	return []solana.Instruction{
		// Set compute unit limit
		computebudget.NewSetComputeUnitLimitInstruction(units).Build(),
		// Set compute unit price
		computebudget.NewSetComputeUnitPriceInstruction(priceMicroLamports).Build(),
	}
}
