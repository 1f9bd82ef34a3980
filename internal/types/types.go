// internal/types/types.go
package types

// Side - направление сделки.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Phase - фаза рынка токена.
type Phase string

const (
	// PhaseCurve - торговля на bonding curve.
	PhaseCurve Phase = "curve"
	// PhaseAMM - кривая завершена, торговля в пуле PumpSwap.
	PhaseAMM Phase = "amm"
)
