// internal/events/types.go
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// EventType represents the type of event.
type EventType string

const (
	// TradeExecuted - сделка на кривой, декодированная из логов программы.
	TradeExecuted EventType = "trade.executed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// TradeEvent is emitted for every trade log record of the curve program.
type TradeEvent struct {
	BaseEvent
	Mint        solana.PublicKey
	SolAmount   uint64
	TokenAmount uint64
	IsBuy       bool
	User        solana.PublicKey
	Signature   solana.Signature
}
