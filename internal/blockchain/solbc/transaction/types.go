// internal/blockchain/solbc/transaction/types.go
package transaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrTransactionRejected  = errors.New("transaction rejected")
	ErrTransactionExpired   = errors.New("transaction expired")
	ErrConfirmationTimedOut = errors.New("transaction confirmation timed out")
)

// State - состояние поллера подтверждений.
type State int

const (
	StatePolling State = iota
	StateConfirmed
	StateFailed
	StateExpired
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	case StateExpired:
		return "expired"
	case StateTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal сообщает, что поллинг закончен.
func (s State) Terminal() bool { return s != StatePolling }

// Config ограничивает поллинг.
type Config struct {
	Attempts int
	Delay    time.Duration
}

const (
	DefaultAttempts = 30
	DefaultDelay    = time.Second
)

func (c Config) withDefaults() Config {
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.Delay < 0 {
		c.Delay = DefaultDelay
	}
	return c
}

// ConfirmationError - терминальная ошибка поллера, всегда несёт подпись для ручной проверки.
type ConfirmationError struct {
	Signature solana.Signature
	State     State
	Kind      error
	Detail    string
	// Instruction - ошибка программы из статуса отклонённой транзакции, если её удалось разобрать.
	Instruction *InstructionError
}

// InstructionError - {"InstructionError": [index, {"Custom": code}]} из статуса подписи.
// Custom == nil, если ошибка не пользовательская (например, "InvalidAccountData").
type InstructionError struct {
	Index  int
	Custom *uint32
	Raw    interface{}
}

func (e *InstructionError) String() string {
	if e.Custom != nil {
		return fmt.Sprintf("instruction %d: custom program error %d (0x%x)", e.Index, *e.Custom, *e.Custom)
	}
	return fmt.Sprintf("instruction %d: %v", e.Index, e.Raw)
}

// ParseInstructionError разбирает поле err статуса. ok == false для ошибок уровня транзакции.
func ParseInstructionError(statusErr interface{}) (*InstructionError, bool) {
	m, ok := statusErr.(map[string]interface{})
	if !ok {
		return nil, false
	}
	pair, ok := m["InstructionError"].([]interface{})
	if !ok || len(pair) != 2 {
		return nil, false
	}
	index, ok := toUint64(pair[0])
	if !ok {
		return nil, false
	}
	out := &InstructionError{Index: int(index), Raw: pair[1]}
	if detail, ok := pair[1].(map[string]interface{}); ok {
		if code, ok := toUint64(detail["Custom"]); ok && code <= 0xffffffff {
			c := uint32(code)
			out.Custom = &c
		}
	}
	return out, true
}

// toUint64 приводит число из декодированного JSON.
func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 || n != float64(uint64(n)) {
			return 0, false
		}
		return uint64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return 0, false
		}
		return uint64(i), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	default:
		return 0, false
	}
}

// CustomCode возвращает пользовательский код ошибки программы, если он известен.
func (e *ConfirmationError) CustomCode() (uint32, bool) {
	if e.Instruction == nil || e.Instruction.Custom == nil {
		return 0, false
	}
	return *e.Instruction.Custom, true
}

func (e *ConfirmationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Signature)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Signature, e.Detail)
}

func (e *ConfirmationError) Unwrap() error { return e.Kind }
