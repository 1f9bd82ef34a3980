// internal/trade/errors.go
package trade

import (
	"errors"
	"fmt"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
	"github.com/rovshanmuradov/pump-trader/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/pump-trader/internal/dex/pumpfun"
)

var (
	ErrTokenProgramDetectionFailed = errors.New("token program detection failed")
	ErrSubmissionFailed            = errors.New("sub-order submission failed")
	ErrInvalidAmount               = errors.New("invalid trade amount")
	ErrTradingDisabled             = errors.New("trading disabled by pool config")
	ErrNoLogSource                 = errors.New("log stream is not configured")
)

// Ошибки нижних слоёв, доступные вызывающему из одного пакета.
var (
	ErrAccountNotFound            = blockchain.ErrAccountNotFound
	ErrMalformedAccount           = blockchain.ErrMalformedAccount
	ErrAddressDerivationExhausted = blockchain.ErrAddressDerivationExhausted
	ErrCurveAlreadyComplete       = pumpfun.ErrCurveAlreadyComplete
	ErrTransactionRejected        = transaction.ErrTransactionRejected
	ErrTransactionExpired         = transaction.ErrTransactionExpired
	ErrConfirmationTimedOut       = transaction.ErrConfirmationTimedOut
)

// SubmissionError - ошибка сборки/подписи/отправки под-ордера с индексом плана.
type SubmissionError struct {
	Index int
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("sub-order %d: %v", e.Index, e.Err)
}

func (e *SubmissionError) Unwrap() []error {
	return []error{ErrSubmissionFailed, e.Err}
}
