// =============================
// File: internal/dex/pumpswap/errors.go
// =============================
package pumpswap

import (
	"errors"
	"strconv"
	"strings"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain/solbc"
	"github.com/rovshanmuradov/pump-trader/internal/blockchain/solbc/transaction"
)

// Константы для кодов ошибок программы
const (
	SlippageExceededCode    = "0x1774"
	SlippageExceededCodeInt = 6004
)

// IsSlippageExceededError определяет, отклонила ли программа AMM свап из-за границы проскальзывания.
// Понимает и ошибку отправки (логи симуляции), и статус отклонённой транзакции из поллера.
func IsSlippageExceededError(err error) bool {
	if err == nil {
		return false
	}
	var confirmErr *transaction.ConfirmationError
	if errors.As(err, &confirmErr) {
		code, ok := confirmErr.CustomCode()
		return ok && code == SlippageExceededCodeInt
	}
	var submitErr *solbc.SubmitError
	if errors.As(err, &submitErr) && submitErr.Anchor != nil {
		return submitErr.Anchor.Code == SlippageExceededCodeInt
	}
	msg := err.Error()
	return strings.Contains(msg, "ExceededSlippage") ||
		strings.Contains(msg, SlippageExceededCode) ||
		strings.Contains(msg, `"Custom":`+strconv.Itoa(SlippageExceededCodeInt))
}
