// internal/blockchain/errors.go
package blockchain

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrAccountNotFound            = errors.New("account not found")
	ErrMalformedAccount           = errors.New("malformed account")
	ErrAddressDerivationExhausted = errors.New("address derivation exhausted")
)

// AccountError привязывает ошибку чтения/декодирования к адресу аккаунта.
type AccountError struct {
	Address solana.PublicKey
	Kind    error
	Cause   error
}

func (e *AccountError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Address)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Address, e.Cause)
}

func (e *AccountError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// NotFound возвращает AccountNotFound для address.
func NotFound(address solana.PublicKey) error {
	return &AccountError{Address: address, Kind: ErrAccountNotFound}
}

// Malformed возвращает MalformedAccount для address с причиной cause.
func Malformed(address solana.PublicKey, cause error) error {
	return &AccountError{Address: address, Kind: ErrMalformedAccount, Cause: cause}
}

// IsAccountNotFoundError проверяет, что аккаунт отсутствует.
func IsAccountNotFoundError(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
