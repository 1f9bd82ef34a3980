// internal/blockchain/solbc/transaction/validator.go
package transaction

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

var (
	ErrInvalidSignature   = errors.New("transaction is not signed by the fee payer")
	ErrInvalidBlockhash   = errors.New("transaction has no recent blockhash")
	ErrInvalidInstruction = errors.New("transaction has no instructions")
)

type Validator struct {
	logger *zap.Logger
}

func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{
		logger: logger.Named("tx-validator"),
	}
}

// ValidateTransaction проверяет подписанную транзакцию перед отправкой.
func (v *Validator) ValidateTransaction(tx *solana.Transaction) error {
	if err := v.ValidateBlockhash(tx); err != nil {
		return err
	}
	if err := v.ValidateInstructions(tx.Message.Instructions); err != nil {
		return err
	}
	return v.ValidateSignatures(tx)
}

func (v *Validator) ValidateSignatures(tx *solana.Transaction) error {
	if len(tx.Signatures) == 0 || tx.Signatures[0] == (solana.Signature{}) {
		return ErrInvalidSignature
	}
	if err := tx.VerifySignatures(); err != nil {
		v.logger.Debug("Signature verification failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

func (v *Validator) ValidateBlockhash(tx *solana.Transaction) error {
	if tx.Message.RecentBlockhash == (solana.Hash{}) {
		return ErrInvalidBlockhash
	}
	return nil
}

func (v *Validator) ValidateInstructions(instructions []solana.CompiledInstruction) error {
	if len(instructions) == 0 {
		return ErrInvalidInstruction
	}
	return nil
}
