// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/rovshanmuradov/pump-trader/internal/blockchain"
)

// Signer - всё, что движок знает о ключе: адрес, ATA владельца и способность подписать.
type Signer interface {
	PublicKey() solana.PublicKey
	GetATA(mint, tokenProgram solana.PublicKey) (solana.PublicKey, error)
	SignTransaction(tx *solana.Transaction) error
}

// Wallet представляет кошелёк Solana.
type Wallet struct {
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey

	mu       sync.Mutex
	ataCache map[ataKey]solana.PublicKey // Кеш для ассоциированных адресов токен-аккаунтов (ATA)
}

type ataKey struct {
	mint, tokenProgram solana.PublicKey
}

// NewWallet создаёт новый кошелёк из base58-encoded приватного ключа.
func NewWallet(privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	return FromPrivateKey(solana.PrivateKey(privateKeyBytes)), nil
}

// FromPrivateKey оборачивает готовый ключ.
func FromPrivateKey(key solana.PrivateKey) *Wallet {
	return &Wallet{
		privateKey: key,
		publicKey:  key.PublicKey(),
		ataCache:   make(map[ataKey]solana.PublicKey),
	}
}

func (w *Wallet) PublicKey() solana.PublicKey { return w.publicKey }

// SignTransaction подписывает транзакцию с помощью приватного ключа кошелька.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.publicKey) {
			return &w.privateKey
		}
		return nil
	})
	return err
}

// GetATA возвращает адрес ассоциированного токен-аккаунта (ATA) для mint под tokenProgram.
// Если адрес уже был вычислен ранее, возвращается значение из кеша.
func (w *Wallet) GetATA(mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	key := ataKey{mint, tokenProgram}
	w.mu.Lock()
	defer w.mu.Unlock()
	if ata, ok := w.ataCache[key]; ok {
		return ata, nil
	}
	ata, err := blockchain.DeriveAssociatedTokenAddress(w.publicKey, mint, tokenProgram)
	if err != nil {
		return solana.PublicKey{}, err
	}
	// Сохраняем вычисленный ATA в кеш
	w.ataCache[key] = ata
	return ata, nil
}

// String возвращает строковое представление кошелька (его публичный ключ).
func (w *Wallet) String() string {
	return w.publicKey.String()
}

var _ Signer = (*Wallet)(nil)
