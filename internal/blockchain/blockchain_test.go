package blockchain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAssociatedTokenAddressMatchesLegacyHelper(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	want, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)

	got, err := DeriveAssociatedTokenAddress(owner, mint, solana.TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	other, err := DeriveAssociatedTokenAddress(owner, mint, Token2022ProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, got, other)
}

func TestDeriveAddressIsDeterministic(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	a1, b1, err := DeriveAddress(solana.TokenProgramID, []byte("seed"), mint[:])
	require.NoError(t, err)
	a2, b2, err := DeriveAddress(solana.TokenProgramID, []byte("seed"), mint[:])
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)

	// порядок seeds важен
	a3, _, err := DeriveAddress(solana.TokenProgramID, mint[:], []byte("seed"))
	require.NoError(t, err)
	assert.NotEqual(t, a1, a3)
}

func TestDeriveAddressExhausted(t *testing.T) {
	// seed длиннее 32 байт не может быть использован
	_, _, err := DeriveAddress(solana.TokenProgramID, make([]byte, 64))
	assert.ErrorIs(t, err, ErrAddressDerivationExhausted)
}

func TestAccountErrorUnwrap(t *testing.T) {
	addr := solana.NewWallet().PublicKey()
	cause := errors.New("short")

	err := fmt.Errorf("failed to read: %w", Malformed(addr, cause))
	assert.ErrorIs(t, err, ErrMalformedAccount)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsAccountNotFoundError(err))

	var accErr *AccountError
	require.ErrorAs(t, err, &accErr)
	assert.Equal(t, addr, accErr.Address)

	assert.True(t, IsAccountNotFoundError(NotFound(addr)))
}
