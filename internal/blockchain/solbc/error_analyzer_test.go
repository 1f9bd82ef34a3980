package solbc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeSubmitErrorExtractsAnchorError(t *testing.T) {
	rpcErr := &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"logs": []interface{}{
				"Program pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA invoke [1]",
				"Program log: AnchorError occurred. Error Code: ExceededSlippage. Error Number: 6004. Error Message: Slippage exceeded.",
			},
		},
	}

	err := AnalyzeSubmitError(fmt.Errorf("send: %w", rpcErr))

	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr))
	assert.Equal(t, -32002, submitErr.Code)
	assert.Len(t, submitErr.Logs, 2)
	require.NotNil(t, submitErr.Anchor)
	assert.Equal(t, AnchorError{Code: 6004, Name: "ExceededSlippage", Msg: "Slippage exceeded"}, *submitErr.Anchor)
	assert.ErrorIs(t, err, rpcErr)
}

func TestAnalyzeSubmitErrorPassThrough(t *testing.T) {
	assert.NoError(t, AnalyzeSubmitError(nil))

	plain := errors.New("connection reset")
	assert.Same(t, plain, AnalyzeSubmitError(plain))

	// без логов симуляции Anchor-ошибки нет
	err := AnalyzeSubmitError(&jsonrpc.RPCError{Code: -32005, Message: "node is behind"})
	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr))
	assert.Nil(t, submitErr.Anchor)
}

func TestIsMissingAccountRPCError(t *testing.T) {
	assert.True(t, isMissingAccountRPCError(&jsonrpc.RPCError{Message: "Invalid param: could not find account"}))
	assert.False(t, isMissingAccountRPCError(&jsonrpc.RPCError{Message: "rate limited"}))
	assert.False(t, isMissingAccountRPCError(errors.New("could not find account")))
}
