package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trader.log")
	cfg := DefaultConfig()
	cfg.LogFile = path
	cfg.Development = true

	l, err := New(cfg)
	require.NoError(t, err)

	end := l.TrackPerformance("quote")
	l.WithTransaction("5sig").Info("Transaction sent")
	end()
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Transaction sent")
	assert.Contains(t, string(data), `"signature":"5sig"`)
	assert.Contains(t, string(data), `"correlation_id"`)
}

func TestNewWithoutFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFile = ""
	l, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, l.WithOperation("watch"))
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "6EF8...wF6P", ShortenAddress("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"))
	assert.Equal(t, "abc", ShortenAddress("abc"))
	assert.Equal(t, "12345678...abcdefgh", ShortenSignature("12345678XXXXXXXXXXabcdefgh"))
}
