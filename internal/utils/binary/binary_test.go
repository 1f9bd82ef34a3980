package binary

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderFixedLayout(t *testing.T) {
	key := solana.NewWallet().PublicKey()

	data := make([]byte, 8+2+8+32)
	data[8] = 0x34
	data[9] = 0x12
	binary.LittleEndian.PutUint64(data[10:18], 1_000_000_007)
	copy(data[18:], key[:])

	r, err := NewAccountReader(data, len(data))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), r.U16())
	assert.Equal(t, uint64(1_000_000_007), r.U64())
	assert.Equal(t, key, r.PubKey())
	require.NoError(t, r.Err())
	assert.Equal(t, 0, r.Remaining())
}

func TestAccountReaderRejectsShortBuffer(t *testing.T) {
	_, err := NewAccountReader(make([]byte, 10), 40)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestReaderStickyError(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	_ = r.U64()
	require.ErrorIs(t, r.Err(), ErrShortBuffer)
	// после ошибки чтения возвращают нули
	assert.Equal(t, uint8(0), r.U8())
}

func TestReaderStringStripsPadding(t *testing.T) {
	raw := []byte("PEPE\x00\x00\x00\x00")
	data := make([]byte, 4+len(raw))
	binary.LittleEndian.PutUint32(data, uint32(len(raw)))
	copy(data[4:], raw)

	r := NewReader(data)
	assert.Equal(t, "PEPE", r.String())
	require.NoError(t, r.Err())
}

func TestReaderStringLengthOverflow(t *testing.T) {
	data := []byte{0xff, 0, 0, 0, 'a'}
	r := NewReader(data)
	assert.Equal(t, "", r.String())
	assert.ErrorIs(t, r.Err(), ErrShortBuffer)
}

func TestWriterLayout(t *testing.T) {
	out, err := NewWriter().
		Raw([]byte{1, 2, 3, 4, 5, 6, 7, 8}).
		U64(42).
		U8(1).
		Bytes()
	require.NoError(t, err)
	require.Len(t, out, 17)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, out[:8])
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(out[8:16]))
	assert.Equal(t, byte(1), out[16])
}

func TestReadUint64At(t *testing.T) {
	data := make([]byte, 72)
	binary.LittleEndian.PutUint64(data[64:], 987654321)

	v, err := ReadUint64At(data, 64)
	require.NoError(t, err)
	assert.Equal(t, uint64(987654321), v)

	_, err = ReadUint64At(data[:70], 64)
	assert.ErrorIs(t, err, ErrShortBuffer)
}
