// internal/utils/binary/binary.go
package binary

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ErrShortBuffer возвращается, когда запись короче, чем требует layout.
var ErrShortBuffer = errors.New("buffer too short")

// DiscriminatorSize - размер Anchor-тега в начале каждой записи.
const DiscriminatorSize = 8

// Reader читает little-endian поля фиксированной раскладки поверх bin.Decoder.
// Первая ошибка запоминается, последующие чтения возвращают нули.
type Reader struct {
	dec *bin.Decoder
	err error
}

// NewReader создаёт Reader для data.
func NewReader(data []byte) *Reader {
	return &Reader{dec: bin.NewBinDecoder(data)}
}

// NewAccountReader проверяет минимальную длину записи и пропускает тег.
func NewAccountReader(data []byte, minLen int) (*Reader, error) {
	if len(data) < minLen {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrShortBuffer, len(data), minLen)
	}
	r := NewReader(data)
	r.Skip(DiscriminatorSize)
	return r, r.Err()
}

func (r *Reader) fail(err error) {
	if r.err == nil && err != nil {
		r.err = fmt.Errorf("%w: %v", ErrShortBuffer, err)
	}
}

// Err возвращает первую ошибку чтения.
func (r *Reader) Err() error { return r.err }

// Remaining возвращает число непрочитанных байт.
func (r *Reader) Remaining() int { return r.dec.Remaining() }

func (r *Reader) Skip(n int) {
	if r.err != nil {
		return
	}
	if r.dec.Remaining() < n {
		r.fail(fmt.Errorf("skip %d with %d left", n, r.dec.Remaining()))
		return
	}
	r.fail(r.dec.SkipBytes(uint(n)))
}

func (r *Reader) U8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint8()
	r.fail(err)
	return v
}

func (r *Reader) Bool() bool { return r.U8() != 0 }

func (r *Reader) U16() uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint16(bin.LE)
	r.fail(err)
	return v
}

func (r *Reader) U32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(bin.LE)
	r.fail(err)
	return v
}

func (r *Reader) U64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(bin.LE)
	r.fail(err)
	return v
}

func (r *Reader) I64() int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadInt64(bin.LE)
	r.fail(err)
	return v
}

// PubKey читает 32-байтовый публичный ключ.
func (r *Reader) PubKey() solana.PublicKey {
	if r.err != nil {
		return solana.PublicKey{}
	}
	b, err := r.dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		r.fail(err)
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(b)
}

// String читает строку с 4-байтовым префиксом длины и срезает нулевой паддинг.
func (r *Reader) String() string {
	n := r.U32()
	if r.err != nil {
		return ""
	}
	if int(n) > r.dec.Remaining() {
		r.fail(fmt.Errorf("string length %d exceeds %d remaining", n, r.dec.Remaining()))
		return ""
	}
	b, err := r.dec.ReadNBytes(int(n))
	if err != nil {
		r.fail(err)
		return ""
	}
	return strings.TrimRight(string(b), "\x00")
}

// Writer собирает бинарный payload инструкции.
type Writer struct {
	buf bytes.Buffer
	enc *bin.Encoder
	err error
}

func NewWriter() *Writer {
	w := &Writer{}
	w.enc = bin.NewBinEncoder(&w.buf)
	return w
}

// Raw пишет байты без префикса длины (селектор, флаги).
func (w *Writer) Raw(b []byte) *Writer {
	if w.err == nil {
		w.err = w.enc.WriteBytes(b, false)
	}
	return w
}

func (w *Writer) U8(v uint8) *Writer {
	if w.err == nil {
		w.err = w.enc.WriteUint8(v)
	}
	return w
}

func (w *Writer) U64(v uint64) *Writer {
	if w.err == nil {
		w.err = w.enc.WriteUint64(v, bin.LE)
	}
	return w
}

// Bytes возвращает собранный payload.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// ReadUint64At читает u64 по фиксированному смещению (например, amount в SPL token account).
func ReadUint64At(data []byte, offset int) (uint64, error) {
	r := NewReader(data)
	r.Skip(offset)
	v := r.U64()
	return v, r.Err()
}
