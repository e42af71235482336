package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/field"
	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
)

// Reader decodes the little-endian fixed-width layout written by Writer. Every field element is checked against the configured field.
type Reader struct {
	buf []byte
	off int
	cfg field.Config
}

// NewReader returns a reader over data for elements of cfg.
func NewReader(cfg field.Config, data []byte) *Reader {
	return &Reader{buf: data, cfg: cfg}
}

// Offset returns the current read position.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Bool reads a one-byte boolean.
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		r.off--
		return false, fmt.Errorf("%w: %d", ErrInvalidTag, v)
	}
}

// Len reads a sequence length prefix. minItemSize is the smallest encoding of
// one item; the length is rejected before any allocation when the remaining
// input cannot hold that many items.
func (r *Reader) Len(minItemSize int) (int, error) {
	start := r.off
	n, err := r.U64()
	if err != nil {
		return 0, err
	}
	if minItemSize < 1 {
		minItemSize = 1
	}
	if n > math.MaxInt32 || n > uint64(r.Remaining()/minItemSize) {
		r.off = start
		return 0, fmt.Errorf("%w: %d items", ErrLengthOverflow, n)
	}
	return int(n), nil
}

// Bytes reads a length-prefixed byte string. The result aliases the input.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Len(1)
	if err != nil {
		return nil, err
	}
	return r.take(n)
}

// Str reads a length-prefixed UTF-8 string.
func (r *Reader) Str() (string, error) {
	start := r.off
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		r.off = start
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// Felt reads a canonical field element.
func (r *Reader) Felt() (proof.Felt, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	if !r.cfg.IsCanonical(v) {
		r.off -= 4
		return 0, fmt.Errorf("%w: %d >= %d (%s)", ErrNonCanonical, v, r.cfg.Modulus(), r.cfg.Name())
	}
	return v, nil
}

// Felts reads a length-prefixed sequence of field elements.
func (r *Reader) Felts() ([]proof.Felt, error) {
	n, err := r.Len(4)
	if err != nil {
		return nil, err
	}
	out := make([]proof.Felt, n)
	for i := range out {
		if out[i], err = r.Felt(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Digest reads a fixed-size digest.
func (r *Reader) Digest() (proof.Digest, error) {
	var d proof.Digest
	for i := range d {
		v, err := r.Felt()
		if err != nil {
			return proof.Digest{}, err
		}
		d[i] = v
	}
	return d, nil
}

// Option reads an option tag and reports whether a value follows.
func (r *Reader) Option() (bool, error) {
	return r.Bool()
}

// Writer is the encoding counterpart of Reader.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with capacity hint size.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the encoded output.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// U8 appends one byte.
func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

// U32 appends a little-endian u32.
func (w *Writer) U32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// U64 appends a little-endian u64.
func (w *Writer) U64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// Bool appends a 0/1 byte.
func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

// Len appends a u64 length prefix.
func (w *Writer) Len(n int) {
	w.U64(uint64(n))
}

// ByteString appends a length-prefixed byte sequence.
func (w *Writer) ByteString(b []byte) {
	w.Len(len(b))
	w.buf = append(w.buf, b...)
}

// Str appends a length-prefixed UTF-8 string.
func (w *Writer) Str(s string) {
	w.Len(len(s))
	w.buf = append(w.buf, s...)
}

// Felt appends a field element as a u32.
func (w *Writer) Felt(v proof.Felt) {
	w.U32(v)
}

// Felts appends a length-prefixed sequence of field elements.
func (w *Writer) Felts(vs []proof.Felt) {
	w.Len(len(vs))
	for _, v := range vs {
		w.U32(v)
	}
}

// Digest appends the digest elements without a length prefix.
func (w *Writer) Digest(d proof.Digest) {
	for _, v := range d {
		w.U32(v)
	}
}
