package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is reported when a structure ends before all of its fields
// were decoded.
var ErrTruncated = errors.New("structure truncated")

// Decoder reads fields from a byte slice. Offsets and lengths are decoded
// with the widths declared in the superblock.
type Decoder struct {
	buf     []byte
	pos     int
	offSize int
	lenSize int
	err     error
}

// NewDecoder returns a Decoder over b using the given address and length
// widths in bytes.
func NewDecoder(b []byte, offSize, lenSize int) *Decoder {
	return &Decoder{buf: b, offSize: offSize, lenSize: lenSize}
}

// Err returns the first error met while decoding, or nil.
func (d *Decoder) Err() error { return d.err }

// Fail records err unless an earlier error is already set.
func (d *Decoder) Fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(format, args...)
	}
}

// Pos returns the number of bytes consumed so far.
func (d *Decoder) Pos() int { return d.pos }

// Len returns the number of bytes left.
func (d *Decoder) Len() int { return len(d.buf) - d.pos }

// OffsetSize returns the width of file addresses.
func (d *Decoder) OffsetSize() int { return d.offSize }

// LengthSize returns the width of file lengths.
func (d *Decoder) LengthSize() int { return d.lenSize }

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || n > d.Len() {
		d.err = fmt.Errorf("%w: need %d bytes at %d, have %d", ErrTruncated, n, d.pos, d.Len())
		d.pos = len(d.buf)
		return nil
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

// U8 decodes one byte.
func (d *Decoder) U8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

// U16 decodes a 2-byte value.
func (d *Decoder) U16() uint16 {
	if b := d.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

// U32 decodes a 4-byte value.
func (d *Decoder) U32() uint32 {
	if b := d.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

// U64 decodes an 8-byte value.
func (d *Decoder) U64() uint64 {
	if b := d.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

// Uint decodes an unsigned value n bytes wide, 0 < n <= 8.
func (d *Decoder) Uint(n int) uint64 {
	if n < 1 || n > 8 {
		d.Fail("unsupported integer width %d", n)
		return 0
	}
	b := d.take(n)
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// Addr decodes a file address. The all-ones address decodes to Undefined.
func (d *Decoder) Addr() uint64 {
	v := d.Uint(d.offSize)
	if d.offSize < 8 && v == 1<<(8*d.offSize)-1 {
		return Undefined
	}
	return v
}

// Length decodes a file length.
func (d *Decoder) Length() uint64 { return d.Uint(d.lenSize) }

// Bytes returns the next n bytes. The slice aliases the decoder's buffer.
func (d *Decoder) Bytes(n int) []byte { return d.take(n) }

// Rest returns everything not yet consumed.
func (d *Decoder) Rest() []byte { return d.take(d.Len()) }

// Skip discards n bytes.
func (d *Decoder) Skip(n int) { d.take(n) }

// Align skips forward to the next multiple of n, counted from the start of
// the buffer.
func (d *Decoder) Align(n int) {
	if r := d.pos % n; r != 0 {
		d.Skip(n - r)
	}
}

// Expect consumes len(sig) bytes and fails unless they equal sig.
func (d *Decoder) Expect(sig string) {
	b := d.take(len(sig))
	if b != nil && string(b) != sig {
		d.Fail("bad signature %q, want %q", b, sig)
	}
}

// CString decodes a null-terminated string and consumes the terminator.
func (d *Decoder) CString() string {
	if d.err != nil {
		return ""
	}
	for i := d.pos; i < len(d.buf); i++ {
		if d.buf[i] == 0 {
			s := string(d.buf[d.pos:i])
			d.pos = i + 1
			return s
		}
	}
	d.Fail("%w: unterminated string at %d", ErrTruncated, d.pos)
	return ""
}

// Sub returns a decoder over the next n bytes and advances past them.
func (d *Decoder) Sub(n int) *Decoder {
	return &Decoder{buf: d.take(n), offSize: d.offSize, lenSize: d.lenSize, err: d.err}
}
