package binary

import (
	"errors"
	"fmt"
	"io"
)

// Undefined is the address HDF5 uses for "not allocated".
const Undefined = ^uint64(0)

// Reader reads structures out of an HDF5 file.
type Reader struct {
	r       io.ReaderAt
	base    uint64
	offSize int
	lenSize int
}

// NewReader returns a Reader over r. Addresses passed to the Reader are
// relative to base, the superblock's base address.
func NewReader(r io.ReaderAt, base uint64, offSize, lenSize int) *Reader {
	return &Reader{r: r, base: base, offSize: offSize, lenSize: lenSize}
}

// OffsetSize returns the width of file addresses.
func (r *Reader) OffsetSize() int { return r.offSize }

// LengthSize returns the width of file lengths.
func (r *Reader) LengthSize() int { return r.lenSize }

// ReadAt reads exactly n bytes at addr.
func (r *Reader) ReadAt(addr uint64, n int) ([]byte, error) {
	if addr == Undefined {
		return nil, fmt.Errorf("read of %d bytes at undefined address", n)
	}
	b := make([]byte, n)
	got, err := r.r.ReadAt(b, int64(r.base+addr))
	if got == n {
		return b, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = fmt.Errorf("%w: %d of %d bytes at 0x%x", io.ErrUnexpectedEOF, got, n, addr)
	}
	return nil, err
}

// ReadUpTo reads at most n bytes at addr, for structures whose size is only
// known once they are parsed.
func (r *Reader) ReadUpTo(addr uint64, n int) ([]byte, error) {
	if addr == Undefined {
		return nil, fmt.Errorf("read at undefined address")
	}
	b := make([]byte, n)
	got, err := r.r.ReadAt(b, int64(r.base+addr))
	if got > 0 && (err == nil || errors.Is(err, io.EOF)) {
		return b[:got], nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return nil, err
}

// Decoder wraps b with the file's address and length widths.
func (r *Reader) Decoder(b []byte) *Decoder {
	return NewDecoder(b, r.offSize, r.lenSize)
}

// Block reads n bytes at addr and returns a Decoder over them.
func (r *Reader) Block(addr uint64, n int) (*Decoder, error) {
	b, err := r.ReadAt(addr, n)
	if err != nil {
		return nil, err
	}
	return r.Decoder(b), nil
}
