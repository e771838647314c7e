package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// Local is a local heap data segment.
type Local struct {
	data []byte
}

// ReadLocal reads the local heap whose header is at addr.
func ReadLocal(r *binary.Reader, addr uint64) (*Local, error) {
	d, err := r.Block(addr, 8+2*r.LengthSize()+r.OffsetSize())
	if err != nil {
		return nil, fmt.Errorf("local heap at 0x%x: %w", addr, err)
	}
	d.Expect("HEAP")
	if v := d.U8(); v != 0 {
		d.Fail("unsupported local heap version %d", v)
	}
	d.Skip(3)
	size := d.Length()
	d.Length() // free list
	seg := d.Addr()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("local heap at 0x%x: %w", addr, err)
	}

	data, err := r.ReadAt(seg, int(size))
	if err != nil {
		return nil, fmt.Errorf("local heap data at 0x%x: %w", seg, err)
	}
	return &Local{data: data}, nil
}

// String returns the null-terminated string at off.
func (h *Local) String(off uint64) (string, error) {
	if off >= uint64(len(h.data)) {
		return "", fmt.Errorf("local heap offset %d beyond %d byte segment", off, len(h.data))
	}
	s := h.data[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s), nil
}
