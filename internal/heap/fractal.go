package heap

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// Heap ID types.
const (
	idManaged = 0
	idHuge    = 1
	idTiny    = 2
)

// maxRows bounds the rows of an indirect block.
const maxRows = 64

// Fractal is a fractal heap, where new-style groups keep their links and
// objects keep their attributes once there are too many to hold in the
// object header. Only managed and tiny objects in unfiltered heaps are
// read.
type Fractal struct {
	r    *binary.Reader
	addr uint64

	idLen      int
	maxManaged uint32
	width      int
	startSize  uint64
	maxDirect  uint64
	maxHeap    int
	root       uint64
	rootRows   int

	// offSize and lenSize are the widths of the offset and length in a
	// managed object's heap ID.
	offSize, lenSize int

	blocks []directBlock
}

// directBlock is a direct block holding heap space [off, off+size).
type directBlock struct {
	off, size, addr uint64
}

// ReadFractal reads the fractal heap header at addr.
func ReadFractal(r *binary.Reader, addr uint64) (*Fractal, error) {
	o, l := r.OffsetSize(), r.LengthSize()
	n := 26 + 12*l + 3*o
	b, err := r.ReadAt(addr, n)
	if err != nil {
		return nil, fmt.Errorf("fractal heap at 0x%x: %w", addr, err)
	}
	d := r.Decoder(b)
	d.Expect("FRHP")
	if v := d.U8(); v != 0 {
		d.Fail("unsupported fractal heap version %d", v)
	}
	h := &Fractal{r: r, addr: addr}
	h.idLen = int(d.U16())
	filterLen := d.U16()
	d.U8() // flags
	h.maxManaged = d.U32()
	d.Length() // next huge object ID
	d.Addr()   // huge object B-tree
	d.Length() // free space
	d.Addr()   // free space manager
	for range 8 {
		d.Length() // space and object counters
	}
	h.width = int(d.U16())
	h.startSize = d.Length()
	h.maxDirect = d.Length()
	h.maxHeap = int(d.U16())
	d.U16() // starting rows of the root indirect block
	h.root = d.Addr()
	h.rootRows = int(d.U16())
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("fractal heap at 0x%x: %w", addr, err)
	}
	if filterLen != 0 {
		return nil, fmt.Errorf("fractal heap at 0x%x: filtered heaps are not supported", addr)
	}
	if err := binary.VerifyLookup3(b); err != nil {
		return nil, fmt.Errorf("fractal heap at 0x%x: %w", addr, err)
	}
	if h.width == 0 || !pow2(h.startSize) || !pow2(h.maxDirect) || h.maxDirect < h.startSize || h.rootRows > maxRows {
		return nil, fmt.Errorf("fractal heap at 0x%x: bad doubling table (width %d, blocks %d to %d, %d rows)",
			addr, h.width, h.startSize, h.maxDirect, h.rootRows)
	}
	h.offSize = (h.maxHeap + 7) / 8
	h.lenSize = min((log2(h.maxDirect)+7)/8, log2(uint64(h.maxManaged))/8+1)
	return h, nil
}

func pow2(v uint64) bool { return v != 0 && v&(v-1) == 0 }

func log2(v uint64) int { return bits.Len64(v) - 1 }

// IDLen returns the length of the heap's object IDs.
func (h *Fractal) IDLen() int { return h.idLen }

// rowSize is the size of each block in row r of the doubling table.
func (h *Fractal) rowSize(r int) uint64 {
	if r == 0 {
		return h.startSize
	}
	return h.startSize << (r - 1)
}

// directRows is the number of rows whose blocks are direct blocks.
func (h *Fractal) directRows() int { return log2(h.maxDirect) - log2(h.startSize) + 2 }

// Object returns the object with the given heap ID.
func (h *Fractal) Object(id []byte) ([]byte, error) {
	if len(id) == 0 {
		return nil, fmt.Errorf("empty heap ID")
	}
	if v := id[0] >> 6; v != 0 {
		return nil, fmt.Errorf("heap ID version %d", v)
	}
	switch typ := (id[0] >> 4) & 0x03; typ {
	case idTiny:
		n := int(id[0]&0x0f) + 1
		if 1+n > len(id) {
			return nil, fmt.Errorf("tiny object of %d bytes in %d byte heap ID", n, len(id))
		}
		return id[1 : 1+n], nil
	case idManaged:
	case idHuge:
		return nil, fmt.Errorf("huge heap objects are not supported")
	default:
		return nil, fmt.Errorf("heap ID type %d", typ)
	}

	if 1+h.offSize+h.lenSize > len(id) {
		return nil, fmt.Errorf("%d byte heap ID too short", len(id))
	}
	d := binary.NewDecoder(id[1:], h.offSize, h.lenSize)
	off, n := d.Uint(h.offSize), d.Uint(h.lenSize)
	if err := d.Err(); err != nil {
		return nil, err
	}
	if h.blocks == nil {
		if err := h.loadBlocks(); err != nil {
			return nil, err
		}
	}
	for _, b := range h.blocks {
		if off < b.off || off >= b.off+b.size {
			continue
		}
		if n > b.off+b.size-off {
			return nil, fmt.Errorf("heap object at %d overruns its %d byte block", off, b.size)
		}
		return h.r.ReadAt(b.addr+off-b.off, int(n))
	}
	return nil, fmt.Errorf("heap offset %d is in no allocated block", off)
}

// loadBlocks maps out the heap's direct blocks.
func (h *Fractal) loadBlocks() error {
	h.blocks = []directBlock{}
	if h.root == binary.Undefined {
		return nil
	}
	if h.rootRows == 0 {
		h.blocks = append(h.blocks, directBlock{off: 0, size: h.startSize, addr: h.root})
		return nil
	}
	return h.indirect(h.root, h.rootRows, 0)
}

// indirect adds the direct blocks below the indirect block at addr, which
// has nrows rows and starts at heap offset off.
func (h *Fractal) indirect(addr uint64, nrows int, off uint64) error {
	o := h.r.OffsetSize()
	n := 4 + 1 + o + h.offSize + nrows*h.width*o + 4
	b, err := h.r.ReadAt(addr, n)
	if err != nil {
		return fmt.Errorf("fractal heap indirect block at 0x%x: %w", addr, err)
	}
	if err := binary.VerifyLookup3(b); err != nil {
		return fmt.Errorf("fractal heap indirect block at 0x%x: %w", addr, err)
	}
	d := h.r.Decoder(b)
	d.Expect("FHIB")
	if v := d.U8(); v != 0 {
		d.Fail("unsupported indirect block version %d", v)
	}
	if a := d.Addr(); a != h.addr {
		d.Fail("block belongs to heap 0x%x", a)
	}
	d.Uint(h.offSize)
	children := make([]uint64, nrows*h.width)
	for i := range children {
		children[i] = d.Addr()
	}
	if err := d.Err(); err != nil {
		return fmt.Errorf("fractal heap indirect block at 0x%x: %w", addr, err)
	}

	for i, child := range children {
		row := i / h.width
		size := h.rowSize(row)
		switch {
		case child == binary.Undefined:
		case row < h.directRows():
			h.blocks = append(h.blocks, directBlock{off: off, size: size, addr: child})
		default:
			rows := log2(size) - log2(h.startSize*uint64(h.width)) + 1
			if rows <= 0 || rows >= nrows {
				return fmt.Errorf("fractal heap indirect block at 0x%x: child of %d rows", addr, rows)
			}
			if err := h.indirect(child, rows, off); err != nil {
				return err
			}
		}
		off += size
	}
	return nil
}
