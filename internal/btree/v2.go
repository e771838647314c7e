package btree

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// Record types of version 2 trees that index chunks.
const (
	RecordChunk         = 10
	RecordFilteredChunk = 11
)

// nodePrefix is the signature, version, type and checksum of every node.
const nodePrefix = 10

// HeaderV2 is a version 2 B-tree header.
type HeaderV2 struct {
	Type        uint8
	NodeSize    uint32
	RecordSize  uint16
	Depth       uint16
	Root        uint64
	RootRecords uint16
	Records     uint64
}

// ReadHeaderV2 reads the header at addr.
func ReadHeaderV2(r *binary.Reader, addr uint64) (*HeaderV2, error) {
	n := 4 + 1 + 1 + 4 + 2 + 2 + 1 + 1 + r.OffsetSize() + 2 + r.LengthSize() + 4
	b, err := r.ReadAt(addr, n)
	if err != nil {
		return nil, fmt.Errorf("B-tree header at 0x%x: %w", addr, err)
	}
	if err := binary.VerifyLookup3(b); err != nil {
		return nil, fmt.Errorf("B-tree header at 0x%x: %w", addr, err)
	}
	d := r.Decoder(b)
	d.Expect("BTHD")
	if v := d.U8(); v != 0 {
		d.Fail("unsupported B-tree version %d", v)
	}
	h := &HeaderV2{Type: d.U8(), NodeSize: d.U32(), RecordSize: d.U16(), Depth: d.U16()}
	d.Skip(2) // split and merge percentages
	h.Root = d.Addr()
	h.RootRecords = d.U16()
	h.Records = d.Length()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("B-tree header at 0x%x: %w", addr, err)
	}
	if h.RecordSize == 0 || uint32(h.RecordSize)+nodePrefix > h.NodeSize {
		return nil, fmt.Errorf("B-tree header at 0x%x: record size %d does not fit %d byte nodes", addr, h.RecordSize, h.NodeSize)
	}
	if h.Depth > maxLevel {
		return nil, fmt.Errorf("B-tree header at 0x%x: depth %d too deep", addr, h.Depth)
	}
	return h, nil
}

// encSize is the number of bytes needed to hold n.
func encSize(n uint64) int { return (bits.Len64(n)-1)/8 + 1 }

// treeV2 walks the nodes of one tree. Pointer fields in internal nodes are
// sized by the maximum record counts of the level below.
type treeV2 struct {
	r   *binary.Reader
	hdr *HeaderV2
	// nrecSize is the width of a child's record count.
	nrecSize int
	// totalSize[d] is the width of the total record count below a node at
	// depth d.
	totalSize []int
}

func newTreeV2(r *binary.Reader, h *HeaderV2) *treeV2 {
	t := &treeV2{r: r, hdr: h}
	space := uint64(h.NodeSize) - nodePrefix
	rec := uint64(h.RecordSize)

	leafMax := space / rec
	t.nrecSize = encSize(leafMax)
	cum := leafMax
	t.totalSize = []int{encSize(cum)}
	for d := 1; d <= int(h.Depth); d++ {
		ptr := uint64(r.OffsetSize()+t.nrecSize) + uint64(t.totalSize[d-1])
		most := space / (rec + ptr)
		cum = (most+1)*cum + most
		t.totalSize = append(t.totalSize, encSize(cum))
	}
	return t
}

// walk calls fn with every record below the node at addr, which holds n
// records and sits at the given depth.
func (t *treeV2) walk(addr uint64, n int, depth int, fn func(*binary.Decoder) error) error {
	sig := "BTLF"
	used := nodePrefix - 4 + n*int(t.hdr.RecordSize)
	if depth > 0 {
		sig = "BTIN"
		ptr := t.r.OffsetSize() + t.nrecSize
		if depth > 1 {
			ptr += t.totalSize[depth-1]
		}
		used += (n + 1) * ptr
	}
	b, err := t.r.ReadAt(addr, used+4)
	if err != nil {
		return fmt.Errorf("B-tree node at 0x%x: %w", addr, err)
	}
	if err := binary.VerifyLookup3(b); err != nil {
		return fmt.Errorf("B-tree node at 0x%x: %w", addr, err)
	}
	d := t.r.Decoder(b)
	d.Expect(sig)
	if v := d.U8(); v != 0 {
		d.Fail("unsupported node version %d", v)
	}
	if typ := d.U8(); typ != t.hdr.Type {
		d.Fail("node type %d, header says %d", typ, t.hdr.Type)
	}
	records := make([]*binary.Decoder, n)
	for i := range records {
		records[i] = d.Sub(int(t.hdr.RecordSize))
	}
	if err := d.Err(); err != nil {
		return fmt.Errorf("B-tree node at 0x%x: %w", addr, err)
	}
	if depth == 0 {
		for _, rec := range records {
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	}

	type child struct {
		addr uint64
		n    int
	}
	children := make([]child, n+1)
	for i := range children {
		children[i].addr = d.Addr()
		children[i].n = int(d.Uint(t.nrecSize))
		if depth > 1 {
			d.Uint(t.totalSize[depth-1])
		}
	}
	if err := d.Err(); err != nil {
		return fmt.Errorf("B-tree node at 0x%x: %w", addr, err)
	}
	// Records of an internal node sit between its children.
	for i, c := range children {
		if err := t.walk(c.addr, c.n, depth-1, fn); err != nil {
			return err
		}
		if i < n {
			if err := fn(records[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Records calls fn with each record of the tree at addr in key order.
func Records(r *binary.Reader, addr uint64, fn func(h *HeaderV2, rec *binary.Decoder) error) error {
	h, err := ReadHeaderV2(r, addr)
	if err != nil {
		return err
	}
	if h.Root == binary.Undefined || h.RootRecords == 0 {
		return nil
	}
	t := newTreeV2(r, h)
	return t.walk(h.Root, int(h.RootRecords), int(h.Depth), func(d *binary.Decoder) error {
		return fn(h, d)
	})
}

// ChunksV2 lists the chunks indexed by the version 2 B-tree at addr. chunk
// holds the chunk dimensions, which scale the offsets stored in records.
func ChunksV2(r *binary.Reader, addr uint64, chunk []uint64) ([]Chunk, error) {
	var out []Chunk
	rank := len(chunk)
	err := Records(r, addr, func(h *HeaderV2, d *binary.Decoder) error {
		var c Chunk
		c.Addr = d.Addr()
		switch h.Type {
		case RecordChunk:
		case RecordFilteredChunk:
			width := int(h.RecordSize) - r.OffsetSize() - 4 - 8*rank
			c.Size = d.Uint(width)
			c.Mask = d.U32()
		default:
			return fmt.Errorf("B-tree record type %d does not index chunks", h.Type)
		}
		c.Offset = make([]uint64, rank)
		for i := range c.Offset {
			c.Offset[i] = d.U64() * chunk[i]
		}
		if err := d.Err(); err != nil {
			return fmt.Errorf("chunk record: %w", err)
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

// Record types of version 2 trees that index links and attributes kept in
// a fractal heap, by name hash.
const (
	RecordLinkName = 5
	RecordAttrName = 8
)

// HeapIDs lists the fractal heap IDs held by the link or attribute name
// index at addr. idLen is the heap's ID length.
func HeapIDs(r *binary.Reader, addr uint64, idLen int) ([][]byte, error) {
	var out [][]byte
	err := Records(r, addr, func(h *HeaderV2, d *binary.Decoder) error {
		switch h.Type {
		case RecordLinkName:
			d.U32() // name hash
		case RecordAttrName:
		default:
			return fmt.Errorf("B-tree record type %d does not index names", h.Type)
		}
		out = append(out, d.Bytes(idLen))
		return d.Err()
	})
	return out, err
}
