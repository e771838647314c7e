package layout

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
	"github.com/robert-malhotra/go-ims/internal/btree"
	"github.com/robert-malhotra/go-ims/internal/message"
)

// grid maps linear chunk indices to chunk offsets.
type grid struct {
	dims  []uint64
	chunk []uint64
	// n is the number of chunks along each dimension, over the maximum
	// extent when it is fixed and the current one otherwise.
	n []uint64
	// order lists dimensions from slowest to fastest varying.
	order []int
}

func newGrid(s *Source) grid {
	l := s.Layout
	g := grid{dims: s.shape(), chunk: l.Chunk}
	for i, d := range g.dims {
		ext := d
		if s.MaxDims != nil && s.MaxDims[i] != message.Unlimited && s.MaxDims[i] > d {
			ext = s.MaxDims[i]
		}
		g.n = append(g.n, (ext+l.Chunk[i]-1)/l.Chunk[i])
		g.order = append(g.order, i)
	}
	return g
}

// unlimitedFirst moves the unlimited dimension, if any, to the front of the
// order, as extensible array indices number their chunks.
func (g *grid) unlimitedFirst(maxDims []uint64) {
	for i, m := range maxDims {
		if m == message.Unlimited && i > 0 {
			g.order = append([]int{i}, append(g.order[:i:i], g.order[i+1:]...)...)
			return
		}
	}
}

// size returns the number of chunks in the grid.
func (g grid) size() uint64 {
	n := uint64(1)
	for _, v := range g.n {
		n *= v
	}
	return n
}

// offset returns the first element of chunk lin, and false when the chunk
// lies outside the current extent.
func (g grid) offset(lin uint64) ([]uint64, bool) {
	off := make([]uint64, len(g.dims))
	for k := len(g.order) - 1; k >= 0; k-- {
		d := g.order[k]
		scaled := lin
		if k > 0 {
			scaled, lin = lin%g.n[d], lin/g.n[d]
		}
		off[d] = scaled * g.chunk[d]
		if off[d] >= g.dims[d] {
			return nil, false
		}
	}
	return off, true
}

// entry is one element of an array chunk index.
type entry struct {
	index uint64
	addr  uint64
	size  uint64
	mask  uint32
}

func (g grid) chunks(entries []entry) []btree.Chunk {
	var out []btree.Chunk
	for _, e := range entries {
		if e.addr == binary.Undefined {
			continue
		}
		if off, ok := g.offset(e.index); ok {
			out = append(out, btree.Chunk{Offset: off, Size: e.size, Mask: e.mask, Addr: e.addr})
		}
	}
	return out
}

func chunkBytes(s *Source) uint64 {
	n := uint64(s.ElemSize)
	for _, c := range s.Layout.Chunk {
		n *= c
	}
	return n
}

// listChunks returns the allocated chunks of a chunked dataset.
func listChunks(r *binary.Reader, s *Source) ([]btree.Chunk, error) {
	l := s.Layout
	if l.Address == binary.Undefined {
		return nil, nil
	}
	g := newGrid(s)
	switch l.Index {
	case message.IndexBTreeV1:
		return btree.ChunksV1(r, l.Address, len(l.Chunk))
	case message.IndexBTreeV2:
		return btree.ChunksV2(r, l.Address, l.Chunk)
	case message.IndexSingle:
		c := btree.Chunk{Offset: make([]uint64, len(l.Chunk)), Addr: l.Address}
		if l.SingleFiltered {
			c.Size, c.Mask = l.SingleSize, l.SingleMask
		}
		return []btree.Chunk{c}, nil
	case message.IndexImplicit:
		n := g.size()
		entries := make([]entry, n)
		for i := range entries {
			entries[i] = entry{index: uint64(i), addr: l.Address + uint64(i)*chunkBytes(s)}
		}
		return g.chunks(entries), nil
	case message.IndexFixedArray:
		entries, err := readFixedArray(r, l.Address)
		if err != nil {
			return nil, err
		}
		return g.chunks(entries), nil
	case message.IndexExtensibleArray:
		entries, err := readExtensibleArray(r, l.Address)
		if err != nil {
			return nil, err
		}
		g.unlimitedFirst(s.MaxDims)
		return g.chunks(entries), nil
	}
	return nil, fmt.Errorf("unsupported chunk index %d", l.Index)
}

func readChunked(r *binary.Reader, s *Source, start, count []uint64, out []byte) error {
	l := s.Layout
	shape := s.shape()
	if len(l.Chunk) != len(shape) {
		return fmt.Errorf("rank %d chunks for rank %d data", len(l.Chunk), len(shape))
	}
	if int(l.ElemSize) != s.ElemSize {
		return fmt.Errorf("chunks hold %d byte elements, datatype has %d", l.ElemSize, s.ElemSize)
	}
	chunks, err := listChunks(r, s)
	if err != nil {
		return fmt.Errorf("chunk index: %w", err)
	}

	rank := len(shape)
	lo := make([]uint64, rank)
	n := make([]uint64, rank)
	dstAt := make([]uint64, rank)
	srcAt := make([]uint64, rank)
	for _, c := range chunks {
		if len(c.Offset) != rank {
			return fmt.Errorf("chunk at 0x%x has rank %d offset", c.Addr, len(c.Offset))
		}
		if !overlap(c.Offset, l.Chunk, start, count, lo, n) {
			continue
		}
		data, err := readChunk(r, s, c)
		if err != nil {
			return fmt.Errorf("chunk %v: %w", c.Offset, err)
		}
		for i := range lo {
			dstAt[i] = lo[i] - start[i]
			srcAt[i] = lo[i] - c.Offset[i]
		}
		copyBox(out, count, dstAt, data, l.Chunk, srcAt, n, s.ElemSize)
	}
	return nil
}

// overlap intersects the chunk at off with the selection, storing the first
// shared element in lo and the shared extent in n.
func overlap(off, chunk, start, count, lo, n []uint64) bool {
	for i := range off {
		a, b := max(off[i], start[i]), min(off[i]+chunk[i], start[i]+count[i])
		if a >= b {
			return false
		}
		lo[i], n[i] = a, b-a
	}
	return true
}

// readChunk reads and unfilters one chunk.
func readChunk(r *binary.Reader, s *Source, c btree.Chunk) ([]byte, error) {
	want := chunkBytes(s)
	size := want
	filtered := s.Filters != nil && s.Filters.Len() > 0
	if filtered && c.Size > 0 {
		size = c.Size
	}
	b, err := r.ReadAt(c.Addr, int(size))
	if err != nil {
		return nil, err
	}
	if filtered {
		if b, err = s.Filters.Decode(b, c.Mask); err != nil {
			return nil, err
		}
	}
	if uint64(len(b)) < want {
		return nil, fmt.Errorf("decoded to %d bytes, want %d", len(b), want)
	}
	return b, nil
}
