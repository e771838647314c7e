package layout

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
	"github.com/robert-malhotra/go-ims/internal/filter"
	"github.com/robert-malhotra/go-ims/internal/message"
)

// Source describes the storage of one dataset.
type Source struct {
	Layout *message.Layout
	// Dims is the current shape. It is empty for scalars.
	Dims []uint64
	// MaxDims may be nil. Unlimited dimensions hold message.Unlimited.
	MaxDims  []uint64
	ElemSize int
	Filters  *filter.Pipeline
	// Fill is one encoded element, or nil for zero fill.
	Fill []byte
}

func (s *Source) shape() []uint64 {
	if len(s.Dims) == 0 {
		return []uint64{1}
	}
	return s.Dims
}

// ReadAll reads every element.
func ReadAll(r *binary.Reader, s *Source) ([]byte, error) {
	shape := s.shape()
	return Read(r, s, make([]uint64, len(shape)), shape)
}

// Read reads the box of count elements starting at start.
func Read(r *binary.Reader, s *Source, start, count []uint64) ([]byte, error) {
	shape := s.shape()
	if len(start) != len(shape) || len(count) != len(shape) {
		return nil, fmt.Errorf("selection of rank %d/%d on rank %d data", len(start), len(count), len(shape))
	}
	n := uint64(1)
	for i := range shape {
		if start[i] > shape[i] || count[i] > shape[i]-start[i] {
			return nil, fmt.Errorf("selection [%d:+%d] outside dimension %d of size %d", start[i], count[i], i, shape[i])
		}
		n *= count[i]
	}
	if s.ElemSize <= 0 {
		return nil, fmt.Errorf("element size %d", s.ElemSize)
	}
	out := make([]byte, n*uint64(s.ElemSize))
	if n == 0 {
		return out, nil
	}

	l := s.Layout
	switch l.Class {
	case message.LayoutCompact:
		return out, readBlock(s, l.Data, start, count, out)
	case message.LayoutContiguous:
		return out, readContiguous(r, s, start, count, out)
	case message.LayoutChunked:
		fill(out, s.Fill)
		return out, readChunked(r, s, start, count, out)
	}
	return nil, fmt.Errorf("unsupported layout class %d", l.Class)
}

// fill repeats v over out. A nil v leaves out zeroed.
func fill(out, v []byte) {
	if len(v) == 0 || allZero(v) {
		return
	}
	for i := 0; i+len(v) <= len(out); i += len(v) {
		copy(out[i:], v)
	}
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// readBlock selects from data, which holds every element of the dataset.
func readBlock(s *Source, data []byte, start, count []uint64, out []byte) error {
	shape := s.shape()
	need := uint64(s.ElemSize)
	for _, d := range shape {
		need *= d
	}
	if uint64(len(data)) < need {
		return fmt.Errorf("%d bytes of data for %d expected", len(data), need)
	}
	copyBox(out, count, make([]uint64, len(count)), data, shape, start, count, s.ElemSize)
	return nil
}

func readContiguous(r *binary.Reader, s *Source, start, count []uint64, out []byte) error {
	l := s.Layout
	if l.Address == binary.Undefined {
		fill(out, s.Fill)
		return nil
	}
	shape := s.shape()
	total := uint64(s.ElemSize)
	for _, d := range shape {
		total *= d
	}
	if l.Size < total {
		return fmt.Errorf("contiguous block of %d bytes holds %d byte dataset", l.Size, total)
	}
	if uint64(len(out)) == total {
		b, err := r.ReadAt(l.Address, len(out))
		if err != nil {
			return fmt.Errorf("reading data: %w", err)
		}
		copy(out, b)
		return nil
	}

	// Read the selection row by row, a row being a run along the last
	// dimension.
	strides := stridesOf(shape)
	row := int(count[len(count)-1]) * s.ElemSize
	at := 0
	var err error
	eachRow(count, func(idx []uint64) bool {
		off := offset(strides, start, idx) * uint64(s.ElemSize)
		var b []byte
		if b, err = r.ReadAt(l.Address+off, row); err != nil {
			err = fmt.Errorf("reading data: %w", err)
			return false
		}
		at += copy(out[at:], b)
		return true
	})
	return err
}

// stridesOf returns the row-major element strides of shape.
func stridesOf(shape []uint64) []uint64 {
	st := make([]uint64, len(shape))
	n := uint64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		st[i] = n
		n *= shape[i]
	}
	return st
}

func offset(strides, start, idx []uint64) uint64 {
	var off uint64
	for i := range idx {
		off += (start[i] + idx[i]) * strides[i]
	}
	return off
}

// eachRow calls fn with the index of the first element of each row of a box
// of size count, in row-major order. The last index is always 0. It stops
// when fn returns false.
func eachRow(count []uint64, fn func(idx []uint64) bool) {
	for _, c := range count {
		if c == 0 {
			return
		}
	}
	idx := make([]uint64, len(count))
	for {
		if !fn(idx) {
			return
		}
		i := len(count) - 2
		for ; i >= 0; i-- {
			if idx[i]++; idx[i] < count[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

// copyBox copies a box of count elements from src, shaped srcShape and
// starting at srcStart, into dst, shaped dstShape, at dstStart.
func copyBox(dst []byte, dstShape, dstStart []uint64, src []byte, srcShape, srcStart, count []uint64, elem int) {
	ds, ss := stridesOf(dstShape), stridesOf(srcShape)
	row := int(count[len(count)-1]) * elem
	eachRow(count, func(idx []uint64) bool {
		d := int(offset(ds, dstStart, idx)) * elem
		s := int(offset(ss, srcStart, idx)) * elem
		copy(dst[d:d+row], src[s:s+row])
		return true
	})
}
