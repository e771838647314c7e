package message

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// LayoutClass says where a dataset's raw data lives.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

// ChunkIndex is the structure that maps chunk coordinates to addresses.
type ChunkIndex uint8

const (
	// IndexBTreeV1 is used by every layout message older than version 4.
	IndexBTreeV1         ChunkIndex = 0
	IndexSingle          ChunkIndex = 1
	IndexImplicit        ChunkIndex = 2
	IndexFixedArray      ChunkIndex = 3
	IndexExtensibleArray ChunkIndex = 4
	IndexBTreeV2         ChunkIndex = 5
)

// Layout is the data layout message.
type Layout struct {
	Version uint8
	Class   LayoutClass

	// Compact data, stored in the message itself.
	Data []byte

	// Address is the contiguous data block or the chunk index.
	Address uint64
	// Size is the contiguous block size in bytes.
	Size uint64

	// Chunk is the chunk shape in elements, one entry per dataset dimension.
	Chunk []uint64
	// ElemSize is the element size the chunks were written with.
	ElemSize uint32
	Index    ChunkIndex

	// SingleFiltered is set when a single-chunk index stores a filtered
	// chunk, whose size and mask are then recorded here.
	SingleFiltered bool
	SingleSize     uint64
	SingleMask     uint32

	// PageBits sizes fixed array data block pages.
	PageBits uint8
	// Extensible array creation parameters.
	MaxBits, IndexElems, MinPointers, MinElems uint8
	// NodeSize is the v2 B-tree node size.
	NodeSize uint32
}

func decodeLayout(d *binary.Decoder) (*Layout, error) {
	l := &Layout{Version: d.U8()}
	switch l.Version {
	case 1, 2:
		return l, decodeLayoutV12(d, l)
	case 3, 4:
	default:
		return nil, fmt.Errorf("unsupported layout version %d", l.Version)
	}

	l.Class = LayoutClass(d.U8())
	switch l.Class {
	case LayoutCompact:
		l.Data = d.Bytes(int(d.U16()))
	case LayoutContiguous:
		l.Address = d.Addr()
		l.Size = d.Length()
	case LayoutChunked:
		if l.Version == 3 {
			n := int(d.U8())
			l.Address = d.Addr()
			dims := make([]uint64, n)
			for i := range dims {
				dims[i] = uint64(d.U32())
			}
			if err := l.splitChunk(dims); err != nil {
				return nil, err
			}
			break
		}
		return l, decodeChunkedV4(d, l)
	case LayoutVirtual:
		return nil, fmt.Errorf("virtual datasets are not supported")
	default:
		return nil, fmt.Errorf("unknown layout class %d", l.Class)
	}
	return l, d.Err()
}

// splitChunk separates the trailing element size dimension that chunk
// shapes carry on disk.
func (l *Layout) splitChunk(dims []uint64) error {
	if len(dims) < 2 {
		return fmt.Errorf("chunk shape %v has no element size dimension", dims)
	}
	l.Chunk = dims[:len(dims)-1]
	l.ElemSize = uint32(dims[len(dims)-1])
	for _, c := range l.Chunk {
		if c == 0 {
			return fmt.Errorf("chunk shape %v has a zero extent", dims)
		}
	}
	return nil
}

func decodeLayoutV12(d *binary.Decoder, l *Layout) error {
	n := int(d.U8())
	l.Class = LayoutClass(d.U8())
	d.Skip(5)
	if l.Class != LayoutCompact {
		l.Address = d.Addr()
	}
	dims := make([]uint64, n)
	for i := range dims {
		dims[i] = uint64(d.U32())
	}

	switch l.Class {
	case LayoutCompact:
		l.Data = d.Bytes(int(d.U32()))
	case LayoutContiguous:
		// the dimensions end with the element size, so their product is
		// the block size
		l.Size = 1
		for _, v := range dims {
			l.Size *= v
		}
	case LayoutChunked:
		if err := l.splitChunk(dims); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown layout class %d", l.Class)
	}
	return d.Err()
}

func decodeChunkedV4(d *binary.Decoder, l *Layout) error {
	flags := d.U8()
	n := int(d.U8())
	width := int(d.U8())
	dims := make([]uint64, n)
	for i := range dims {
		dims[i] = d.Uint(width)
	}
	if err := d.Err(); err != nil {
		return err
	}
	if err := l.splitChunk(dims); err != nil {
		return err
	}

	l.Index = ChunkIndex(d.U8())
	switch l.Index {
	case IndexSingle:
		if flags&0x02 != 0 {
			l.SingleFiltered = true
			l.SingleSize = d.Length()
			l.SingleMask = d.U32()
		}
	case IndexImplicit:
	case IndexFixedArray:
		l.PageBits = d.U8()
	case IndexExtensibleArray:
		l.MaxBits = d.U8()
		l.IndexElems = d.U8()
		l.MinPointers = d.U8()
		l.MinElems = d.U8()
		l.PageBits = d.U8()
	case IndexBTreeV2:
		l.NodeSize = d.U32()
		d.Skip(2) // split and merge percentages
	default:
		return fmt.Errorf("unknown chunk index type %d", l.Index)
	}
	l.Address = d.Addr()
	return d.Err()
}
