package message

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// Unlimited is the maximum size of a dimension that can grow without bound.
const Unlimited = ^uint64(0)

// Dataspace is the shape of a dataset or attribute.
type Dataspace struct {
	Dims []uint64
	// MaxDims is nil when the message does not record maximum sizes.
	MaxDims []uint64
	// Null dataspaces hold no elements at all.
	Null bool
}

// Scalar reports whether the dataspace holds a single element with no
// dimensions.
func (s *Dataspace) Scalar() bool { return !s.Null && len(s.Dims) == 0 }

// Elements returns the number of elements described.
func (s *Dataspace) Elements() uint64 {
	if s.Null {
		return 0
	}
	n := uint64(1)
	for _, d := range s.Dims {
		n *= d
	}
	return n
}

func decodeDataspace(d *binary.Decoder) (*Dataspace, error) {
	version := d.U8()
	rank := int(d.U8())
	flags := d.U8()

	s := &Dataspace{}
	switch version {
	case 1:
		d.Skip(5)
	case 2:
		switch kind := d.U8(); kind {
		case 0, 1:
		case 2:
			s.Null = true
		default:
			return nil, fmt.Errorf("unknown dataspace type %d", kind)
		}
	default:
		return nil, fmt.Errorf("unsupported dataspace version %d", version)
	}

	if rank > 0 {
		s.Dims = make([]uint64, rank)
		for i := range s.Dims {
			s.Dims[i] = d.Length()
		}
	}
	if flags&0x01 != 0 && rank > 0 {
		s.MaxDims = make([]uint64, rank)
		all := uint64(1)<<(8*d.LengthSize()) - 1
		for i := range s.MaxDims {
			if s.MaxDims[i] = d.Length(); s.MaxDims[i] == all {
				s.MaxDims[i] = Unlimited
			}
		}
	}
	return s, d.Err()
}
