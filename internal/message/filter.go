package message

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// Registered filter identifiers.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZIP        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6
	FilterLZ4         uint16 = 32004
)

// Filter is one stage of a filter pipeline.
type Filter struct {
	ID     uint16
	Flags  uint16
	Name   string
	Params []uint32
}

// Optional reports whether the filter may be skipped when it cannot be
// applied.
func (f Filter) Optional() bool { return f.Flags&0x01 != 0 }

// FilterPipeline lists the filters applied to chunks, in the order they
// were applied when writing.
type FilterPipeline struct {
	Filters []Filter
}

func decodeFilterPipeline(d *binary.Decoder) (*FilterPipeline, error) {
	version := d.U8()
	n := int(d.U8())
	switch version {
	case 1:
		d.Skip(6)
	case 2:
	default:
		return nil, fmt.Errorf("unsupported filter pipeline version %d", version)
	}

	p := &FilterPipeline{Filters: make([]Filter, n)}
	for i := range p.Filters {
		f := &p.Filters[i]
		f.ID = d.U16()
		var nameLen int
		if version == 1 || f.ID >= 256 {
			nameLen = int(d.U16())
		}
		f.Flags = d.U16()
		params := int(d.U16())
		if nameLen > 0 {
			name := d.Bytes(nameLen)
			if version == 1 && nameLen%8 != 0 {
				d.Skip(8 - nameLen%8)
			}
			f.Name = cstring(name)
		}
		f.Params = make([]uint32, params)
		for j := range f.Params {
			f.Params[j] = d.U32()
		}
		if version == 1 && params%2 == 1 {
			d.Skip(4)
		}
	}
	return p, d.Err()
}

// cstring returns b up to its first null byte.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
