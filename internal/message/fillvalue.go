package message

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// FillValue is the value of dataset elements that were never written.
type FillValue struct {
	// Value is one encoded element, or nil when the fill is all zeros.
	Value []byte
}

func decodeFillValueOld(d *binary.Decoder) (*FillValue, error) {
	f := &FillValue{}
	if n := int(d.U32()); n > 0 {
		f.Value = d.Bytes(n)
	}
	return f, d.Err()
}

func decodeFillValue(d *binary.Decoder) (*FillValue, error) {
	f := &FillValue{}
	var defined bool
	switch v := d.U8(); v {
	case 1, 2:
		d.U8() // allocation time
		d.U8() // write time
		defined = d.U8() != 0
		// version 1 always records a size, even when undefined
		if !defined && v == 1 {
			d.Bytes(int(d.U32()))
		}
	case 3:
		flags := d.U8()
		defined = flags&0x20 != 0
	default:
		return nil, fmt.Errorf("unsupported fill value version %d", v)
	}
	if defined {
		if n := int(d.U32()); n > 0 {
			f.Value = d.Bytes(n)
		}
	}
	return f, d.Err()
}
