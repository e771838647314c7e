package message

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// Attribute is a small named value stored in an object header.
type Attribute struct {
	Name  string
	Type  *Datatype
	Space *Dataspace
	// Data holds the encoded elements, Space.Elements() * Type.Size bytes.
	Data []byte
}

func decodeAttribute(d *binary.Decoder) (*Attribute, error) {
	version := d.U8()
	flags := d.U8()
	nameLen := int(d.U16())
	typeLen := int(d.U16())
	spaceLen := int(d.U16())
	if version == 3 {
		d.U8() // name charset
	}

	pad := func(n int) int { return n }
	switch version {
	case 1:
		pad = func(n int) int { return (n + 7) &^ 7 }
	case 2, 3:
	default:
		return nil, fmt.Errorf("unsupported attribute version %d", version)
	}
	if flags&0x03 != 0 {
		return nil, fmt.Errorf("attribute with shared datatype or dataspace is not supported")
	}

	a := &Attribute{Name: cstring(d.Bytes(pad(nameLen)))}

	var err error
	if a.Type, err = decodeDatatype(d.Sub(pad(typeLen))); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	if a.Space, err = decodeDataspace(d.Sub(pad(spaceLen))); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}

	n := a.Space.Elements() * uint64(a.Type.Size)
	if n > uint64(d.Len()) {
		return nil, fmt.Errorf("attribute %q: %d data bytes, message has %d", a.Name, n, d.Len())
	}
	a.Data = d.Bytes(int(n))
	return a, d.Err()
}
