package message

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// LinkKind is the target kind of a link.
type LinkKind uint8

const (
	LinkHard     LinkKind = 0
	LinkSoft     LinkKind = 1
	LinkExternal LinkKind = 64
)

// Link is a named group member in a new-style group.
type Link struct {
	Name string
	Kind LinkKind
	// Addr is the object header of a hard link.
	Addr uint64
	// Target is the path of a soft link or the object path of an external
	// link.
	Target string
	// File is the file an external link points into.
	File string
}

func decodeLink(d *binary.Decoder) (*Link, error) {
	if v := d.U8(); v != 1 {
		return nil, fmt.Errorf("unsupported link version %d", v)
	}
	flags := d.U8()
	l := &Link{}
	if flags&0x08 != 0 {
		l.Kind = LinkKind(d.U8())
	}
	if flags&0x04 != 0 {
		d.U64() // creation order
	}
	if flags&0x10 != 0 {
		d.U8() // name charset
	}
	l.Name = string(d.Bytes(int(d.Uint(1 << (flags & 0x03)))))

	switch l.Kind {
	case LinkHard:
		l.Addr = d.Addr()
	case LinkSoft:
		l.Target = string(d.Bytes(int(d.U16())))
	case LinkExternal:
		info := d.Sub(int(d.U16()))
		info.U8() // version and flags
		l.File = info.CString()
		l.Target = info.CString()
		if err := info.Err(); err != nil {
			return nil, fmt.Errorf("external link %q: %w", l.Name, err)
		}
	default:
		return nil, fmt.Errorf("link %q: unknown link type %d", l.Name, l.Kind)
	}
	return l, d.Err()
}
