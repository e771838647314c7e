package message

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// Type identifies an object header message.
type Type uint16

const (
	TypeNil            Type = 0x00
	TypeDataspace      Type = 0x01
	TypeLinkInfo       Type = 0x02
	TypeDatatype       Type = 0x03
	TypeFillValueOld   Type = 0x04
	TypeFillValue      Type = 0x05
	TypeLink           Type = 0x06
	TypeExternalFiles  Type = 0x07
	TypeLayout         Type = 0x08
	TypeBogus          Type = 0x09
	TypeGroupInfo      Type = 0x0a
	TypeFilterPipeline Type = 0x0b
	TypeAttribute      Type = 0x0c
	TypeComment        Type = 0x0d
	TypeModTimeOld     Type = 0x0e
	TypeSharedTable    Type = 0x0f
	TypeContinuation   Type = 0x10
	TypeSymbolTable    Type = 0x11
	TypeModTime        Type = 0x12
	TypeBTreeK         Type = 0x13
	TypeDriverInfo     Type = 0x14
	TypeAttributeInfo  Type = 0x15
	TypeRefCount       Type = 0x16
)

func (t Type) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeDataspace:
		return "dataspace"
	case TypeLinkInfo:
		return "link info"
	case TypeDatatype:
		return "datatype"
	case TypeFillValueOld, TypeFillValue:
		return "fill value"
	case TypeLink:
		return "link"
	case TypeLayout:
		return "layout"
	case TypeFilterPipeline:
		return "filter pipeline"
	case TypeAttribute:
		return "attribute"
	case TypeAttributeInfo:
		return "attribute info"
	case TypeContinuation:
		return "continuation"
	case TypeSymbolTable:
		return "symbol table"
	}
	return fmt.Sprintf("type 0x%02x", uint16(t))
}

// FlagShared marks a message whose body refers to a message stored
// elsewhere.
const FlagShared = 0x02

// Decode parses the body of a message of type t. Shared messages decode to
// a *Shared reference. Unhandled types return nil, nil.
func Decode(t Type, flags uint8, d *binary.Decoder) (any, error) {
	if flags&FlagShared != 0 {
		return decodeShared(t, d)
	}

	var (
		m   any
		err error
	)
	switch t {
	case TypeDataspace:
		m, err = decodeDataspace(d)
	case TypeDatatype:
		m, err = decodeDatatype(d)
	case TypeFillValueOld:
		m, err = decodeFillValueOld(d)
	case TypeFillValue:
		m, err = decodeFillValue(d)
	case TypeLink:
		m, err = decodeLink(d)
	case TypeLinkInfo:
		m, err = decodeLinkInfo(d)
	case TypeAttributeInfo:
		m, err = decodeAttributeInfo(d)
	case TypeLayout:
		m, err = decodeLayout(d)
	case TypeFilterPipeline:
		m, err = decodeFilterPipeline(d)
	case TypeAttribute:
		m, err = decodeAttribute(d)
	case TypeContinuation:
		c := &Continuation{Addr: d.Addr(), Length: d.Length()}
		m, err = c, d.Err()
	case TypeSymbolTable:
		s := &SymbolTable{BTree: d.Addr(), Heap: d.Addr()}
		m, err = s, d.Err()
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%v message: %w", t, err)
	}
	return m, nil
}

// Continuation points at the next block of header messages.
type Continuation struct {
	Addr   uint64
	Length uint64
}

// SymbolTable locates the B-tree and local heap of an old-style group.
type SymbolTable struct {
	BTree uint64
	Heap  uint64
}

// LinkInfo marks a new-style group. When FractalHeap is defined the links
// live in dense storage rather than in link messages.
type LinkInfo struct {
	FractalHeap uint64
	NameIndex   uint64
}

// Dense reports whether the group keeps its links in a fractal heap.
func (l *LinkInfo) Dense() bool { return l.FractalHeap != binary.Undefined }

func decodeLinkInfo(d *binary.Decoder) (*LinkInfo, error) {
	if v := d.U8(); v != 0 {
		return nil, fmt.Errorf("unsupported version %d", v)
	}
	flags := d.U8()
	if flags&0x01 != 0 {
		d.U64() // max creation index
	}
	l := &LinkInfo{FractalHeap: d.Addr(), NameIndex: d.Addr()}
	return l, d.Err()
}

// AttributeInfo locates the attributes of an object that keeps them in
// dense storage.
type AttributeInfo struct {
	FractalHeap uint64
	NameIndex   uint64
}

// Dense reports whether attributes live in a fractal heap.
func (a *AttributeInfo) Dense() bool { return a.FractalHeap != binary.Undefined }

func decodeAttributeInfo(d *binary.Decoder) (*AttributeInfo, error) {
	if v := d.U8(); v != 0 {
		return nil, fmt.Errorf("unsupported version %d", v)
	}
	if flags := d.U8(); flags&0x01 != 0 {
		d.U16() // max creation index
	}
	a := &AttributeInfo{FractalHeap: d.Addr(), NameIndex: d.Addr()}
	return a, d.Err()
}

// Shared refers to a message stored in another object header, typically a
// committed datatype.
type Shared struct {
	Type Type
	// Addr is the object header that holds the message.
	Addr uint64
}

func decodeShared(t Type, d *binary.Decoder) (*Shared, error) {
	s := &Shared{Type: t}
	switch v := d.U8(); v {
	case 1:
		d.U8()
		d.Skip(6)
		s.Addr = d.Addr()
	case 2:
		d.U8()
		s.Addr = d.Addr()
	case 3:
		if kind := d.U8(); kind != 2 {
			return nil, fmt.Errorf("shared %v message in the shared message heap is not supported", t)
		}
		s.Addr = d.Addr()
	default:
		return nil, fmt.Errorf("shared %v message: unsupported version %d", t, v)
	}
	return s, d.Err()
}
