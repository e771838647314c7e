package message

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// Class is a datatype class.
type Class uint8

const (
	ClassFixed     Class = 0
	ClassFloat     Class = 1
	ClassTime      Class = 2
	ClassString    Class = 3
	ClassBitfield  Class = 4
	ClassOpaque    Class = 5
	ClassCompound  Class = 6
	ClassReference Class = 7
	ClassEnum      Class = 8
	ClassVarLen    Class = 9
	ClassArray     Class = 10
)

var classNames = [...]string{
	"integer", "float", "time", "string", "bitfield", "opaque",
	"compound", "reference", "enum", "variable-length", "array",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class %d", uint8(c))
}

// String padding schemes.
const (
	PadNullTerm  = 0
	PadNullPad   = 1
	PadSpacePad  = 2
	CharsetASCII = 0
	CharsetUTF8  = 1
)

// Datatype describes the encoding of one element.
type Datatype struct {
	Class   Class
	Version uint8
	// Size is the stored size of one element in bytes.
	Size      uint32
	BigEndian bool
	Signed    bool

	// Strings, including variable-length ones.
	Padding uint8
	Charset uint8

	// Compound members in storage order.
	Members []Member
	// Base is the element type of arrays, enums and variable-length
	// sequences.
	Base *Datatype
	// Dims are the array extents.
	Dims []uint32
	// VarString marks a variable-length string rather than a sequence.
	VarString bool
	// Enum names and their encoded values, Size bytes each.
	EnumNames  []string
	EnumValues [][]byte
}

// Member is one field of a compound datatype.
type Member struct {
	Name   string
	Offset uint32
	Type   *Datatype
}

// IsString reports whether elements are strings of either kind.
func (t *Datatype) IsString() bool {
	return t.Class == ClassString || (t.Class == ClassVarLen && t.VarString)
}

// Member returns the compound member called name.
func (t *Datatype) Member(name string) (Member, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

func decodeDatatype(d *binary.Decoder) (*Datatype, error) {
	t, err := decodeType(d, 0)
	if err != nil {
		return nil, err
	}
	return t, d.Err()
}

// maxNesting bounds compound and array recursion in malformed input.
const maxNesting = 32

func decodeType(d *binary.Decoder, depth int) (*Datatype, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("datatype nested deeper than %d", maxNesting)
	}
	cv := d.U8()
	bits := uint32(d.U8()) | uint32(d.U8())<<8 | uint32(d.U8())<<16
	t := &Datatype{
		Class:   Class(cv & 0x0f),
		Version: cv >> 4,
		Size:    d.U32(),
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	if t.Version < 1 || t.Version > 4 {
		return nil, fmt.Errorf("unsupported datatype version %d", t.Version)
	}

	switch t.Class {
	case ClassFixed, ClassBitfield:
		t.BigEndian = bits&0x01 != 0
		t.Signed = bits&0x08 != 0
		d.Skip(4) // bit offset, precision
	case ClassFloat:
		t.BigEndian = bits&0x01 != 0
		t.Signed = true
		if bits&0x40 != 0 {
			return nil, fmt.Errorf("VAX float byte order is not supported")
		}
		d.Skip(12) // bit offset, precision, exponent and mantissa layout, bias
	case ClassTime:
		t.BigEndian = bits&0x01 != 0
		d.Skip(2)
	case ClassString:
		t.Padding = uint8(bits & 0x0f)
		t.Charset = uint8(bits>>4) & 0x0f
	case ClassOpaque:
		tag := int(bits & 0xff)
		d.Skip((tag + 7) &^ 7)
	case ClassCompound:
		return t, decodeCompound(d, t, int(bits&0xffff), depth)
	case ClassReference:
	case ClassEnum:
		return t, decodeEnum(d, t, int(bits&0xffff), depth)
	case ClassVarLen:
		t.VarString = bits&0x0f == 1
		t.Padding = uint8(bits>>4) & 0x0f
		t.Charset = uint8(bits>>8) & 0x0f
		base, err := decodeType(d, depth+1)
		if err != nil {
			return nil, err
		}
		t.Base = base
	case ClassArray:
		rank := int(d.U8())
		if t.Version < 3 {
			d.Skip(3)
		}
		t.Dims = make([]uint32, rank)
		for i := range t.Dims {
			t.Dims[i] = d.U32()
		}
		if t.Version < 3 {
			d.Skip(4 * rank) // permutation
		}
		base, err := decodeType(d, depth+1)
		if err != nil {
			return nil, err
		}
		t.Base = base
	default:
		return nil, fmt.Errorf("unknown datatype class %d", t.Class)
	}
	return t, d.Err()
}

// name8 decodes a null-terminated name padded to a multiple of eight bytes.
func name8(d *binary.Decoder) string {
	start := d.Pos()
	s := d.CString()
	if n := d.Pos() - start; n%8 != 0 {
		d.Skip(8 - n%8)
	}
	return s
}

// offsetWidth is the width of a version 3 member offset: just enough bytes
// to address the compound.
func offsetWidth(size uint32) int {
	switch {
	case size < 1<<8:
		return 1
	case size < 1<<16:
		return 2
	case size < 1<<24:
		return 3
	}
	return 4
}

func decodeCompound(d *binary.Decoder, t *Datatype, n, depth int) error {
	t.Members = make([]Member, n)
	for i := range t.Members {
		m := &t.Members[i]
		switch t.Version {
		case 1:
			m.Name = name8(d)
			m.Offset = d.U32()
			rank := int(d.U8())
			d.Skip(3 + 4 + 4 + 16) // reserved, permutation, reserved, dims
			if rank != 0 {
				return fmt.Errorf("member %q: version 1 array members are not supported", m.Name)
			}
		case 2:
			m.Name = name8(d)
			m.Offset = d.U32()
		default:
			m.Name = d.CString()
			m.Offset = uint32(d.Uint(offsetWidth(t.Size)))
		}
		mt, err := decodeType(d, depth+1)
		if err != nil {
			return fmt.Errorf("member %q: %w", m.Name, err)
		}
		if m.Offset+mt.Size > t.Size {
			return fmt.Errorf("member %q at %d+%d overruns %d byte compound", m.Name, m.Offset, mt.Size, t.Size)
		}
		m.Type = mt
	}
	return d.Err()
}

func decodeEnum(d *binary.Decoder, t *Datatype, n, depth int) error {
	base, err := decodeType(d, depth+1)
	if err != nil {
		return err
	}
	t.Base = base
	t.Signed = base.Signed
	t.BigEndian = base.BigEndian
	t.EnumNames = make([]string, n)
	for i := range t.EnumNames {
		if t.Version < 3 {
			t.EnumNames[i] = name8(d)
		} else {
			t.EnumNames[i] = d.CString()
		}
	}
	t.EnumValues = make([][]byte, n)
	for i := range t.EnumValues {
		t.EnumValues[i] = d.Bytes(int(base.Size))
	}
	return d.Err()
}
