package h5test

// typeHeader writes the class and version byte, three class bit bytes and
// the element size.
func typeHeader(b *Buf, class, version uint8, bits uint32, size uint32) {
	b.U8(version<<4|class, uint8(bits), uint8(bits>>8), uint8(bits>>16)).U32(size)
}

// Uint is an unsigned little-endian integer type of size bytes.
func Uint(size int) []byte { return fixed(size, false) }

// Int is a signed little-endian integer type of size bytes.
func Int(size int) []byte { return fixed(size, true) }

func fixed(size int, signed bool) []byte {
	var b Buf
	var bits uint32
	if signed {
		bits = 0x08
	}
	typeHeader(&b, 0, 1, bits, uint32(size))
	return b.U16(0).U16(uint16(8 * size)).Bytes()
}

// BigEndian flips the byte order bit of an integer or float type.
func BigEndian(t []byte) []byte {
	out := append([]byte(nil), t...)
	out[1] |= 0x01
	return out
}

// Float is an IEEE float type of 4 or 8 bytes.
func Float(size int) []byte {
	var b Buf
	typeHeader(&b, 1, 1, 0x20|uint32(8*size-1)<<8, uint32(size))
	b.U16(0).U16(uint16(8 * size))
	if size == 4 {
		return b.U8(23, 8, 0, 23).U32(127).Bytes()
	}
	return b.U8(52, 11, 0, 52).U32(1023).Bytes()
}

// String is a fixed-size ASCII string type with the given padding.
func String(size int, pad uint8) []byte {
	var b Buf
	typeHeader(&b, 3, 1, uint32(pad), uint32(size))
	return b.Bytes()
}

// VarString is a variable-length UTF-8 string type.
func VarString() []byte {
	var b Buf
	typeHeader(&b, 9, 1, 0x01|1<<8, 16)
	return b.Raw(Uint(1)).Bytes()
}

// Field is a compound member.
type Field struct {
	Name   string
	Offset uint32
	Type   []byte
}

// Compound is a version 3 compound type of size bytes.
func Compound(size uint32, fields ...Field) []byte {
	var b Buf
	typeHeader(&b, 6, 3, uint32(len(fields)), size)
	for _, f := range fields {
		b.CStr(f.Name)
		switch {
		case size < 1<<8:
			b.U8(uint8(f.Offset))
		case size < 1<<16:
			b.U16(uint16(f.Offset))
		case size < 1<<24:
			b.U8(uint8(f.Offset), uint8(f.Offset>>8), uint8(f.Offset>>16))
		default:
			b.U32(f.Offset)
		}
		b.Raw(f.Type)
	}
	return b.Bytes()
}

// Array is a version 3 array type of base elements.
func Array(base []byte, baseSize uint32, dims ...uint32) []byte {
	size := baseSize
	for _, d := range dims {
		size *= d
	}
	var b Buf
	typeHeader(&b, 10, 3, 0, size)
	b.U8(uint8(len(dims)))
	for _, d := range dims {
		b.U32(d)
	}
	return b.Raw(base).Bytes()
}
