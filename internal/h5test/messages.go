package h5test

// Message type numbers.
const (
	MsgDataspace    = 0x01
	MsgLinkInfo     = 0x02
	MsgDatatype     = 0x03
	MsgFillValue    = 0x05
	MsgLink         = 0x06
	MsgLayout       = 0x08
	MsgPipeline     = 0x0b
	MsgAttribute    = 0x0c
	MsgContinuation = 0x10
	MsgSymbolTable  = 0x11
	MsgAttrInfo     = 0x15
)

// Undefined is the unallocated address.
const Undefined = ^uint64(0)

// Msg is a header message ready to be placed in an object header.
type Msg struct {
	Type  uint16
	Flags uint8
	Body  []byte
}

// M is shorthand for an unflagged message.
func M(t uint16, body []byte) Msg { return Msg{Type: t, Body: body} }

// Simple is a version 2 dataspace; no dimensions make it scalar.
func Simple(dims ...uint64) []byte {
	var b Buf
	kind := uint8(1)
	if len(dims) == 0 {
		kind = 0
	}
	b.U8(2, uint8(len(dims)), 0, kind)
	for _, d := range dims {
		b.U64(d)
	}
	return b.Bytes()
}

// Contiguous is a version 3 layout for a block at addr.
func Contiguous(addr, size uint64) []byte {
	var b Buf
	return b.U8(3, 1).U64(addr).U64(size).Bytes()
}

// Compact is a version 3 layout holding data inline.
func Compact(data []byte) []byte {
	var b Buf
	return b.U8(3, 0).U16(uint16(len(data))).Raw(data).Bytes()
}

// ChunkedV3 is a version 3 chunked layout indexed by a version 1 B-tree.
func ChunkedV3(tree uint64, elemSize uint32, chunk ...uint32) []byte {
	var b Buf
	b.U8(3, 2, uint8(len(chunk)+1)).U64(tree)
	for _, c := range chunk {
		b.U32(c)
	}
	return b.U32(elemSize).Bytes()
}

// ChunkedV4 is a version 4 chunked layout. params are the index-specific
// fields that precede the index address.
func ChunkedV4(flags, index uint8, params []byte, addr uint64, elemSize uint32, chunk ...uint32) []byte {
	var b Buf
	b.U8(4, 2, flags, uint8(len(chunk)+1), 4)
	for _, c := range chunk {
		b.U32(c)
	}
	b.U32(elemSize).U8(index).Raw(params)
	return b.U64(addr).Bytes()
}

// Filter is one pipeline stage.
type Filter struct {
	ID     uint16
	Flags  uint16
	Name   string
	Params []uint32
}

// Pipeline is a version 2 filter pipeline.
func Pipeline(filters ...Filter) []byte {
	var b Buf
	b.U8(2, uint8(len(filters)))
	for _, f := range filters {
		b.U16(f.ID)
		if f.ID >= 256 {
			b.U16(uint16(len(f.Name) + 1))
		}
		b.U16(f.Flags).U16(uint16(len(f.Params)))
		if f.ID >= 256 {
			b.CStr(f.Name)
		}
		for _, p := range f.Params {
			b.U32(p)
		}
	}
	return b.Bytes()
}

// Attr is a version 3 attribute message.
func Attr(name string, typ, space, data []byte) []byte {
	var b Buf
	b.U8(3, 0).U16(uint16(len(name) + 1)).U16(uint16(len(typ))).U16(uint16(len(space))).U8(0)
	return b.CStr(name).Raw(typ).Raw(space).Raw(data).Bytes()
}

// CharsAttr is an attribute in the Imaris one-byte-per-character form.
func CharsAttr(name, value string) Msg {
	t, s, d := Chars(value)
	return M(MsgAttribute, Attr(name, t, s, d))
}

// HardLink is a link message pointing at the header at addr.
func HardLink(name string, addr uint64) Msg {
	var b Buf
	b.U8(1, 0, uint8(len(name))).Str(name).U64(addr)
	return M(MsgLink, b.Bytes())
}

// SoftLink is a link message holding a path.
func SoftLink(name, target string) Msg {
	var b Buf
	b.U8(1, 0x08, 1, uint8(len(name))).Str(name).U16(uint16(len(target))).Str(target)
	return M(MsgLink, b.Bytes())
}

// ExternalLink is a link message into another file.
func ExternalLink(name, file, path string) Msg {
	var b Buf
	b.U8(1, 0x08, 64, uint8(len(name))).Str(name)
	b.U16(uint16(len(file) + len(path) + 3)).U8(0).CStr(file).CStr(path)
	return M(MsgLink, b.Bytes())
}

// LinkInfo marks a group whose links are stored as link messages.
func LinkInfo() Msg {
	var b Buf
	return M(MsgLinkInfo, b.U8(0, 0).U64(Undefined).U64(Undefined).Bytes())
}

// FillValue is a version 3 fill value message with a defined value.
func FillValue(value []byte) Msg {
	var b Buf
	return M(MsgFillValue, b.U8(3, 0x20).U32(uint32(len(value))).Raw(value).Bytes())
}

// Continuation points at a block of further messages.
func Continuation(addr, length uint64) Msg {
	var b Buf
	return M(MsgContinuation, b.U64(addr).U64(length).Bytes())
}

// SymbolTable is the message of an old-style group.
func SymbolTable(tree, heap uint64) Msg {
	var b Buf
	return M(MsgSymbolTable, b.U64(tree).U64(heap).Bytes())
}
