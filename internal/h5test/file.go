package h5test

import "github.com/robert-malhotra/go-ims/internal/binary"

// seal appends the lookup3 checksum of b.
func seal(b *Buf) []byte {
	return b.U32(binary.Lookup3(b.Bytes())).Bytes()
}

func v2Messages(b *Buf, msgs []Msg) {
	for _, m := range msgs {
		b.U8(uint8(m.Type)).U16(uint16(len(m.Body))).U8(m.Flags).Raw(m.Body)
	}
}

// OHDR is a version 2 object header with a 4-byte chunk size.
func OHDR(msgs ...Msg) []byte {
	var body Buf
	v2Messages(&body, msgs)
	var b Buf
	b.Str("OHDR").U8(2, 0x02).U32(uint32(body.Len())).Raw(body.Bytes())
	return seal(&b)
}

// OCHK is a version 2 continuation block.
func OCHK(msgs ...Msg) []byte {
	var b Buf
	b.Str("OCHK")
	v2Messages(&b, msgs)
	return seal(&b)
}

// V1Messages encodes messages in the 8-byte aligned version 1 form.
func V1Messages(msgs ...Msg) []byte {
	var b Buf
	for _, m := range msgs {
		n := (len(m.Body) + 7) &^ 7
		b.U16(m.Type).U16(uint16(n)).U8(m.Flags, 0, 0, 0).Raw(m.Body).Pad(8)
	}
	return b.Bytes()
}

// HeaderV1 is a version 1 object header. count may exceed len(msgs) when
// some messages live in continuation blocks.
func HeaderV1(count int, msgs ...Msg) []byte {
	body := V1Messages(msgs...)
	var b Buf
	b.U8(1, 0).U16(uint16(count)).U32(1).U32(uint32(len(body))).U32(0)
	return b.Raw(body).Bytes()
}

// SuperblockSize is the size of the version 2 superblock File writes.
const SuperblockSize = 48

// File lays out structures in an in-memory HDF5 file.
type File struct {
	buf Buf
}

// NewFile reserves room for the superblock.
func NewFile() *File {
	f := &File{}
	f.buf.Raw(make([]byte, SuperblockSize))
	return f
}

// Put appends p at the next 8-byte boundary and returns its address.
func (f *File) Put(p []byte) uint64 {
	f.buf.Pad(8)
	addr := uint64(f.buf.Len())
	f.buf.Raw(p)
	return addr
}

// Patch overwrites bytes at addr.
func (f *File) Patch(addr uint64, p []byte) { copy(f.buf.b[addr:], p) }

// Dataset stores data contiguously and returns the address of a header
// describing it.
func (f *File) Dataset(typ, space, data []byte, extra ...Msg) uint64 {
	addr := Undefined
	if len(data) > 0 {
		addr = f.Put(data)
	}
	msgs := []Msg{
		M(MsgDataspace, space),
		M(MsgDatatype, typ),
		M(MsgLayout, Contiguous(addr, uint64(len(data)))),
	}
	return f.Put(OHDR(append(msgs, extra...)...))
}

// Group returns the address of a new-style group header holding msgs,
// typically links and attributes.
func (f *File) Group(msgs ...Msg) uint64 {
	return f.Put(OHDR(append([]Msg{LinkInfo()}, msgs...)...))
}

// Bytes finishes the file with a version 2 superblock naming root.
func (f *File) Bytes(root uint64) []byte {
	var sb Buf
	sb.Str("\x89HDF\r\n\x1a\n").U8(2, 8, 8, 0)
	sb.U64(0).U64(Undefined).U64(uint64(f.buf.Len())).U64(root)
	f.Patch(0, seal(&sb))
	return f.buf.Bytes()
}

// LocalHeap stores names in a local heap and returns the heap address and
// each name's offset. Offset 0 holds the empty string.
func (f *File) LocalHeap(names ...string) (uint64, []uint64) {
	var data Buf
	data.U64(0)
	offs := make([]uint64, len(names))
	for i, n := range names {
		offs[i] = uint64(data.Len())
		data.CStr(n).Pad(8)
	}
	seg := f.Put(data.Bytes())
	var b Buf
	b.Str("HEAP").U8(0, 0, 0, 0).U64(uint64(data.Len())).U64(Undefined).U64(seg)
	return f.Put(b.Bytes()), offs
}

// Entry is a symbol table entry.
type Entry struct {
	Name   uint64
	Header uint64
	// Cache 2 marks a soft link whose value offset is Target.
	Cache  uint32
	Target uint32
}

// SymbolNode stores a group symbol table node.
func (f *File) SymbolNode(entries ...Entry) uint64 {
	var b Buf
	b.Str("SNOD").U8(1, 0).U16(uint16(len(entries)))
	for _, e := range entries {
		b.U64(e.Name).U64(e.Header).U32(e.Cache).U32(0)
		b.U32(e.Target).U32(0).U64(0)
	}
	return f.Put(b.Bytes())
}

// GroupTree stores a leaf group B-tree node over symbol nodes. keys holds
// one more entry than nodes.
func (f *File) GroupTree(keys []uint64, nodes ...uint64) uint64 {
	var b Buf
	b.Str("TREE").U8(0, 0).U16(uint16(len(nodes))).U64(Undefined).U64(Undefined)
	for i, n := range nodes {
		b.U64(keys[i]).U64(n)
	}
	b.U64(keys[len(nodes)])
	return f.Put(b.Bytes())
}

// Chunk is one entry of a chunk index.
type Chunk struct {
	// Offset is the chunk's first element in dataset coordinates.
	Offset []uint64
	Size   uint32
	Mask   uint32
	Addr   uint64
}

// ChunkTree stores a version 1 chunk B-tree node at the given level. Below
// level 0 the Addr of each chunk is a child node.
func (f *File) ChunkTree(level uint8, chunks ...Chunk) uint64 {
	var b Buf
	b.Str("TREE").U8(1, level).U16(uint16(len(chunks))).U64(Undefined).U64(Undefined)
	key := func(c Chunk) {
		b.U32(c.Size).U32(c.Mask)
		for _, o := range c.Offset {
			b.U64(o)
		}
		b.U64(0)
	}
	for _, c := range chunks {
		key(c)
		b.U64(c.Addr)
	}
	last := Chunk{Offset: make([]uint64, len(chunks[0].Offset))}
	for i := range last.Offset {
		last.Offset[i] = 1 << 40
	}
	key(last)
	return f.Put(b.Bytes())
}

// GlobalHeap stores a global heap collection holding objects at indices
// 1, 2 and so on, and returns its address.
func (f *File) GlobalHeap(objects ...[]byte) uint64 {
	var b Buf
	b.Str("GCOL").U8(1, 0, 0, 0).U64(0)
	for i, o := range objects {
		b.U16(uint16(i + 1)).U16(1).U32(0).U64(uint64(len(o))).Raw(o).Pad(8)
	}
	// free space object
	b.U16(0).U16(0).U32(0).U64(16)
	b.Raw(make([]byte, 16))
	le.PutUint64(b.b[8:], uint64(b.Len()))
	return f.Put(b.Bytes())
}

// VarLen encodes a variable-length element referring to heap object index.
func VarLen(n uint32, heap uint64, index uint32) []byte {
	var b Buf
	return b.U32(n).U64(heap).U32(index).Bytes()
}
