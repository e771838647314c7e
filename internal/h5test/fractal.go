package h5test

// Fractal heap parameters used by the builders: 4-byte heap offsets and
// 2-byte object lengths give 7-byte managed object IDs.
const (
	HeapIDLen      = 7
	heapStartSize  = 512
	heapMaxDirect  = 1 << 16
	heapMaxManaged = 4096
	heapWidth      = 4
)

// frhp encodes a fractal heap header.
func frhp(root uint64, rootRows uint16) []byte {
	var b Buf
	b.Str("FRHP").U8(0).U16(HeapIDLen).U16(0).U8(0).U32(heapMaxManaged)
	b.U64(0).U64(Undefined).U64(0).U64(Undefined)
	for range 8 {
		b.U64(0)
	}
	b.U16(heapWidth).U64(heapStartSize).U64(heapMaxDirect).U16(32).U16(0)
	b.U64(root).U16(rootRows)
	return seal(&b)
}

// ManagedID is the heap ID of a managed object.
func ManagedID(off uint32, n uint16) []byte {
	var b Buf
	return b.U8(0).U32(off).U16(n).Bytes()
}

// TinyID is the heap ID of an object of at most six bytes stored in the ID
// itself.
func TinyID(p []byte) []byte {
	var b Buf
	b.U8(0x20 | uint8(len(p)-1)).Raw(p)
	for b.Len() < HeapIDLen {
		b.U8(0)
	}
	return b.Bytes()
}

// dblock encodes a direct block at heap offset off holding objects back to
// back and returns it with each object's ID.
func dblock(heap uint64, off uint32, size int, objects [][]byte) ([]byte, [][]byte) {
	var b Buf
	b.Str("FHDB").U8(0).U64(heap).U32(off)
	ids := make([][]byte, len(objects))
	for i, o := range objects {
		ids[i] = ManagedID(off+uint32(b.Len()), uint16(len(o)))
		b.Raw(o)
	}
	b.Raw(make([]byte, size-b.Len()))
	return b.Bytes(), ids
}

// FractalHeap stores objects in a fractal heap whose root is one direct
// block and returns the heap address with the objects' IDs.
func (f *File) FractalHeap(objects ...[]byte) (uint64, [][]byte) {
	heap := f.Put(make([]byte, len(frhp(0, 0))))
	block, ids := dblock(heap, 0, heapStartSize, objects)
	root := f.Put(block)
	f.Patch(heap, frhp(root, 0))
	return heap, ids
}

// FractalHeapIndirect stores objects in the third direct block of a root
// indirect block of one row, leaving the others unallocated.
func (f *File) FractalHeapIndirect(objects ...[]byte) (uint64, [][]byte) {
	heap := f.Put(make([]byte, len(frhp(0, 0))))
	block, ids := dblock(heap, 2*heapStartSize, heapStartSize, objects)
	child := f.Put(block)

	var b Buf
	b.Str("FHIB").U8(0).U64(heap).U32(0)
	for i := range heapWidth {
		if i == 2 {
			b.U64(child)
		} else {
			b.U64(Undefined)
		}
	}
	root := f.Put(seal(&b))
	f.Patch(heap, frhp(root, 1))
	return heap, ids
}

// LinkNameRecord is a link name index record.
func LinkNameRecord(hash uint32, id []byte) []byte {
	var b Buf
	return b.U32(hash).Raw(id).Bytes()
}

// AttrNameRecord is an attribute name index record.
func AttrNameRecord(id []byte, order uint32, hash uint32) []byte {
	var b Buf
	return b.Raw(id).U8(0).U32(order).U32(hash).Bytes()
}

// DenseLinkInfo marks a group whose links live in the fractal heap at heap,
// indexed by the name B-tree at index.
func DenseLinkInfo(heap, index uint64) Msg {
	var b Buf
	return M(MsgLinkInfo, b.U8(0, 0).U64(heap).U64(index).Bytes())
}

// AttrInfo locates dense attribute storage.
func AttrInfo(heap, index uint64) Msg {
	var b Buf
	return M(MsgAttrInfo, b.U8(0, 0).U64(heap).U64(index).Bytes())
}
