package h5test

// Seal appends the lookup3 checksum of b.
func Seal(b []byte) []byte {
	var buf Buf
	return seal(buf.Raw(b))
}

// ChunkRecord encodes a version 2 B-tree chunk record. A sizeWidth of 0
// gives the unfiltered form without size and mask.
func ChunkRecord(addr, size uint64, sizeWidth int, mask uint32, scaled ...uint64) []byte {
	var b Buf
	b.U64(addr)
	if sizeWidth > 0 {
		for i := range sizeWidth {
			b.U8(uint8(size >> (8 * i)))
		}
		b.U32(mask)
	}
	for _, s := range scaled {
		b.U64(s)
	}
	return b.Bytes()
}

// BTreeLeaf encodes a version 2 leaf node.
func BTreeLeaf(typ uint8, records ...[]byte) []byte {
	var b Buf
	b.Str("BTLF").U8(0, typ)
	for _, r := range records {
		b.Raw(r)
	}
	return seal(&b)
}

// BTreeHeader encodes a version 2 B-tree header.
func BTreeHeader(typ uint8, nodeSize uint32, recSize, depth uint16, root uint64, rootRecs uint16, total uint64) []byte {
	var b Buf
	b.Str("BTHD").U8(0, typ).U32(nodeSize).U16(recSize).U16(depth).U8(100, 40)
	b.U64(root).U16(rootRecs).U64(total)
	return seal(&b)
}

// BTreeV2 stores a version 2 B-tree whose root is a single leaf and returns
// the header address.
func (f *File) BTreeV2(typ uint8, nodeSize uint32, records ...[]byte) uint64 {
	leaf := f.Put(BTreeLeaf(typ, records...))
	n := uint16(len(records))
	return f.Put(BTreeHeader(typ, nodeSize, uint16(len(records[0])), 0, leaf, n, uint64(n)))
}
