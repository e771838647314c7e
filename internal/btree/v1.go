package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-ims/internal/binary"
	"github.com/robert-malhotra/go-ims/internal/heap"
)

// Chunk is one stored chunk of a dataset.
type Chunk struct {
	// Offset is the chunk's first element in dataset coordinates.
	Offset []uint64
	// Size is the stored, possibly filtered, size in bytes.
	Size uint64
	// Mask has bit i set when filter i was skipped for this chunk.
	Mask uint32
	Addr uint64
}

const (
	typeGroup = 0
	typeChunk = 1
)

// maxLevel bounds the height of a version 1 tree.
const maxLevel = 64

type nodeV1 struct {
	level    uint8
	keys     []*binary.Decoder
	children []uint64
}

func readNodeV1(r *binary.Reader, addr uint64, typ uint8, keySize int) (*nodeV1, error) {
	head := 8 + 2*r.OffsetSize()
	d, err := r.Block(addr, head)
	if err != nil {
		return nil, fmt.Errorf("B-tree node at 0x%x: %w", addr, err)
	}
	d.Expect("TREE")
	if t := d.U8(); t != typ {
		d.Fail("node type %d, want %d", t, typ)
	}
	n := &nodeV1{level: d.U8()}
	entries := int(d.U16())
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("B-tree node at 0x%x: %w", addr, err)
	}

	d, err = r.Block(addr+uint64(head), entries*(keySize+r.OffsetSize())+keySize)
	if err != nil {
		return nil, fmt.Errorf("B-tree node at 0x%x: %w", addr, err)
	}
	n.children = make([]uint64, entries)
	for i := range n.children {
		n.keys = append(n.keys, d.Sub(keySize))
		n.children[i] = d.Addr()
	}
	n.keys = append(n.keys, d.Sub(keySize))
	return n, d.Err()
}

// walkV1 calls leaf for every entry of the leaf nodes below addr, passing
// the key to the entry's left and the child address.
func walkV1(r *binary.Reader, addr uint64, typ uint8, keySize int, level int, leaf func(key *binary.Decoder, child uint64) error) error {
	n, err := readNodeV1(r, addr, typ, keySize)
	if err != nil {
		return err
	}
	if level >= 0 && int(n.level) != level {
		return fmt.Errorf("B-tree node at 0x%x: level %d, parent expects %d", addr, n.level, level)
	}
	if n.level > maxLevel {
		return fmt.Errorf("B-tree node at 0x%x: level %d too deep", addr, n.level)
	}
	for i, child := range n.children {
		if n.level > 0 {
			err = walkV1(r, child, typ, keySize, int(n.level)-1, leaf)
		} else {
			err = leaf(n.keys[i], child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Symbol is a member of an old-style group.
type Symbol struct {
	Name   string
	Header uint64
	// Soft is the target path when the member is a soft link.
	Soft string
}

// Symbols lists the members of the group whose B-tree is at tree, reading
// names from the group's local heap.
func Symbols(r *binary.Reader, tree uint64, names *heap.Local) ([]Symbol, error) {
	var out []Symbol
	err := walkV1(r, tree, typeGroup, r.LengthSize(), -1, func(_ *binary.Decoder, node uint64) error {
		syms, err := readSymbolNode(r, node, names)
		out = append(out, syms...)
		return err
	})
	return out, err
}

func readSymbolNode(r *binary.Reader, addr uint64, names *heap.Local) ([]Symbol, error) {
	d, err := r.Block(addr, 8)
	if err != nil {
		return nil, fmt.Errorf("symbol node at 0x%x: %w", addr, err)
	}
	d.Expect("SNOD")
	if v := d.U8(); v != 1 {
		d.Fail("unsupported symbol node version %d", v)
	}
	d.Skip(1)
	count := int(d.U16())
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("symbol node at 0x%x: %w", addr, err)
	}

	entry := 2*r.OffsetSize() + 8 + 16
	d, err = r.Block(addr+8, count*entry)
	if err != nil {
		return nil, fmt.Errorf("symbol node at 0x%x: %w", addr, err)
	}
	syms := make([]Symbol, count)
	for i := range syms {
		nameOff := d.Addr()
		syms[i].Header = d.Addr()
		cache := d.U32()
		d.Skip(4)
		scratch := d.Sub(16)
		if syms[i].Name, err = names.String(nameOff); err != nil {
			return nil, err
		}
		if cache == 2 {
			if syms[i].Soft, err = names.String(uint64(scratch.U32())); err != nil {
				return nil, err
			}
		}
	}
	return syms, d.Err()
}

// ChunksV1 lists the chunks indexed by the version 1 chunk B-tree at tree.
// rank is the dataset rank.
func ChunksV1(r *binary.Reader, tree uint64, rank int) ([]Chunk, error) {
	var out []Chunk
	keySize := 4 + 4 + 8*(rank+1)
	err := walkV1(r, tree, typeChunk, keySize, -1, func(key *binary.Decoder, child uint64) error {
		c := Chunk{Size: uint64(key.U32()), Mask: key.U32(), Addr: child}
		c.Offset = make([]uint64, rank)
		for i := range c.Offset {
			c.Offset[i] = key.U64()
		}
		out = append(out, c)
		return key.Err()
	})
	return out, err
}
