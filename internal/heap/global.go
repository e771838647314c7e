package heap

import (
	"fmt"
	"sync"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// Ref locates one global heap object. Variable-length elements are stored
// as a Ref preceded by their element count.
type Ref struct {
	Collection uint64
	Index      uint32
}

// IsNull reports whether the reference points nowhere, as an empty
// variable-length value does.
func (r Ref) IsNull() bool { return r.Collection == 0 || r.Collection == binary.Undefined }

// DecodeVarLen decodes a variable-length element: its length and heap
// reference.
func DecodeVarLen(d *binary.Decoder) (uint32, Ref) {
	n := d.U32()
	return n, Ref{Collection: d.Addr(), Index: d.U32()}
}

// Collection is one global heap collection.
type Collection struct {
	objects map[uint16][]byte
}

// ReadCollection reads the collection at addr.
func ReadCollection(r *binary.Reader, addr uint64) (*Collection, error) {
	d, err := r.Block(addr, 8+r.LengthSize())
	if err != nil {
		return nil, fmt.Errorf("global heap at 0x%x: %w", addr, err)
	}
	d.Expect("GCOL")
	if v := d.U8(); v != 1 {
		d.Fail("unsupported global heap version %d", v)
	}
	d.Skip(3)
	size := d.Length()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("global heap at 0x%x: %w", addr, err)
	}

	d, err = r.Block(addr, int(size))
	if err != nil {
		return nil, fmt.Errorf("global heap at 0x%x: %w", addr, err)
	}
	d.Skip(8 + r.LengthSize())

	c := &Collection{objects: map[uint16][]byte{}}
	objHeader := 8 + r.LengthSize()
	for d.Len() >= objHeader {
		idx := d.U16()
		d.U16() // reference count
		d.Skip(4)
		n := d.Length()
		// index 0 is the collection's free space
		if idx == 0 {
			break
		}
		c.objects[idx] = d.Bytes(int(n))
		d.Align(8)
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("global heap at 0x%x: %w", addr, err)
	}
	return c, nil
}

// Object returns the data of object i.
func (c *Collection) Object(i uint16) ([]byte, error) {
	b, ok := c.objects[i]
	if !ok {
		return nil, fmt.Errorf("global heap object %d not found", i)
	}
	return b, nil
}

// Global resolves references against the collections of one file, reading
// each collection once. It is safe for concurrent use.
type Global struct {
	r *binary.Reader

	mu   sync.Mutex
	cols map[uint64]*Collection
}

// NewGlobal returns a resolver reading from r.
func NewGlobal(r *binary.Reader) *Global {
	return &Global{r: r, cols: map[uint64]*Collection{}}
}

// Resolve returns the object ref points at. Null references resolve to nil.
func (g *Global) Resolve(ref Ref) ([]byte, error) {
	if ref.IsNull() {
		return nil, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.cols[ref.Collection]
	if !ok {
		var err error
		if c, err = ReadCollection(g.r, ref.Collection); err != nil {
			return nil, err
		}
		g.cols[ref.Collection] = c
	}
	return c.Object(uint16(ref.Index))
}
