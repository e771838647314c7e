package hdf5

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-ims/internal/dtype"
	"github.com/robert-malhotra/go-ims/internal/filter"
	"github.com/robert-malhotra/go-ims/internal/layout"
	"github.com/robert-malhotra/go-ims/internal/message"
	"github.com/robert-malhotra/go-ims/internal/object"
)

// Dataset is an HDF5 dataset. Reads go to the file each time; nothing is
// cached.
type Dataset struct {
	node
	typ   *message.Datatype
	space *message.Dataspace
	src   *layout.Source
}

func newDataset(n *node) (*Dataset, error) {
	typ, err := datatypeOf(n)
	if err != nil {
		return nil, err
	}
	space, ok := object.Get[*message.Dataspace](n.hdr)
	if !ok {
		return nil, fmt.Errorf("%s: no dataspace message", n.path)
	}
	lay, ok := object.Get[*message.Layout](n.hdr)
	if !ok {
		return nil, fmt.Errorf("%s: no layout message", n.path)
	}

	src := &layout.Source{
		Layout:   lay,
		Dims:     space.Dims,
		MaxDims:  space.MaxDims,
		ElemSize: int(typ.Size),
	}
	if p, ok := object.Get[*message.FilterPipeline](n.hdr); ok {
		if src.Filters, err = filter.New(p); err != nil {
			return nil, fmt.Errorf("%s: %w", n.path, err)
		}
	}
	for _, fv := range object.All[*message.FillValue](n.hdr) {
		if len(fv.Value) == src.ElemSize {
			src.Fill = fv.Value
			break
		}
	}
	return &Dataset{node: *n, typ: typ, space: space, src: src}, nil
}

// datatypeOf returns the element type of n, following a committed
// datatype if the header only refers to one.
func datatypeOf(n *node) (*message.Datatype, error) {
	if t, ok := object.Get[*message.Datatype](n.hdr); ok {
		return t, nil
	}
	for _, s := range object.All[*message.Shared](n.hdr) {
		if s.Type != message.TypeDatatype {
			continue
		}
		hdr, err := object.Read(n.file.r, s.Addr)
		if err != nil {
			return nil, fmt.Errorf("%s: committed datatype: %w", n.path, err)
		}
		if t, ok := object.Get[*message.Datatype](hdr); ok {
			return t, nil
		}
		return nil, fmt.Errorf("%s: committed datatype at 0x%x has no datatype message", n.path, s.Addr)
	}
	return nil, fmt.Errorf("%s: no datatype message", n.path)
}

// Shape returns the current extent of each dimension. Scalars have none.
func (d *Dataset) Shape() []uint64 { return d.space.Dims }

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int { return len(d.space.Dims) }

// NumElements returns the number of elements.
func (d *Dataset) NumElements() uint64 { return d.space.Elements() }

// IsScalar reports whether the dataset holds one element with no
// dimensions.
func (d *Dataset) IsScalar() bool { return d.space.Scalar() }

// DtypeSize returns the size of one element in bytes.
func (d *Dataset) DtypeSize() int { return int(d.typ.Size) }

// DtypeClass names the datatype class, such as "integer" or "compound".
func (d *Dataset) DtypeClass() string { return d.typ.Class.String() }

// GoType returns the Go type one element decodes to.
func (d *Dataset) GoType() (reflect.Type, error) { return dtype.GoType(d.typ) }

// Fields returns the member names of a compound dataset.
func (d *Dataset) Fields() ([]string, error) {
	if d.typ.Class != message.ClassCompound {
		return nil, fmt.Errorf("%s: %w", d.path, ErrNotCompound)
	}
	names := make([]string, len(d.typ.Members))
	for i, m := range d.typ.Members {
		names[i] = m.Name
	}
	return names, nil
}

// ReadRaw returns every element as stored, in row-major order.
func (d *Dataset) ReadRaw() ([]byte, error) {
	if d.file.isClosed() {
		return nil, ErrClosed
	}
	if d.space.Null {
		return nil, nil
	}
	b, err := layout.ReadAll(d.file.r, d.src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	return b, nil
}

// ReadSlice returns the stored elements of the box of count elements
// starting at start, in row-major order.
func (d *Dataset) ReadSlice(start, count []uint64) ([]byte, error) {
	if d.file.isClosed() {
		return nil, ErrClosed
	}
	if d.space.Null {
		return nil, fmt.Errorf("%s: dataset has a null dataspace", d.path)
	}
	b, err := layout.Read(d.file.r, d.src, start, count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	return b, nil
}

// Read returns every element of a numeric dataset converted to T.
func Read[T dtype.Number](d *Dataset) ([]T, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	v, err := dtype.Numbers[T](d.typ, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	return v, nil
}

func (d *Dataset) ReadFloat64() ([]float64, error) { return Read[float64](d) }
func (d *Dataset) ReadFloat32() ([]float32, error) { return Read[float32](d) }
func (d *Dataset) ReadUint8() ([]uint8, error)     { return Read[uint8](d) }
func (d *Dataset) ReadUint16() ([]uint16, error)   { return Read[uint16](d) }
func (d *Dataset) ReadUint32() ([]uint32, error)   { return Read[uint32](d) }
func (d *Dataset) ReadInt64() ([]int64, error)     { return Read[int64](d) }

// ReadString returns the elements of a string dataset.
func (d *Dataset) ReadString() ([]string, error) {
	if !d.typ.IsString() {
		return nil, fmt.Errorf("%s: %v data: %w", d.path, d.typ.Class, ErrNotString)
	}
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	s, err := dtype.Strings(d.typ, raw, d.file.global)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	return s, nil
}

// ReadField returns the numeric member name of every element of a
// compound dataset.
func (d *Dataset) ReadField(name string) ([]float64, error) {
	if d.typ.Class != message.ClassCompound {
		return nil, fmt.Errorf("%s: %v data: %w", d.path, d.typ.Class, ErrNotCompound)
	}
	if _, ok := d.typ.Member(name); !ok {
		return nil, fmt.Errorf("%s: field %q: %w", d.path, name, ErrNotFound)
	}
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	v, err := dtype.Field(d.typ, raw, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	return v, nil
}

// Value returns every element decoded to its natural Go type, as
// described for Attribute.Value.
func (d *Dataset) Value() (any, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	v, err := dtype.Value(d.typ, raw, d.file.global)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	return v, nil
}
