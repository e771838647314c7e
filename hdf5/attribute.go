package hdf5

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-ims/internal/dtype"
	"github.com/robert-malhotra/go-ims/internal/message"
)

// Attribute is a named value attached to a group or dataset. Its data is
// read with the object header, so reading it does not touch the file unless
// it holds variable-length elements.
type Attribute struct {
	file *File
	msg  *message.Attribute
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.msg.Name }

// Shape returns the extent of each dimension. Scalars have none.
func (a *Attribute) Shape() []uint64 { return a.msg.Space.Dims }

func (a *Attribute) NumElements() uint64 { return a.msg.Space.Elements() }
func (a *Attribute) IsScalar() bool      { return a.msg.Space.Scalar() }

// DtypeClass names the datatype class.
func (a *Attribute) DtypeClass() string { return a.msg.Type.Class.String() }

// GoType returns the Go type one element decodes to.
func (a *Attribute) GoType() (reflect.Type, error) { return dtype.GoType(a.msg.Type) }

// ReadBytes returns the bytes of each element. Imaris writes its metadata
// as arrays of one-byte strings, one character per element.
func (a *Attribute) ReadBytes() ([][]byte, error) {
	b, err := dtype.Bytes(a.msg.Type, a.msg.Data, a.file.global)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
	}
	return b, nil
}

// ReadString returns the elements of a string attribute.
func (a *Attribute) ReadString() ([]string, error) {
	if !a.msg.Type.IsString() {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, ErrNotString)
	}
	s, err := dtype.Strings(a.msg.Type, a.msg.Data, a.file.global)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
	}
	return s, nil
}

// ReadFloat64 returns the elements of a numeric attribute as float64.
func (a *Attribute) ReadFloat64() ([]float64, error) {
	v, err := dtype.Numbers[float64](a.msg.Type, a.msg.Data)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
	}
	return v, nil
}

// Value decodes the attribute to its natural Go type: a typed slice for
// numbers, []string for strings and enums, []map[string]any for compounds.
// A scalar attribute yields the element itself.
func (a *Attribute) Value() (any, error) {
	v, err := dtype.Value(a.msg.Type, a.msg.Data, a.file.global)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
	}
	if a.IsScalar() {
		return dtype.First(v), nil
	}
	return v, nil
}
