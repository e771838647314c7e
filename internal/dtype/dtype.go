package dtype

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-ims/internal/message"
)

// Number is the set of Go types numeric data converts to.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

var (
	ints  = [...]reflect.Type{1: reflect.TypeFor[int8](), 2: reflect.TypeFor[int16](), 4: reflect.TypeFor[int32](), 8: reflect.TypeFor[int64]()}
	uints = [...]reflect.Type{1: reflect.TypeFor[uint8](), 2: reflect.TypeFor[uint16](), 4: reflect.TypeFor[uint32](), 8: reflect.TypeFor[uint64]()}
)

// GoType returns the Go type one element of t naturally decodes to.
func GoType(t *message.Datatype) (reflect.Type, error) {
	switch t.Class {
	case message.ClassFixed, message.ClassEnum:
		if t.Size < uint32(len(ints)) && ints[t.Size] != nil {
			if t.Signed {
				return ints[t.Size], nil
			}
			return uints[t.Size], nil
		}
	case message.ClassFloat:
		switch t.Size {
		case 4:
			return reflect.TypeFor[float32](), nil
		case 8:
			return reflect.TypeFor[float64](), nil
		}
	case message.ClassString:
		return reflect.TypeFor[string](), nil
	case message.ClassVarLen:
		if t.VarString {
			return reflect.TypeFor[string](), nil
		}
		base, err := GoType(t.Base)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(base), nil
	case message.ClassArray:
		base, err := GoType(t.Base)
		if err != nil {
			return nil, err
		}
		for i := len(t.Dims) - 1; i >= 0; i-- {
			base = reflect.ArrayOf(int(t.Dims[i]), base)
		}
		return base, nil
	case message.ClassCompound:
		fields := make([]reflect.StructField, len(t.Members))
		for i, m := range t.Members {
			ft, err := GoType(m.Type)
			if err != nil {
				return nil, fmt.Errorf("member %q: %w", m.Name, err)
			}
			fields[i] = reflect.StructField{Name: fieldName(m.Name, i), Type: ft, Tag: reflect.StructTag(fmt.Sprintf("h5:%q", m.Name))}
		}
		return reflect.StructOf(fields), nil
	case message.ClassBitfield, message.ClassOpaque:
		return reflect.ArrayOf(int(t.Size), reflect.TypeFor[byte]()), nil
	case message.ClassReference:
		return reflect.TypeFor[uint64](), nil
	}
	return nil, fmt.Errorf("no Go type for %d byte %v data", t.Size, t.Class)
}

// fieldName makes an exported Go identifier from a member name such as
// "ID" or "Position X".
func fieldName(name string, i int) string {
	out := []rune{'F'}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 1 {
		return fmt.Sprintf("F%d", i)
	}
	if out[1] >= 'A' && out[1] <= 'Z' {
		out = out[1:]
	}
	return string(out)
}

// IsNumeric reports whether t converts with Numbers.
func IsNumeric(t *message.Datatype) bool {
	switch t.Class {
	case message.ClassFixed, message.ClassEnum:
		return t.Size >= 1 && t.Size <= 8
	case message.ClassFloat:
		return t.Size == 4 || t.Size == 8
	}
	return false
}

func order(t *message.Datatype) binary.ByteOrder {
	if t.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func elements(t *message.Datatype, raw []byte) (int, error) {
	if t.Size == 0 {
		return 0, fmt.Errorf("zero size datatype")
	}
	if len(raw)%int(t.Size) != 0 {
		return 0, fmt.Errorf("%d bytes do not hold whole %d byte elements", len(raw), t.Size)
	}
	return len(raw) / int(t.Size), nil
}
