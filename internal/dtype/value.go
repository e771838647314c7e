package dtype

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-ims/internal/heap"
	"github.com/robert-malhotra/go-ims/internal/message"
)

// Value decodes elements into a slice of their natural Go type: numbers
// into a typed slice, strings and enums into []string, compounds into
// []map[string]any and anything else into []any or [][]byte.
func Value(t *message.Datatype, raw []byte, g *heap.Global) (any, error) {
	switch t.Class {
	case message.ClassFixed, message.ClassFloat:
		return numbers(t, raw)
	case message.ClassEnum:
		return enumNames(t, raw)
	case message.ClassString:
		return Strings(t, raw, g)
	case message.ClassVarLen:
		if t.VarString {
			return Strings(t, raw, g)
		}
		parts, err := varLen(t, raw, g)
		if err != nil {
			return nil, err
		}
		return each(parts, func(p []byte) (any, error) { return Value(t.Base, p, g) })
	case message.ClassArray:
		parts, err := Bytes(t, raw, g)
		if err != nil {
			return nil, err
		}
		return each(parts, func(p []byte) (any, error) { return Value(t.Base, p, g) })
	case message.ClassCompound:
		parts, err := Bytes(t, raw, g)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, len(parts))
		for i, p := range parts {
			rec := make(map[string]any, len(t.Members))
			for _, m := range t.Members {
				v, err := Value(m.Type, p[m.Offset:m.Offset+m.Type.Size], g)
				if err != nil {
					return nil, fmt.Errorf("member %q: %w", m.Name, err)
				}
				rec[m.Name] = First(v)
			}
			out[i] = rec
		}
		return out, nil
	case message.ClassReference:
		if t.Size != 8 {
			break
		}
		return Numbers[uint64](&message.Datatype{Class: message.ClassFixed, Size: 8}, raw)
	case message.ClassBitfield, message.ClassOpaque:
		return Bytes(t, raw, g)
	}
	return nil, fmt.Errorf("cannot decode %d byte %v data", t.Size, t.Class)
}

func numbers(t *message.Datatype, raw []byte) (any, error) {
	if t.Class == message.ClassFloat {
		if t.Size == 4 {
			return Numbers[float32](t, raw)
		}
		return Numbers[float64](t, raw)
	}
	switch {
	case t.Size == 1 && t.Signed:
		return Numbers[int8](t, raw)
	case t.Size == 1:
		return Numbers[uint8](t, raw)
	case t.Size == 2 && t.Signed:
		return Numbers[int16](t, raw)
	case t.Size == 2:
		return Numbers[uint16](t, raw)
	case t.Size == 4 && t.Signed:
		return Numbers[int32](t, raw)
	case t.Size == 4:
		return Numbers[uint32](t, raw)
	case t.Signed:
		return Numbers[int64](t, raw)
	}
	return Numbers[uint64](t, raw)
}

// enumNames maps enum elements to their names. Values with no name print
// as numbers.
func enumNames(t *message.Datatype, raw []byte) ([]string, error) {
	n, err := elements(t, raw)
	if err != nil {
		return nil, err
	}
	size := int(t.Size)
	out := make([]string, n)
	for i := range out {
		v := raw[i*size : (i+1)*size]
		out[i] = ""
		for j, ev := range t.EnumValues {
			if bytes.Equal(ev, v) {
				out[i] = t.EnumNames[j]
				break
			}
		}
		if out[i] == "" {
			out[i] = fmt.Sprint(unsigned(v, t.BigEndian))
		}
	}
	return out, nil
}

func each(parts [][]byte, fn func([]byte) (any, error)) ([]any, error) {
	out := make([]any, len(parts))
	for i, p := range parts {
		v, err := fn(p)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// First unwraps a one-element slice, as Value returns for a single
// element, to the element itself. Anything else is returned unchanged.
func First(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Len() == 1 {
		return rv.Index(0).Interface()
	}
	return v
}
