package dtype

import (
	"bytes"
	"fmt"
	"math"

	"github.com/robert-malhotra/go-ims/internal/binary"
	"github.com/robert-malhotra/go-ims/internal/heap"
	"github.com/robert-malhotra/go-ims/internal/message"
)

// Numbers converts numeric elements to T. Values that do not fit T wrap or
// truncate as Go conversions do.
func Numbers[T Number](t *message.Datatype, raw []byte) ([]T, error) {
	if !IsNumeric(t) {
		return nil, fmt.Errorf("%d byte %v data is not numeric", t.Size, t.Class)
	}
	n, err := elements(t, raw)
	if err != nil {
		return nil, err
	}
	out := make([]T, n)
	size := int(t.Size)
	bo := order(t)
	switch {
	case t.Class == message.ClassFloat && size == 4:
		for i := range out {
			out[i] = T(math.Float32frombits(bo.Uint32(raw[i*4:])))
		}
	case t.Class == message.ClassFloat:
		for i := range out {
			out[i] = T(math.Float64frombits(bo.Uint64(raw[i*8:])))
		}
	case t.Signed:
		for i := range out {
			out[i] = T(signed(raw[i*size:(i+1)*size], t.BigEndian))
		}
	default:
		for i := range out {
			out[i] = T(unsigned(raw[i*size:(i+1)*size], t.BigEndian))
		}
	}
	return out, nil
}

func unsigned(b []byte, bigEndian bool) uint64 {
	var v uint64
	for i := range b {
		j := len(b) - 1 - i
		if bigEndian {
			j = i
		}
		v = v<<8 | uint64(b[j])
	}
	return v
}

func signed(b []byte, bigEndian bool) int64 {
	shift := 64 - 8*len(b)
	return int64(unsigned(b, bigEndian)<<shift) >> shift
}

// Strings decodes string elements. Fixed-size strings are cut at their
// padding; variable-length ones are fetched through g.
func Strings(t *message.Datatype, raw []byte, g *heap.Global) ([]string, error) {
	switch {
	case t.Class == message.ClassString:
		n, err := elements(t, raw)
		if err != nil {
			return nil, err
		}
		out := make([]string, n)
		size := int(t.Size)
		for i := range out {
			out[i] = string(trim(raw[i*size:(i+1)*size], t.Padding))
		}
		return out, nil
	case t.Class == message.ClassVarLen && t.VarString:
		parts, err := varLen(t, raw, g)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(parts))
		for i, p := range parts {
			out[i] = string(trim(p, t.Padding))
		}
		return out, nil
	}
	return nil, fmt.Errorf("%v data is not a string", t.Class)
}

// trim cuts a fixed-size string at its padding.
func trim(b []byte, padding uint8) []byte {
	switch padding {
	case message.PadNullTerm:
		if i := bytes.IndexByte(b, 0); i >= 0 {
			return b[:i]
		}
		return b
	case message.PadSpacePad:
		return bytes.TrimRight(b, " ")
	}
	return bytes.TrimRight(b, "\x00")
}

// varLen resolves variable-length elements to their heap data.
func varLen(t *message.Datatype, raw []byte, g *heap.Global) ([][]byte, error) {
	n, err := elements(t, raw)
	if err != nil {
		return nil, err
	}
	offSize := int(t.Size) - 8
	if offSize < 2 || offSize > 8 {
		return nil, fmt.Errorf("%d byte variable-length elements", t.Size)
	}
	if g == nil {
		return nil, fmt.Errorf("variable-length data needs a global heap")
	}
	d := binary.NewDecoder(raw, offSize, offSize)
	out := make([][]byte, n)
	for i := range out {
		_, ref := heap.DecodeVarLen(d)
		if out[i], err = g.Resolve(ref); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, d.Err()
}

// Bytes returns each element's bytes: the stored bytes of fixed-size
// elements, or the heap data of variable-length ones. Trailing NUL padding
// is dropped from fixed-size strings; spaces are kept.
func Bytes(t *message.Datatype, raw []byte, g *heap.Global) ([][]byte, error) {
	if t.Class == message.ClassVarLen {
		return varLen(t, raw, g)
	}
	n, err := elements(t, raw)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, n)
	size := int(t.Size)
	for i := range out {
		out[i] = raw[i*size : (i+1)*size : (i+1)*size]
		if t.Class == message.ClassString {
			out[i] = bytes.TrimRight(out[i], "\x00")
		}
	}
	return out, nil
}

// Field extracts the numeric member name of every compound element as
// float64.
func Field(t *message.Datatype, raw []byte, name string) ([]float64, error) {
	if t.Class != message.ClassCompound {
		return nil, fmt.Errorf("%v data has no fields", t.Class)
	}
	m, ok := t.Member(name)
	if !ok {
		return nil, fmt.Errorf("no field %q", name)
	}
	if !IsNumeric(m.Type) {
		return nil, fmt.Errorf("field %q holds %v data", name, m.Type.Class)
	}
	n, err := elements(t, raw)
	if err != nil {
		return nil, err
	}
	size, w := int(t.Size), int(m.Type.Size)
	packed := make([]byte, 0, n*w)
	for i := range n {
		at := i*size + int(m.Offset)
		packed = append(packed, raw[at:at+w]...)
	}
	return Numbers[float64](m.Type, packed)
}
