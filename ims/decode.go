package ims

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind selects how a decoded byte sequence is interpreted.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// DecodeBytes UTF-8 decodes each element and concatenates them in order.
// Imaris writes attribute values as arrays of single encoded bytes, so
// X="512" arrives as {"5", "1", "2"}.
func DecodeBytes(parts [][]byte) (string, error) {
	var sb strings.Builder
	for i, p := range parts {
		if !utf8.Valid(p) {
			return "", fmt.Errorf("element %d (%q) is not valid UTF-8: %w", i, p, ErrFormat)
		}
		sb.Write(p)
	}
	return sb.String(), nil
}

// DecodeInt decodes parts and parses the result as a base-10 integer.
// Surrounding whitespace is ignored.
func DecodeInt(parts [][]byte) (int, error) {
	s, err := DecodeBytes(parts)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parsing %q as int: %w", s, ErrFormat)
	}
	return n, nil
}

// DecodeFloat decodes parts and parses the result as a float64.
// Surrounding whitespace is ignored.
func DecodeFloat(parts [][]byte) (float64, error) {
	s, err := DecodeBytes(parts)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %q as float: %w", s, ErrFormat)
	}
	return f, nil
}

// Decode decodes parts into a string, int or float64 according to kind.
func Decode(parts [][]byte, kind Kind) (interface{}, error) {
	switch kind {
	case KindString:
		return DecodeBytes(parts)
	case KindInt:
		return DecodeInt(parts)
	case KindFloat:
		return DecodeFloat(parts)
	}
	return nil, fmt.Errorf("unknown decode kind %v", kind)
}

// parseFloats splits s on whitespace and parses every field.
func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", s, ErrFormat)
		}
		out[i] = v
	}
	return out, nil
}
