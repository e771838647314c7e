// Package h5test builds HDF5 structures byte by byte for tests. Files use
// 8-byte addresses and lengths throughout.
package h5test

import (
	"encoding/binary"
	"math"
)

var le = binary.LittleEndian

// Buf accumulates little-endian fields.
type Buf struct {
	b []byte
}

// U8 appends single bytes.
func (b *Buf) U8(v ...uint8) *Buf { b.b = append(b.b, v...); return b }

// U16 appends a 2-byte value.
func (b *Buf) U16(v uint16) *Buf { b.b = le.AppendUint16(b.b, v); return b }

// U32 appends a 4-byte value.
func (b *Buf) U32(v uint32) *Buf { b.b = le.AppendUint32(b.b, v); return b }

// U64 appends an 8-byte value, the width of every address and length.
func (b *Buf) U64(v uint64) *Buf { b.b = le.AppendUint64(b.b, v); return b }

// Raw appends p unchanged.
func (b *Buf) Raw(p []byte) *Buf { b.b = append(b.b, p...); return b }

// Str appends the bytes of s without a terminator.
func (b *Buf) Str(s string) *Buf { b.b = append(b.b, s...); return b }

// CStr appends s and a null terminator.
func (b *Buf) CStr(s string) *Buf { b.b = append(append(b.b, s...), 0); return b }

// Pad appends zeros up to a multiple of n.
func (b *Buf) Pad(n int) *Buf {
	for len(b.b)%n != 0 {
		b.b = append(b.b, 0)
	}
	return b
}

// Len returns the number of bytes written.
func (b *Buf) Len() int { return len(b.b) }

// Bytes returns the encoded bytes.
func (b *Buf) Bytes() []byte { return b.b }

// Uint16s encodes v little-endian.
func Uint16s(v ...uint16) []byte {
	var b Buf
	for _, x := range v {
		b.U16(x)
	}
	return b.Bytes()
}

// Float64s encodes v little-endian.
func Float64s(v ...float64) []byte {
	var b Buf
	for _, x := range v {
		b.U64(math.Float64bits(x))
	}
	return b.Bytes()
}

// Float32s encodes v little-endian.
func Float32s(v ...float32) []byte {
	var b Buf
	for _, x := range v {
		b.U32(math.Float32bits(x))
	}
	return b.Bytes()
}

// Chars encodes s the way Imaris stores text attributes: one single-byte
// string element per character.
func Chars(s string) (typ, space, data []byte) {
	return String(1, 1), Simple(uint64(len(s))), []byte(s)
}
