package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
)

// ErrChecksum is reported when a stored checksum does not match the data.
var ErrChecksum = errors.New("checksum mismatch")

// Lookup3 computes Bob Jenkins' lookup3 hashlittle with a zero seed, the
// checksum of version 2 metadata structures.
func Lookup3(data []byte) uint32 {
	a := 0xdeadbeef + uint32(len(data))
	b, c := a, a

	mix := func() {
		a -= c
		a ^= bits.RotateLeft32(c, 4)
		c += b
		b -= a
		b ^= bits.RotateLeft32(a, 6)
		a += c
		c -= b
		c ^= bits.RotateLeft32(b, 8)
		b += a
		a -= c
		a ^= bits.RotateLeft32(c, 16)
		c += b
		b -= a
		b ^= bits.RotateLeft32(a, 19)
		a += c
		c -= b
		c ^= bits.RotateLeft32(b, 4)
		b += a
	}

	for len(data) > 12 {
		a += binary.LittleEndian.Uint32(data)
		b += binary.LittleEndian.Uint32(data[4:])
		c += binary.LittleEndian.Uint32(data[8:])
		mix()
		data = data[12:]
	}
	if len(data) == 0 {
		return c
	}

	var tail [12]byte
	copy(tail[:], data)
	a += binary.LittleEndian.Uint32(tail[:])
	b += binary.LittleEndian.Uint32(tail[4:])
	c += binary.LittleEndian.Uint32(tail[8:])

	c ^= b
	c -= bits.RotateLeft32(b, 14)
	a ^= c
	a -= bits.RotateLeft32(c, 11)
	b ^= a
	b -= bits.RotateLeft32(a, 25)
	c ^= b
	c -= bits.RotateLeft32(b, 16)
	a ^= c
	a -= bits.RotateLeft32(c, 4)
	b ^= a
	b -= bits.RotateLeft32(a, 14)
	c ^= b
	c -= bits.RotateLeft32(b, 24)
	return c
}

// Fletcher32 computes the checksum of the Fletcher32 filter: sums over
// big-endian 16-bit words, an odd trailing byte counting as the high byte.
func Fletcher32(data []byte) uint32 {
	var s1, s2 uint32
	for len(data) > 0 {
		// 360 words keep both sums below 2^32 before folding
		n := min(len(data)/2, 360)
		if n == 0 {
			s1 += uint32(data[0]) << 8
			s2 += s1
			data = data[1:]
		}
		for i := 0; i < n; i++ {
			s1 += uint32(data[2*i])<<8 | uint32(data[2*i+1])
			s2 += s1
		}
		data = data[2*n:]
		s1 = (s1 & 0xffff) + (s1 >> 16)
		s2 = (s2 & 0xffff) + (s2 >> 16)
	}
	s1 = (s1 & 0xffff) + (s1 >> 16)
	s2 = (s2 & 0xffff) + (s2 >> 16)
	return s2<<16 | s1
}

// VerifyLookup3 checks a structure whose last four bytes hold the lookup3
// checksum of everything before them.
func VerifyLookup3(block []byte) error {
	if len(block) < 4 {
		return fmt.Errorf("%w: %d byte block", ErrTruncated, len(block))
	}
	n := len(block) - 4
	stored := binary.LittleEndian.Uint32(block[n:])
	if got := Lookup3(block[:n]); got != stored {
		return fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrChecksum, stored, got)
	}
	return nil
}
