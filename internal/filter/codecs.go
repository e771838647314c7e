package filter

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"

	h5binary "github.com/robert-malhotra/go-ims/internal/binary"
)

// ErrChecksum is returned when a chunk fails its Fletcher-32 check.
var ErrChecksum = errors.New("chunk checksum mismatch")

// Inflate decompresses a zlib stream.
func Inflate(in []byte, _ []uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var out bytes.Buffer
	out.Grow(4 * len(in))
	if _, err := io.Copy(&out, zr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Unshuffle regroups bytes that were split into planes by significance.
// params[0] is the element size. Bytes past the last whole element were
// left in place.
func Unshuffle(in []byte, params []uint32) ([]byte, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("missing element size")
	}
	size := int(params[0])
	n := 0
	if size > 1 {
		n = len(in) / size
	}
	if n < 2 {
		return in, nil
	}
	out := make([]byte, len(in))
	for j := range size {
		plane := in[j*n : (j+1)*n]
		for i, v := range plane {
			out[i*size+j] = v
		}
	}
	copy(out[n*size:], in[n*size:])
	return out, nil
}

// VerifyFletcher32 checks and strips the trailing checksum. Checksums
// written by very old libraries had their 16-bit halves swapped and are
// accepted too.
func VerifyFletcher32(in []byte, _ []uint32) ([]byte, error) {
	if len(in) < 4 {
		return nil, fmt.Errorf("%d byte chunk has no checksum", len(in))
	}
	data := in[:len(in)-4]
	stored := binary.LittleEndian.Uint32(in[len(in)-4:])
	sum := h5binary.Fletcher32(data)
	swapped := sum<<16 | sum>>16
	if stored != sum && stored != swapped {
		return nil, fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrChecksum, stored, sum)
	}
	return data, nil
}

// DecodeLZ4 decodes the registered LZ4 filter format: a big-endian 8-byte
// decoded size and 4-byte block size, then each block as a 4-byte length
// and its LZ4 data. A block whose length equals its decoded size is stored
// raw.
func DecodeLZ4(in []byte, _ []uint32) ([]byte, error) {
	if len(in) < 12 {
		return nil, fmt.Errorf("%d byte header", len(in))
	}
	total := binary.BigEndian.Uint64(in)
	block := uint64(binary.BigEndian.Uint32(in[8:]))
	if block == 0 {
		block = total
	}
	// LZ4 cannot expand data more than 255 times
	if total > uint64(len(in))*255+1<<20 {
		return nil, fmt.Errorf("decoded size %d implausible for %d input bytes", total, len(in))
	}

	out := make([]byte, total)
	in = in[12:]
	for done := uint64(0); done < total; {
		n := min(block, total-done)
		if len(in) < 4 {
			return nil, fmt.Errorf("block at %d: missing length", done)
		}
		size := uint64(binary.BigEndian.Uint32(in))
		in = in[4:]
		if size > uint64(len(in)) {
			return nil, fmt.Errorf("block at %d: %d bytes, have %d", done, size, len(in))
		}
		dst, src := out[done:done+n], in[:size]
		if size == n {
			copy(dst, src)
		} else if got, err := lz4.UncompressBlock(src, dst); err != nil {
			return nil, fmt.Errorf("block at %d: %w", done, err)
		} else if uint64(got) != n {
			return nil, fmt.Errorf("block at %d: decoded %d bytes, want %d", done, got, n)
		}
		in = in[size:]
		done += n
	}
	return out, nil
}
