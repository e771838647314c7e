// Package tiffstack writes single-channel image stacks as multi-page,
// uncompressed, little-endian baseline TIFF files, one page per z plane.
package tiffstack

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Sample is the set of supported pixel types.
type Sample interface {
	uint8 | uint16 | uint32 | float32
}

// ErrEmpty is returned when asked to write a stack with no pixels.
var ErrEmpty = errors.New("tiffstack: empty stack")

// TIFF tags written for every page.
const (
	tagImageWidth       = 256
	tagImageLength      = 257
	tagBitsPerSample    = 258
	tagCompression      = 259
	tagPhotometric      = 262
	tagImageDescription = 270
	tagStripOffsets     = 273
	tagSamplesPerPixel  = 277
	tagRowsPerStrip     = 278
	tagStripByteCounts  = 279
	tagPlanarConfig     = 284
	tagSampleFormat     = 339
)

const (
	typeASCII = 2
	typeShort = 3
	typeLong  = 4
)

const (
	sampleFormatUint  = 1
	sampleFormatFloat = 3
)

type entry struct {
	tag, typ uint16
	count    uint32
	value    uint32
}

func format[T Sample]() (bits int, sampleFormat uint16) {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 8, sampleFormatUint
	case uint16:
		return 16, sampleFormatUint
	case uint32:
		return 32, sampleFormatUint
	default:
		return 32, sampleFormatFloat
	}
}

// Encode writes data, a (depth, height, width) row-major stack, to w.
// The first page carries a JSON image description with the stack shape.
func Encode[T Sample](w io.Writer, data []T, depth, height, width int) error {
	if depth <= 0 || height <= 0 || width <= 0 {
		return fmt.Errorf("%w: shape (%d, %d, %d)", ErrEmpty, depth, height, width)
	}
	if len(data) != depth*height*width {
		return fmt.Errorf("tiffstack: shape (%d, %d, %d) needs %d samples, have %d",
			depth, height, width, depth*height*width, len(data))
	}

	bits, sampleFormat := format[T]()
	planeBytes := height * width * bits / 8
	desc := fmt.Sprintf("{\"shape\": [%d, %d, %d]}\x00", depth, height, width)

	bw := bufio.NewWriter(w)
	le := binary.LittleEndian

	// Layout: header, description, then for every page its pixels followed
	// by its IFD. Every IFD starts on a word boundary.
	offset := uint32(8)
	descOffset := offset
	offset += uint32(len(desc))
	if offset%2 == 1 {
		offset++
	}

	header := []byte{'I', 'I', 42, 0, 0, 0, 0, 0}
	firstIFD := offset + alignedSize(planeBytes)
	le.PutUint32(header[4:], firstIFD)
	if _, err := bw.Write(header); err != nil {
		return err
	}
	if _, err := io.WriteString(bw, desc); err != nil {
		return err
	}
	if len(desc)%2 == 1 {
		if err := bw.WriteByte(0); err != nil {
			return err
		}
	}

	buf := make([]byte, planeBytes)
	plane := height * width
	for z := 0; z < depth; z++ {
		dataOffset := offset
		putPlane(buf, data[z*plane:(z+1)*plane])
		if _, err := bw.Write(buf); err != nil {
			return err
		}
		offset += uint32(planeBytes)
		if offset%2 == 1 {
			if err := bw.WriteByte(0); err != nil {
				return err
			}
			offset++
		}

		entries := []entry{
			{tagImageWidth, typeLong, 1, uint32(width)},
			{tagImageLength, typeLong, 1, uint32(height)},
			{tagBitsPerSample, typeShort, 1, uint32(bits)},
			{tagCompression, typeShort, 1, 1},
			{tagPhotometric, typeShort, 1, 1},
		}
		if z == 0 {
			entries = append(entries, entry{tagImageDescription, typeASCII, uint32(len(desc)), descOffset})
		}
		entries = append(entries,
			entry{tagStripOffsets, typeLong, 1, dataOffset},
			entry{tagSamplesPerPixel, typeShort, 1, 1},
			entry{tagRowsPerStrip, typeLong, 1, uint32(height)},
			entry{tagStripByteCounts, typeLong, 1, uint32(planeBytes)},
			entry{tagPlanarConfig, typeShort, 1, 1},
			entry{tagSampleFormat, typeShort, 1, uint32(sampleFormat)},
		)

		ifdSize := uint32(2 + 12*len(entries) + 4)
		next := uint32(0)
		if z < depth-1 {
			// the next IFD follows the next page's pixels
			next = offset + ifdSize + alignedSize(planeBytes)
		}
		if err := writeIFD(bw, entries, next); err != nil {
			return err
		}
		offset += ifdSize
	}
	return bw.Flush()
}

func alignedSize(n int) uint32 {
	if n%2 == 1 {
		return uint32(n + 1)
	}
	return uint32(n)
}

func writeIFD(w io.Writer, entries []entry, next uint32) error {
	le := binary.LittleEndian
	b := make([]byte, 2+12*len(entries)+4)
	le.PutUint16(b, uint16(len(entries)))
	for i, e := range entries {
		p := b[2+12*i:]
		le.PutUint16(p[0:], e.tag)
		le.PutUint16(p[2:], e.typ)
		le.PutUint32(p[4:], e.count)
		if e.typ == typeShort && e.count == 1 {
			le.PutUint16(p[8:], uint16(e.value))
		} else {
			le.PutUint32(p[8:], e.value)
		}
	}
	le.PutUint32(b[len(b)-4:], next)
	_, err := w.Write(b)
	return err
}

func putPlane[T Sample](buf []byte, plane []T) {
	le := binary.LittleEndian
	switch p := any(plane).(type) {
	case []uint8:
		copy(buf, p)
	case []uint16:
		for i, v := range p {
			le.PutUint16(buf[2*i:], v)
		}
	case []uint32:
		for i, v := range p {
			le.PutUint32(buf[4*i:], v)
		}
	case []float32:
		for i, v := range p {
			le.PutUint32(buf[4*i:], math.Float32bits(v))
		}
	}
}
