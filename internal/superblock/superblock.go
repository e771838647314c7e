package superblock

import (
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-ims/internal/binary"
)

// Signature starts every HDF5 superblock.
const Signature = "\x89HDF\r\n\x1a\n"

var (
	ErrNotHDF5            = errors.New("no HDF5 signature")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
)

// maxSearch bounds the user-block sizes searched for a signature.
const maxSearch = 1 << 20

// Superblock holds the fields a reader needs from the file superblock.
type Superblock struct {
	Version    uint8
	OffsetSize int
	LengthSize int
	// BaseAddress is the absolute position that file addresses count from.
	BaseAddress uint64
	EOFAddress  uint64
	// RootAddress is the object header address of the root group.
	RootAddress uint64

	// Versions 0 and 1 cache the root group's symbol table in the root
	// entry's scratch pad. Both are zero when nothing is cached.
	RootBTree uint64
	RootHeap  uint64
}

// Read finds and decodes the superblock of r.
func Read(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, len(Signature))
	for at := int64(0); at <= maxSearch; at = next(at) {
		n, err := r.ReadAt(sig, at)
		if n < len(sig) {
			if err == nil || errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if string(sig) == Signature {
			return decode(r, at)
		}
	}
	return nil, ErrNotHDF5
}

func next(at int64) int64 {
	if at == 0 {
		return 512
	}
	return at * 2
}

// size bounds the encoded superblock: v0 and v1 with 8-byte fields are the
// largest at 112 bytes including the root symbol table entry.
const size = 128

func decode(r io.ReaderAt, at int64) (*Superblock, error) {
	raw, err := binary.NewReader(r, 0, 8, 8).ReadUpTo(uint64(at), size)
	if err != nil {
		return nil, fmt.Errorf("reading superblock at %d: %w", at, err)
	}
	if len(raw) < 12 {
		return nil, fmt.Errorf("superblock at %d: %w", at, binary.ErrTruncated)
	}

	var sb *Superblock
	switch v := raw[8]; v {
	case 0, 1:
		sb, err = decodeV01(raw, v)
	case 2, 3:
		sb, err = decodeV23(raw, v)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	if err != nil {
		return nil, fmt.Errorf("superblock v%d at %d: %w", raw[8], at, err)
	}

	// addresses count from the superblock, whatever base a file behind a
	// user block happens to record
	sb.BaseAddress = uint64(at)
	return sb, nil
}

func checkSizes(off, length int) error {
	for _, n := range []int{off, length} {
		switch n {
		case 2, 4, 8:
		default:
			return fmt.Errorf("invalid field width %d", n)
		}
	}
	return nil
}

func decodeV01(raw []byte, version uint8) (*Superblock, error) {
	// widths sit at fixed positions ahead of the first variable-width field
	off, length := int(raw[13]), int(raw[14])
	if err := checkSizes(off, length); err != nil {
		return nil, err
	}

	d := binary.NewDecoder(raw, off, length)
	d.Skip(len(Signature) + 1) // signature, version
	d.Skip(3)                  // free-space, root symbol table and reserved
	if v := d.U8(); v != 0 {
		d.Fail("shared header message version %d", v)
	}
	d.Skip(3)     // widths, reserved
	d.Skip(2 + 2) // group leaf and internal K
	d.Skip(4)     // consistency flags
	if version == 1 {
		d.Skip(2 + 2) // indexed storage K, reserved
	}

	sb := &Superblock{Version: version, OffsetSize: off, LengthSize: length}
	sb.BaseAddress = d.Addr()
	d.Addr() // free-space info
	sb.EOFAddress = d.Addr()
	d.Addr() // driver info

	// root group symbol table entry
	d.Addr() // link name offset
	sb.RootAddress = d.Addr()
	cache := d.U32()
	d.Skip(4)
	if cache == 1 {
		sb.RootBTree = d.Addr()
		sb.RootHeap = d.Addr()
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return sb, nil
}

func decodeV23(raw []byte, version uint8) (*Superblock, error) {
	off, length := int(raw[9]), int(raw[10])
	if err := checkSizes(off, length); err != nil {
		return nil, err
	}

	d := binary.NewDecoder(raw, off, length)
	d.Skip(len(Signature) + 4) // signature, version, widths, flags
	sb := &Superblock{Version: version, OffsetSize: off, LengthSize: length}
	sb.BaseAddress = d.Addr()
	d.Addr() // superblock extension
	sb.EOFAddress = d.Addr()
	sb.RootAddress = d.Addr()
	end := d.Pos()
	d.U32()
	if err := d.Err(); err != nil {
		return nil, err
	}
	if err := binary.VerifyLookup3(raw[:end+4]); err != nil {
		return nil, err
	}
	return sb, nil
}
