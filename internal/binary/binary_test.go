package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDecoderFields(t *testing.T) {
	b := []byte{
		0x01,
		0x02, 0x01,
		0x04, 0x03, 0x02, 0x01,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0x03, 0x02, 0x01,
		'h', 'i', 0,
		0xaa, 0xbb,
	}
	d := NewDecoder(b, 8, 8)
	if v := d.U8(); v != 1 {
		t.Errorf("U8 = %d, want 1", v)
	}
	if v := d.U16(); v != 0x0102 {
		t.Errorf("U16 = 0x%04x, want 0x0102", v)
	}
	if v := d.U32(); v != 0x01020304 {
		t.Errorf("U32 = 0x%08x, want 0x01020304", v)
	}
	if v := d.U64(); v != 0x0102030405060708 {
		t.Errorf("U64 = 0x%016x, want 0x0102030405060708", v)
	}
	if v := d.Uint(3); v != 0x010203 {
		t.Errorf("Uint(3) = 0x%x, want 0x010203", v)
	}
	if s := d.CString(); s != "hi" {
		t.Errorf("CString = %q, want \"hi\"", s)
	}
	if n := d.Len(); n != 2 {
		t.Errorf("Len = %d, want 2", n)
	}
	if rest := d.Rest(); !bytes.Equal(rest, []byte{0xaa, 0xbb}) {
		t.Errorf("Rest = %x, want aabb", rest)
	}
	if err := d.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecoderSticky(t *testing.T) {
	d := NewDecoder([]byte{1, 2, 3}, 8, 8)
	if v := d.U8(); v != 1 {
		t.Errorf("U8 = %d, want 1", v)
	}
	if v := d.U32(); v != 0 {
		t.Errorf("truncated U32 = %d, want 0", v)
	}
	if !errors.Is(d.Err(), ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", d.Err())
	}

	// later reads keep failing quietly and keep the first error
	first := d.Err()
	if v := d.U8(); v != 0 {
		t.Errorf("U8 after failure = %d, want 0", v)
	}
	d.Fail("second")
	if d.Err() != first {
		t.Errorf("error replaced: got %v, want %v", d.Err(), first)
	}
}

func TestDecoderAddr(t *testing.T) {
	d := NewDecoder([]byte{0xff, 0xff, 0xff, 0xff, 0x10, 0, 0, 0}, 4, 4)
	if a := d.Addr(); a != Undefined {
		t.Errorf("4-byte all-ones address = 0x%x, want Undefined", a)
	}
	if l := d.Length(); l != 0x10 {
		t.Errorf("Length = 0x%x, want 0x10", l)
	}
	if err := d.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d = NewDecoder(bytes.Repeat([]byte{0xff}, 8), 8, 8)
	if a := d.Addr(); a != Undefined {
		t.Errorf("8-byte all-ones address = 0x%x, want Undefined", a)
	}
}

func TestDecoderAlignAndExpect(t *testing.T) {
	d := NewDecoder([]byte("TREE\x01\x00\x00\x00\x09"), 8, 8)
	d.Expect("TREE")
	d.U8()
	d.Align(8)
	if p := d.Pos(); p != 8 {
		t.Errorf("Pos after Align(8) = %d, want 8", p)
	}
	if v := d.U8(); v != 9 {
		t.Errorf("U8 = %d, want 9", v)
	}
	if err := d.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d = NewDecoder([]byte("HEAP"), 8, 8)
	d.Expect("TREE")
	if err := d.Err(); err == nil || !strings.Contains(err.Error(), "bad signature") {
		t.Errorf("expected bad signature error, got %v", err)
	}
}

func TestDecoderSub(t *testing.T) {
	d := NewDecoder([]byte{1, 2, 3, 4, 5}, 8, 8)
	s := d.Sub(3)
	if v := d.U8(); v != 4 {
		t.Errorf("U8 after Sub = %d, want 4", v)
	}
	if rest := s.Rest(); !bytes.Equal(rest, []byte{1, 2, 3}) {
		t.Errorf("sub-decoder holds %v, want [1 2 3]", rest)
	}
	s.U8()
	if s.Err() == nil {
		t.Error("expected reading past the sub-decoder to fail")
	}
	if err := d.Err(); err != nil {
		t.Fatalf("parent decoder failed: %v", err)
	}
}

func TestDecoderCStringUnterminated(t *testing.T) {
	d := NewDecoder([]byte("abc"), 8, 8)
	if s := d.CString(); s != "" {
		t.Errorf("CString = %q, want empty", s)
	}
	if !errors.Is(d.Err(), ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", d.Err())
	}
}

func TestDecoderBadWidth(t *testing.T) {
	d := NewDecoder(make([]byte, 16), 8, 8)
	d.Uint(9)
	if err := d.Err(); err == nil || !strings.Contains(err.Error(), "width 9") {
		t.Errorf("expected width error, got %v", err)
	}
}

func TestReader(t *testing.T) {
	data := []byte("xxxxHDF5 payload")
	r := NewReader(bytes.NewReader(data), 4, 8, 8)

	b, err := r.ReadAt(0, 4)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if string(b) != "HDF5" {
		t.Errorf("ReadAt(0, 4) = %q, want \"HDF5\"", b)
	}

	if _, err = r.ReadAt(8, 100); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	if _, err = r.ReadAt(Undefined, 1); err == nil {
		t.Error("expected error reading the undefined address")
	}

	b, err = r.ReadUpTo(5, 100)
	if err != nil {
		t.Fatalf("ReadUpTo failed: %v", err)
	}
	if string(b) != "payload" {
		t.Errorf("ReadUpTo = %q, want \"payload\"", b)
	}

	d, err := r.Block(5, 3)
	if err != nil {
		t.Fatalf("Block failed: %v", err)
	}
	if rest := string(d.Rest()); rest != "pay" {
		t.Errorf("Block holds %q, want \"pay\"", rest)
	}
	if n := d.OffsetSize(); n != 8 {
		t.Errorf("OffsetSize = %d, want 8", n)
	}
}

func TestLookup3(t *testing.T) {
	if h := Lookup3(nil); h != 0xdeadbeef {
		t.Errorf("Lookup3(nil) = 0x%08x, want 0xdeadbeef", h)
	}
	if h := Lookup3([]byte("Four score and seven years ago")); h != 0x17770551 {
		t.Errorf("Lookup3 = 0x%08x, want 0x17770551", h)
	}

	// every length through a few full rounds exercises the tail path
	seen := map[uint32]bool{}
	buf := []byte("abcdefghijklmnopqrstuvwxyz0123456789")
	for n := 1; n <= len(buf); n++ {
		seen[Lookup3(buf[:n])] = true
	}
	if len(seen) != len(buf) {
		t.Errorf("%d distinct hashes for %d prefixes", len(seen), len(buf))
	}
}

func TestFletcher32(t *testing.T) {
	tests := []struct {
		in   []byte
		want uint32
	}{
		{nil, 0},
		{[]byte{1, 2}, 0x01020102},
		// an odd trailing byte counts as the high half of a word
		{[]byte{1, 2, 3}, 0x05040402},
	}
	for _, tt := range tests {
		if got := Fletcher32(tt.in); got != tt.want {
			t.Errorf("Fletcher32(%v) = 0x%08x, want 0x%08x", tt.in, got, tt.want)
		}
	}

	// long inputs fold without overflowing
	long := bytes.Repeat([]byte{0xff, 0xfe}, 5000)
	if Fletcher32(long) == 0 {
		t.Error("Fletcher32 of a long input is zero")
	}
}

func TestVerifyLookup3(t *testing.T) {
	block := []byte("OHDR some header bytes")
	block = binary.LittleEndian.AppendUint32(block, Lookup3(block))
	if err := VerifyLookup3(block); err != nil {
		t.Fatalf("VerifyLookup3 failed: %v", err)
	}

	block[5] ^= 1
	if err := VerifyLookup3(block); !errors.Is(err, ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
	if err := VerifyLookup3([]byte{1}); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}
