package filter

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"

	h5binary "github.com/robert-malhotra/go-ims/internal/binary"
	"github.com/robert-malhotra/go-ims/internal/message"
)

func deflate(t *testing.T, p []byte) []byte {
	t.Helper()
	var b bytes.Buffer
	w := zlib.NewWriter(&b)
	if _, err := w.Write(p); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

func shuffle(p []byte, size int) []byte {
	n := len(p) / size
	out := make([]byte, len(p))
	for i := range n {
		for j := range size {
			out[j*n+i] = p[i*size+j]
		}
	}
	copy(out[n*size:], p[n*size:])
	return out
}

func withFletcher(p []byte) []byte {
	return binary.LittleEndian.AppendUint32(append([]byte(nil), p...), h5binary.Fletcher32(p))
}

func ramp(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i / 7)
	}
	return p
}

func TestInflate(t *testing.T) {
	want := ramp(5000)
	got, err := Inflate(deflate(t, want), []uint32{6})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	if _, err = Inflate([]byte{1, 2, 3}, nil); err == nil {
		t.Error("expected error inflating garbage")
	}
}

func TestUnshuffle(t *testing.T) {
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	got, err := Unshuffle(shuffle(want, 4), []uint32{4})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	got, err = Unshuffle([]byte{1, 2}, []uint32{1})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{1, 2}, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	if _, err = Unshuffle([]byte{1}, nil); err == nil {
		t.Error("expected error without an element size")
	}
}

func TestVerifyFletcher32(t *testing.T) {
	data := []byte("0123456789abcdef!")
	got, err := VerifyFletcher32(withFletcher(data), nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(data, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	sum := h5binary.Fletcher32(data)
	old := binary.LittleEndian.AppendUint32(append([]byte(nil), data...), sum<<16|sum>>16)
	_, err = VerifyFletcher32(old, nil)
	if err != nil {
		t.Error(err)
	}

	bad := withFletcher(data)
	bad[0] ^= 0xff
	_, err = VerifyFletcher32(bad, nil)
	if !errors.Is(err, ErrChecksum) {
		t.Errorf("expected %v, got %v", ErrChecksum, err)
	}

	if _, err = VerifyFletcher32([]byte{1}, nil); err == nil {
		t.Error("expected error for a buffer shorter than the checksum")
	}
}

// lz4Encode writes p in the LZ4 filter format. Blocks that do not compress
// are stored raw.
func lz4Encode(t *testing.T, p []byte, block int) []byte {
	t.Helper()
	var out []byte
	out = binary.BigEndian.AppendUint64(out, uint64(len(p)))
	out = binary.BigEndian.AppendUint32(out, uint32(block))
	for len(p) > 0 {
		src := p[:min(block, len(p))]
		p = p[len(src):]
		dst := make([]byte, lz4.CompressBlockBound(len(src)))
		n, err := lz4.CompressBlock(src, dst, nil)
		if err != nil {
			t.Fatal(err)
		}
		if n == 0 || n >= len(src) {
			dst, n = src, len(src)
		}
		out = binary.BigEndian.AppendUint32(out, uint32(n))
		out = append(out, dst[:n]...)
	}
	return out
}

func TestDecodeLZ4(t *testing.T) {
	want := append(ramp(3000), 0x5a, 0x13, 0x77)
	got, err := DecodeLZ4(lz4Encode(t, want, 1024), nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	// a short final block that does not compress is stored raw
	raw := []byte{9, 8, 7}
	got, err = DecodeLZ4(lz4Encode(t, raw, 1024), nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(raw, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	enc := lz4Encode(t, want, 1024)
	_, err = DecodeLZ4(enc[:len(enc)-10], nil)
	if err == nil || !strings.Contains(err.Error(), "block at 2048") {
		t.Errorf("expected error containing %q, got %v", "block at 2048", err)
	}

	_, err = DecodeLZ4([]byte{1, 2}, nil)
	if err == nil || !strings.Contains(err.Error(), "header") {
		t.Errorf("expected error containing %q, got %v", "header", err)
	}
}

func TestPipeline(t *testing.T) {
	data := ramp(4000)
	stored := deflate(t, shuffle(data, 2))
	p, err := New(&message.FilterPipeline{Filters: []message.Filter{
		{ID: message.FilterShuffle, Params: []uint32{2}},
		{ID: message.FilterDeflate, Params: []uint32{4}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Len(); got != 2 {
		t.Errorf("p.Len() = %v, want %v", got, 2)
	}

	got, err := p.Decode(stored, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(data, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	// deflate skipped for this chunk
	got, err = p.Decode(shuffle(data, 2), 0b10)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(data, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	_, err = p.Decode([]byte("not zlib"), 0)
	if err == nil || !strings.Contains(err.Error(), "deflate") {
		t.Errorf("expected error containing %q, got %v", "deflate", err)
	}
}

func TestPipelineOptional(t *testing.T) {
	// an unknown optional filter keeps its mask bit
	p, err := New(&message.FilterPipeline{Filters: []message.Filter{
		{ID: 307, Flags: 0x01},
		{ID: message.FilterFletcher32},
	}})
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("abcd")
	got, err := p.Decode(withFletcher(data), 0b01)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(data, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	_, err = New(&message.FilterPipeline{Filters: []message.Filter{{ID: message.FilterSZIP}}})
	if err == nil || !strings.Contains(err.Error(), "szip (id 4) is not supported") {
		t.Errorf("expected error containing %q, got %v", "szip (id 4) is not supported", err)
	}

	empty, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err = empty.Decode(data, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(data, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestName(t *testing.T) {
	if got := Name(message.FilterLZ4); got != "lz4" {
		t.Errorf("Name(message.FilterLZ4) = %q, want %q", got, "lz4")
	}
	if got := Name(307); got != "filter 307" {
		t.Errorf("Name(307) = %q, want %q", got, "filter 307")
	}
}
