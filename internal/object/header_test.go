package object

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robert-malhotra/go-ims/internal/binary"
	"github.com/robert-malhotra/go-ims/internal/h5test"
	"github.com/robert-malhotra/go-ims/internal/message"
)

func reader(b []byte) *binary.Reader {
	return binary.NewReader(bytes.NewReader(b), 0, 8, 8)
}

func TestReadV2(t *testing.T) {
	f := h5test.NewFile()
	addr := f.Put(h5test.OHDR(
		h5test.M(h5test.MsgDataspace, h5test.Simple(2, 3)),
		h5test.M(h5test.MsgDatatype, h5test.Float(4)),
		h5test.CharsAttr("Name", "Spots 1"),
		h5test.M(0x12, make([]byte, 8)), // modification time
	))
	h, err := Read(reader(f.Bytes(0)), addr)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if h.Version != 2 {
		t.Errorf("expected version 2, got %d", h.Version)
	}
	if len(h.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(h.Messages))
	}
	space, ok := Get[*message.Dataspace](h)
	if !ok {
		t.Fatal("no dataspace message")
	}
	if diff := cmp.Diff([]uint64{2, 3}, space.Dims); diff != "" {
		t.Errorf("dims mismatch (-want +got):\n%s", diff)
	}

	attrs := All[*message.Attribute](h)
	if len(attrs) != 1 || attrs[0].Name != "Name" {
		t.Errorf("expected one attribute called Name, got %v", attrs)
	}

	if !h.Has(message.TypeModTime) {
		t.Error("expected a modification time message")
	}
	if h.Has(message.TypeLayout) {
		t.Error("unexpected layout message")
	}
	if _, ok := Get[*message.Layout](h); ok {
		t.Error("Get found a layout message that is not there")
	}
}

func TestReadV2Continuation(t *testing.T) {
	f := h5test.NewFile()
	more := h5test.OCHK(
		h5test.CharsAttr("B", "2"),
		h5test.CharsAttr("C", "3"),
	)
	cont := f.Put(more)
	addr := f.Put(h5test.OHDR(
		h5test.CharsAttr("A", "1"),
		h5test.Continuation(cont, uint64(len(more))),
	))
	h, err := Read(reader(f.Bytes(0)), addr)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var names []string
	for _, a := range All[*message.Attribute](h) {
		names = append(names, a.Name)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, names); diff != "" {
		t.Errorf("attribute order mismatch (-want +got):\n%s", diff)
	}
}

func TestReadV2Checksum(t *testing.T) {
	f := h5test.NewFile()
	hdr := h5test.OHDR(h5test.M(h5test.MsgDataspace, h5test.Simple(5)))
	hdr[len(hdr)-6] ^= 0x01
	addr := f.Put(hdr)
	if _, err := Read(reader(f.Bytes(0)), addr); !errors.Is(err, binary.ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
}

func TestReadV2Gap(t *testing.T) {
	// a chunk may end with fewer spare bytes than a message header
	var body h5test.Buf
	body.U8(h5test.MsgDataspace).U16(uint16(len(h5test.Simple(1)))).U8(0).Raw(h5test.Simple(1)).U8(0, 0)
	var b h5test.Buf
	b.Str("OHDR").U8(2, 0x02).U32(uint32(body.Len())).Raw(body.Bytes())
	b.U32(binary.Lookup3(b.Bytes()))

	h, err := Read(reader(b.Bytes()), 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(h.Messages) != 1 {
		t.Errorf("expected 1 message, got %d", len(h.Messages))
	}
}

func TestReadV1(t *testing.T) {
	f := h5test.NewFile()
	tail := h5test.V1Messages(h5test.CharsAttr("ImarisVersion", "5.5.0"))
	cont := f.Put(tail)
	addr := f.Put(h5test.HeaderV1(3,
		h5test.SymbolTable(800, 900),
		h5test.Continuation(cont, uint64(len(tail))),
	))
	h, err := Read(reader(f.Bytes(0)), addr)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if h.Version != 1 {
		t.Errorf("expected version 1, got %d", h.Version)
	}
	st, ok := Get[*message.SymbolTable](h)
	if !ok {
		t.Fatal("no symbol table message")
	}
	if st.BTree != 800 {
		t.Errorf("expected B-tree at 800, got %d", st.BTree)
	}
	a, ok := Get[*message.Attribute](h)
	if !ok {
		t.Fatal("attribute in the continuation block not found")
	}
	if string(a.Data) != "5.5.0" {
		t.Errorf("expected attribute data 5.5.0, got %q", a.Data)
	}
}

func TestReadV1StopsAtCount(t *testing.T) {
	// trailing bytes past the declared count are not messages
	b := h5test.HeaderV1(1, h5test.M(h5test.MsgDataspace, h5test.Simple(4)))
	b = append(b, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
	h, err := Read(reader(b), 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(h.Messages) != 1 {
		t.Errorf("expected 1 message, got %d", len(h.Messages))
	}
}

func TestReadErrors(t *testing.T) {
	wantErr := func(err error, sub string) {
		t.Helper()
		if err == nil || !strings.Contains(err.Error(), sub) {
			t.Errorf("expected error containing %q, got %v", sub, err)
		}
	}

	bad := h5test.HeaderV1(1, h5test.M(h5test.MsgDataspace, h5test.Simple(4)))
	bad[0] = 3
	_, err := Read(reader(bad), 0)
	wantErr(err, "version 3")

	broken := h5test.OHDR(h5test.M(h5test.MsgLayout, []byte{3, 9}))
	_, err = Read(reader(broken), 0)
	wantErr(err, "layout message")

	if _, err = Read(reader(nil), 0); err == nil {
		t.Error("expected error reading an empty file")
	}

	// a continuation pointing at itself ends at the block limit
	f := h5test.NewFile()
	self := f.Put(make([]byte, 64))
	loop := h5test.OCHK(h5test.Continuation(self, 0))
	f.Patch(self, loop)
	loop = h5test.OCHK(h5test.Continuation(self, uint64(len(loop))))
	f.Patch(self, loop)
	addr := f.Put(h5test.OHDR(h5test.Continuation(self, uint64(len(loop)))))
	_, err = Read(reader(f.Bytes(0)), addr)
	wantErr(err, "header blocks")
}
