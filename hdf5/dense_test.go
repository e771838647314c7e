package hdf5

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robert-malhotra/go-ims/internal/h5test"
)

// buildDense writes a file whose /Dense group keeps its links and most of
// its attributes in fractal heaps.
func buildDense(t *testing.T) string {
	t.Helper()
	f := h5test.NewFile()
	data := f.Dataset(h5test.Float(8), h5test.Simple(2), h5test.Float64s(3, 4))

	heap, ids := f.FractalHeap(
		h5test.HardLink("Data", data).Body,
		h5test.SoftLink("Alias", "/Dense/Data").Body,
	)
	index := f.BTreeV2(5, 512, h5test.LinkNameRecord(0x10, ids[0]), h5test.LinkNameRecord(0x20, ids[1]))

	aheap, aids := f.FractalHeapIndirect(
		h5test.CharsAttr("Name", "cells").Body,
		h5test.Attr("Scale", h5test.Float(8), h5test.Simple(), h5test.Float64s(0.5)),
	)
	aindex := f.BTreeV2(8, 512, h5test.AttrNameRecord(aids[0], 0, 0x30), h5test.AttrNameRecord(aids[1], 1, 0x40))

	dense := f.Put(h5test.OHDR(
		h5test.DenseLinkInfo(heap, index),
		h5test.AttrInfo(aheap, aindex),
		h5test.CharsAttr("Inline", "x"),
	))
	// a creation order index where the name index belongs
	order := f.BTreeV2(6, 512, make([]byte, 15))
	broken := f.Put(h5test.OHDR(h5test.DenseLinkInfo(heap, order)))

	root := f.Group(h5test.HardLink("Dense", dense), h5test.HardLink("Broken", broken))
	return writeFile(t, t.TempDir(), "dense.ims", f.Bytes(root))
}

func TestDenseGroup(t *testing.T) {
	f, err := Open(buildDense(t))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	g, err := f.OpenGroup("/Dense")
	if err != nil {
		t.Fatal(err)
	}
	members, err := g.Members()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Alias", "Data"}, members); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}

	ds, err := f.OpenDataset("/Dense/Alias")
	if err != nil {
		t.Fatal(err)
	}
	v, err := ds.ReadFloat64()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{3, 4}, v); diff != "" {
		t.Errorf("v mismatch (-want +got):\n%s", diff)
	}
	if !f.Exists("/Dense/Data") {
		t.Error("/Dense/Data does not exist")
	}

	broken, err := f.OpenGroup("/Broken")
	if err != nil {
		t.Fatal(err)
	}
	_, err = broken.Members()
	if err == nil || !strings.Contains(err.Error(), "does not index names") {
		t.Errorf("expected error containing %q, got %v", "does not index names", err)
	}
}

func TestDenseAttributes(t *testing.T) {
	f, err := Open(buildDense(t))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	g, err := f.OpenGroup("/Dense")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Inline", "Name", "Scale"}, g.Attrs()); diff != "" {
		t.Errorf("g.Attrs() mismatch (-want +got):\n%s", diff)
	}
	if !g.HasAttr("Name") {
		t.Error("dense attribute Name not found")
	}

	scale, err := f.GetAttr("/Dense@Scale")
	if err != nil {
		t.Fatal(err)
	}
	s, err := scale.ReadFloat64()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{0.5}, s); diff != "" {
		t.Errorf("s mismatch (-want +got):\n%s", diff)
	}

	name, err := f.GetAttr("/Dense@Name")
	if err != nil {
		t.Fatal(err)
	}
	parts, err := name.ReadString()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"c", "e", "l", "l", "s"}, parts); diff != "" {
		t.Errorf("parts mismatch (-want +got):\n%s", diff)
	}

	_, err = f.GetAttr("/Dense@Missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected %v, got %v", ErrNotFound, err)
	}
}
