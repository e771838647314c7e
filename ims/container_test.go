package ims

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ims/internal/h5test"
)

func deflate(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(b)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// writeIMS writes a minimal Imaris file: a 2x2x3 channel stored padded to
// 2x2x4 in one deflated chunk, one surface collection and one point
// collection.
func writeIMS(t *testing.T) string {
	t.Helper()
	f := h5test.NewFile()

	raw := make([]byte, 16)
	for z := range 2 {
		for y := range 2 {
			for x := range 3 {
				raw[z*8+y*4+x] = byte(1 + z*6 + y*3 + x)
			}
		}
	}
	packed := deflate(t, raw)
	chunk := f.Put(packed)
	tree := f.ChunkTree(0, h5test.Chunk{Offset: []uint64{0, 0, 0}, Size: uint32(len(packed)), Addr: chunk})
	data := f.Put(h5test.OHDR(
		h5test.M(h5test.MsgDataspace, h5test.Simple(2, 2, 4)),
		h5test.M(h5test.MsgDatatype, h5test.Uint(1)),
		h5test.M(h5test.MsgLayout, h5test.ChunkedV3(tree, 1, 2, 2, 4)),
		h5test.M(h5test.MsgPipeline, h5test.Pipeline(h5test.Filter{ID: 1, Params: []uint32{6}})),
	))
	channel := f.Group(h5test.HardLink("Data", data))
	tp := f.Group(h5test.HardLink("Channel 0", channel))
	level := f.Group(h5test.HardLink("TimePoint 0", tp))
	dataSet := f.Group(h5test.HardLink("ResolutionLevel 0", level))

	image := f.Group(
		h5test.CharsAttr("X", "3"), h5test.CharsAttr("Z", "2"),
		// one null-padded element rather than one element per character
		h5test.M(h5test.MsgAttribute, h5test.Attr("Y", h5test.String(4, 1), h5test.Simple(1), []byte("2\x00\x00\x00"))),
		h5test.CharsAttr("ExtMin0", "0"), h5test.CharsAttr("ExtMax0", "1.5"),
		h5test.CharsAttr("ExtMin1", "0"), h5test.CharsAttr("ExtMax1", "1"),
		h5test.CharsAttr("ExtMin2", "-1"), h5test.CharsAttr("ExtMax2", "1"),
		h5test.CharsAttr("Unit", "um"),
	)
	ch0 := f.Group(h5test.CharsAttr("Name", "DAPI"), h5test.CharsAttr("Color", "0 0 1"))
	info := f.Group(h5test.HardLink("Image", image), h5test.HardLink("Channel 0", ch0))

	text := `<bpSurfaces mName="Nuclei" ChannelIndex="0"/>`
	params := f.Dataset(h5test.String(len(text), 1), h5test.Simple(1), []byte(text))
	fields := []string{
		"CenterOfMassX", "CenterOfMassY", "CenterOfMassZ",
		"EllipsoidAxisLengthX", "EllipsoidAxisLengthY", "EllipsoidAxisLengthZ",
	}
	var members []h5test.Field
	var recs h5test.Buf
	for i, name := range fields {
		members = append(members, h5test.Field{Name: name, Offset: uint32(4 * i), Type: h5test.Float(4)})
	}
	for i := range 2 {
		for j := range fields {
			recs.Raw(h5test.Float32s(float32(10*i + j)))
		}
	}
	table := f.Dataset(h5test.Compound(24, members...), h5test.Simple(2), recs.Bytes())
	surf := f.Group(h5test.HardLink("CreationParameters", params), h5test.HardLink(surfaceModelInfo, table))
	scene8 := f.Group(h5test.HardLink("Content", f.Group(h5test.HardLink("MegaSurfaces0", surf))))

	coords := f.Dataset(h5test.Float(4), h5test.Simple(2, 4), h5test.Float32s(1, 2, 3, 0.5, 4, 5, 6, 0.25))
	radii := f.Dataset(h5test.Float(4), h5test.Simple(2, 2), h5test.Float32s(0.5, 0.5, 0.25, 0.25))
	pts := f.Group(h5test.HardLink("CoordsXYZR", coords), h5test.HardLink("RadiusYZ", radii))
	scene := f.Group(h5test.HardLink("Content", f.Group(h5test.HardLink("Points0", pts))))

	a := f.Dataset(h5test.Float(8), h5test.Simple(2), h5test.Float64s(1, 2))
	split := f.Group(h5test.HardLink("A", a))

	root := f.Group(
		h5test.HardLink("DataSet", dataSet),
		h5test.HardLink("DataSetInfo", info),
		h5test.HardLink("Scene8", scene8),
		h5test.HardLink("Scene", scene),
		h5test.HardLink("Split", split),
	)
	p := filepath.Join(t.TempDir(), "sample.ims")
	require.NoError(t, os.WriteFile(p, f.Bytes(root), 0o644))
	return p
}

func TestOpenIMS(t *testing.T) {
	r, err := Open(writeIMS(t))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 1, r.SurfaceCount())
	assert.Equal(t, 1, r.PointCount())

	require.NoError(t, r.LoadInfo())
	info := r.Info()
	assert.Equal(t, [3]int{2, 2, 3}, info.Declared())
	assert.Equal(t, "um", info.Unit)
	assert.InDelta(t, 0.5, info.XRes, 1e-12)
	assert.InDelta(t, 1.0, info.ZRes, 1e-12)
	require.Equal(t, 1, info.NCh)
	assert.Equal(t, "DAPI", info.Channels[0].Name)
	assert.Equal(t, []float64{0, 0, 1}, info.Channels[0].Color)

	v, err := r.LoadChannel(0)
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 2, 3}, v.Shape())
	assert.Equal(t, 12.0, v.Value(1, 1, 2))
	assert.Equal(t, 1.0, v.Value(0, 0, 0))

	s, err := r.LoadSurface(0)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Ch)
	assert.Equal(t, []float64{0, 10}, s.X)
	assert.Equal(t, []float64{5, 15}, s.DZ)

	p, err := r.LoadPoints(0)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 6.0, p.XYZR.At(1, 2))
	assert.Equal(t, 0.25, p.RadiusYZ.At(1, 1))
}

func TestContainerErrors(t *testing.T) {
	c, err := OpenContainer(writeIMS(t))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Members("/NoSuchGroup")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.AttrBytes("/DataSetInfo/Image", "W")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Strings("/Split/A")
	assert.ErrorIs(t, err, ErrFormat)
	_, err = c.Field("/Split/A", "ID")
	assert.ErrorIs(t, err, ErrFormat)
	_, err = c.Volume("/Split/A")
	assert.ErrorIs(t, err, ErrFormat)

	v, err := c.Field("/Split", "A")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, v)

	_, err = OpenContainer(filepath.Join(t.TempDir(), "missing.ims"))
	assert.ErrorIs(t, err, ErrIO)
}
