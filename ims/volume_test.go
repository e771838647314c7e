package ims

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/mat"
)

func mustArray[T Sample](t *testing.T, shape [3]int, data []T) *Array3[T] {
	t.Helper()
	a, err := NewArray3(shape, data)
	require.NoError(t, err)
	return a
}

func TestNewArray3(t *testing.T) {
	_, err := NewArray3([3]int{2, 2, 2}, make([]uint8, 7))
	assert.Error(t, err)
	_, err = NewArray3([3]int{-1, 2, 2}, []float32{})
	assert.Error(t, err)

	a := mustArray(t, [3]int{0, 3, 3}, []uint32{})
	assert.Equal(t, [3]int{0, 3, 3}, a.Shape())
	assert.Zero(t, a.SizeBytes())
}

func TestArray3Types(t *testing.T) {
	tests := []struct {
		v     Volume
		dtype string
		size  int
	}{
		{mustArray(t, [3]int{1, 2, 2}, make([]uint8, 4)), "uint8", 4},
		{mustArray(t, [3]int{1, 2, 2}, make([]uint16, 4)), "uint16", 8},
		{mustArray(t, [3]int{1, 2, 2}, make([]uint32, 4)), "uint32", 16},
		{mustArray(t, [3]int{1, 2, 2}, make([]float32, 4)), "float32", 16},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.dtype, tt.v.DType())
		assert.Equal(t, tt.size, tt.v.SizeBytes(), tt.dtype)
	}
}

func TestSelect(t *testing.T) {
	// value = 100z + 10y + x
	data := make([]uint16, 0, 2*3*4)
	for z := 0; z < 2; z++ {
		for y := 0; y < 3; y++ {
			for x := 0; x < 4; x++ {
				data = append(data, uint16(100*z+10*y+x))
			}
		}
	}
	a := mustArray(t, [3]int{2, 3, 4}, data)

	z := a.Select(AxisZ, []int{1}).(*Array3[uint16])
	assert.Equal(t, [3]int{1, 3, 4}, z.Shape())
	assert.Equal(t, uint16(123), z.At(0, 2, 3))

	y := a.Select(AxisY, []int{2, 0}).(*Array3[uint16])
	assert.Equal(t, [3]int{2, 2, 4}, y.Shape())
	assert.Equal(t, uint16(121), y.At(1, 0, 1))
	assert.Equal(t, uint16(101), y.At(1, 1, 1))

	x := a.Select(AxisX, []int{3}).(*Array3[uint16])
	assert.Equal(t, [3]int{2, 3, 1}, x.Shape())
	assert.Equal(t, []uint16{3, 13, 23, 103, 113, 123}, x.Data)

	empty := a.Select(AxisY, nil)
	assert.Equal(t, [3]int{2, 0, 4}, empty.Shape())

	assert.Panics(t, func() { a.Select(3, nil) })
}

func TestAxisSums(t *testing.T) {
	a := paddedChannel()
	sums := AxisSums(a, AxisY)
	require.Len(t, sums, 5)
	assert.Zero(t, sums[2])
	for _, y := range []int{0, 1, 3, 4} {
		assert.Positive(t, sums[y])
	}

	z := AxisSums(a, AxisZ)
	require.Len(t, z, 2)
	assert.Greater(t, z[1], z[0])
}

func TestReconcile(t *testing.T) {
	v := Reconcile(paddedChannel(), [3]int{2, 4, 4})
	assert.Equal(t, [3]int{2, 4, 4}, v.Shape())
	assert.Equal(t, 111.0, v.Value(0, 1, 0))
	assert.Equal(t, 131.0, v.Value(0, 2, 0), "rows after the dropped one shift up")
	assert.Equal(t, 244.0, v.Value(1, 3, 3))
}

func TestReconcileNoPadding(t *testing.T) {
	raw := paddedChannel()

	// declared larger than raw on every axis: nothing changes, nothing is padded
	v := Reconcile(raw, [3]int{4, 8, 8})
	assert.Same(t, Volume(raw), v)

	// equal length: an all-zero row inside the data is kept
	v = Reconcile(raw, [3]int{2, 5, 4})
	assert.Equal(t, [3]int{2, 5, 4}, v.Shape())
}

func TestReconcileEveryAxis(t *testing.T) {
	// (3, 3, 3) with the last z plane, the first y row and the middle x
	// column zero; declared (2, 2, 2).
	data := make([]float32, 27)
	for z := 0; z < 2; z++ {
		for y := 1; y < 3; y++ {
			for _, x := range []int{0, 2} {
				data[(z*3+y)*3+x] = float32(1 + z)
			}
		}
	}
	v := Reconcile(mustArray(t, [3]int{3, 3, 3}, data), [3]int{2, 2, 2})
	assert.Equal(t, [3]int{2, 2, 2}, v.Shape())
	assert.Equal(t, []float32{1, 1, 1, 1, 2, 2, 2, 2}, v.(*Array3[float32]).Data)
}

func TestReconcileUnderfilled(t *testing.T) {
	// more zero rows than padding: the result is smaller than declared
	data := []uint8{
		1, 1,
		0, 0,
		0, 0,
		2, 2,
	}
	v := Reconcile(mustArray(t, [3]int{1, 4, 2}, data), [3]int{1, 3, 2})
	assert.Equal(t, [3]int{1, 2, 2}, v.Shape())
}

func TestMaxProjection(t *testing.T) {
	m := MaxProjection(paddedChannel())
	require.NotNil(t, m)
	rows, cols := m.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 4, cols)
	assert.Equal(t, 211.0, m.At(1, 0))
	assert.Zero(t, m.At(2, 3))

	assert.Nil(t, MaxProjection(mustArray(t, [3]int{2, 0, 3}, []uint8{})))

	flat := MaxProjection(mustArray(t, [3]int{0, 2, 3}, []uint8{}))
	require.NotNil(t, flat)
	assert.True(t, mat.Equal(mat.NewDense(2, 3, nil), flat))
}

func TestWriteTIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.tif")
	v := Reconcile(paddedChannel(), [3]int{2, 4, 4})
	require.NoError(t, WriteTIFF(path, v))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := tiff.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())

	gray, ok := img.(*image.Gray16)
	require.True(t, ok, "got %T", img)
	assert.Equal(t, uint16(111), gray.Gray16At(0, 1).Y)
	assert.Equal(t, uint16(144), gray.Gray16At(3, 3).Y)

	err = WriteTIFF(filepath.Join(t.TempDir(), "missing", "x.tif"), v)
	assert.ErrorIs(t, err, ErrIO)
}

func TestWriteProjectionTIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mip.tif")
	m := mat.NewDense(2, 3, []float64{
		0, 1.6, -4,
		70000, 12, 65535,
	})
	require.NoError(t, WriteProjectionTIFF(path, m))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := tiff.Decode(f)
	require.NoError(t, err)
	gray := img.(*image.Gray16)
	assert.Equal(t, image.Rect(0, 0, 3, 2), gray.Bounds())
	assert.Equal(t, uint16(2), gray.Gray16At(1, 0).Y)
	assert.Equal(t, uint16(0), gray.Gray16At(2, 0).Y)
	assert.Equal(t, uint16(65535), gray.Gray16At(0, 1).Y)
	assert.Equal(t, uint16(12), gray.Gray16At(1, 1).Y)

	assert.ErrorIs(t, WriteProjectionTIFF(path, nil), ErrPrecondition)
}

func TestStackPath(t *testing.T) {
	assert.Equal(t, "out/run_ch3.tif", StackPath("out/run", 3, ".tif"))
}

func TestReconcileNegativeDeclared(t *testing.T) {
	data := []uint8{1, 0, 2, 0}
	v := Reconcile(mustArray(t, [3]int{1, 1, 4}, data), [3]int{-1, 1, -1})
	assert.Equal(t, [3]int{1, 1, 2}, v.Shape())
	assert.Equal(t, []uint8{1, 2}, v.(*Array3[uint8]).Data)
}
