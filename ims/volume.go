package ims

import (
	"fmt"
	"io"
	"unsafe"

	"gonum.org/v1/gonum/mat"

	"github.com/robert-malhotra/go-ims/internal/tiffstack"
)

// Axis indexes of a Volume shape.
const (
	AxisZ = 0
	AxisY = 1
	AxisX = 2
)

// Sample is the set of raw sample types Imaris writes for channel data.
type Sample interface {
	uint8 | uint16 | uint32 | float32
}

// Volume is a 3-D array of raw samples in (z, y, x) order. The concrete type
// is always an *Array3 whose element type matches the container dataset.
type Volume interface {
	// Shape returns the lengths of the z, y and x axes.
	Shape() [3]int
	// Value returns the sample at (z, y, x) as a float64.
	Value(z, y, x int) float64
	// Select returns a new volume holding only the given indices along axis,
	// in the order given.
	Select(axis int, idx []int) Volume
	// DType names the sample type, e.g. "uint16".
	DType() string
	// SizeBytes is the in-memory size of the sample data.
	SizeBytes() int

	encodeTIFF(w io.Writer) error
}

// Array3 is a dense (z, y, x) array stored in row-major order.
type Array3[T Sample] struct {
	Data  []T
	shape [3]int
}

// NewArray3 wraps data as a volume of the given shape. len(data) must equal
// the product of the shape.
func NewArray3[T Sample](shape [3]int, data []T) (*Array3[T], error) {
	for _, n := range shape {
		if n < 0 {
			return nil, fmt.Errorf("negative dimension in shape %v", shape)
		}
	}
	if n := shape[0] * shape[1] * shape[2]; n != len(data) {
		return nil, fmt.Errorf("shape %v needs %d samples, have %d", shape, n, len(data))
	}
	return &Array3[T]{Data: data, shape: shape}, nil
}

func (a *Array3[T]) Shape() [3]int { return a.shape }

func (a *Array3[T]) index(z, y, x int) int {
	return (z*a.shape[1]+y)*a.shape[2] + x
}

// At returns the raw sample at (z, y, x).
func (a *Array3[T]) At(z, y, x int) T {
	return a.Data[a.index(z, y, x)]
}

func (a *Array3[T]) Value(z, y, x int) float64 {
	return float64(a.Data[a.index(z, y, x)])
}

func (a *Array3[T]) DType() string {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return "uint8"
	case uint16:
		return "uint16"
	case uint32:
		return "uint32"
	default:
		return "float32"
	}
}

func (a *Array3[T]) SizeBytes() int {
	var zero T
	return len(a.Data) * int(unsafe.Sizeof(zero))
}

func (a *Array3[T]) Select(axis int, idx []int) Volume {
	shape := a.shape
	shape[axis] = len(idx)
	out := make([]T, 0, shape[0]*shape[1]*shape[2])

	switch axis {
	case AxisZ:
		plane := a.shape[1] * a.shape[2]
		for _, z := range idx {
			out = append(out, a.Data[z*plane:(z+1)*plane]...)
		}
	case AxisY:
		for z := 0; z < a.shape[0]; z++ {
			for _, y := range idx {
				row := a.index(z, y, 0)
				out = append(out, a.Data[row:row+a.shape[2]]...)
			}
		}
	case AxisX:
		for z := 0; z < a.shape[0]; z++ {
			for y := 0; y < a.shape[1]; y++ {
				row := a.index(z, y, 0)
				for _, x := range idx {
					out = append(out, a.Data[row+x])
				}
			}
		}
	default:
		panic(fmt.Sprintf("ims: invalid axis %d", axis))
	}
	return &Array3[T]{Data: out, shape: shape}
}

func (a *Array3[T]) encodeTIFF(w io.Writer) error {
	return tiffstack.Encode(w, a.Data, a.shape[0], a.shape[1], a.shape[2])
}

// MaxProjection returns the maximum-intensity projection of v along z as a
// y-by-x matrix. A volume with no z planes projects to a zero matrix, and a
// volume with an empty y or x axis projects to nil.
func MaxProjection(v Volume) *mat.Dense {
	s := v.Shape()
	if s[AxisY] == 0 || s[AxisX] == 0 {
		return nil
	}
	m := mat.NewDense(s[AxisY], s[AxisX], nil)
	if s[AxisZ] == 0 {
		return m
	}
	for y := 0; y < s[AxisY]; y++ {
		for x := 0; x < s[AxisX]; x++ {
			best := v.Value(0, y, x)
			for z := 1; z < s[AxisZ]; z++ {
				if val := v.Value(z, y, x); val > best {
					best = val
				}
			}
			m.Set(y, x, best)
		}
	}
	return m
}
