package ims

import (
	"errors"
	"fmt"
	"path"
	"reflect"

	"github.com/robert-malhotra/go-ims/hdf5"
)

// Fixed locations inside an Imaris container.
const (
	imagePath        = "/DataSetInfo/Image"
	datasetInfoPath  = "/DataSetInfo"
	surfacesPath     = "/Scene8/Content"
	pointsPath       = "/Scene/Content"
	channelDataFmt   = "/DataSet/ResolutionLevel 0/TimePoint 0/Channel %d/Data"
	channelInfoFmt   = "/DataSetInfo/Channel %d"
	surfaceGroupFmt  = surfacesPath + "/MegaSurfaces%d"
	pointGroupFmt    = pointsPath + "/Points%d"
	channelPrefix    = "Channel "
	surfacePrefix    = "MegaSurfaces"
	pointPrefix      = "Points"
	surfaceModelInfo = "SurfaceModelInfo"
)

// Container is the read-only view of a hierarchical container that the
// Reader needs. Paths are absolute, slash separated. Implementations report
// missing objects with errors matching ErrNotFound and read failures with
// errors matching ErrIO.
type Container interface {
	// Members returns the names of the objects in the group at path.
	Members(path string) ([]string, error)
	// AttrBytes reads an attribute stored as an array of encoded bytes.
	AttrBytes(path, name string) ([][]byte, error)
	// Strings reads a string dataset.
	Strings(path string) ([]string, error)
	// Floats reads a numeric dataset in row-major order, with its shape.
	Floats(path string) ([]float64, []int, error)
	// Field reads one numeric field of the record table at path. The table is
	// either a compound dataset or a group holding one dataset per field.
	Field(path, name string) ([]float64, error)
	// Volume reads a 3-D dataset in its native sample type.
	Volume(path string) (Volume, error)
	Close() error
}

// h5Container serves a Container from an HDF5 file.
type h5Container struct {
	f *hdf5.File
}

// OpenContainer opens the HDF5 file at path read-only.
func OpenContainer(path string) (Container, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w: %w", path, ErrIO, err)
	}
	return &h5Container{f: f}, nil
}

func (c *h5Container) Close() error { return c.f.Close() }

func (c *h5Container) Members(p string) ([]string, error) {
	g, err := c.f.OpenGroup(p)
	if err != nil {
		return nil, wrapH5(p, err)
	}
	names, err := g.Members()
	if err != nil {
		return nil, wrapH5(p, err)
	}
	return names, nil
}

func (c *h5Container) AttrBytes(p, name string) ([][]byte, error) {
	attr, err := c.f.GetAttr(hdf5.JoinAttrPath(hdf5.CleanPath(p), name))
	if err != nil {
		return nil, wrapH5(p+"@"+name, err)
	}
	b, err := attr.ReadBytes()
	if err != nil {
		return nil, wrapH5(p+"@"+name, err)
	}
	return b, nil
}

func (c *h5Container) Strings(p string) ([]string, error) {
	ds, err := c.f.OpenDataset(p)
	if err != nil {
		return nil, wrapH5(p, err)
	}
	s, err := ds.ReadString()
	if err != nil {
		return nil, wrapH5(p, err)
	}
	return s, nil
}

func (c *h5Container) Floats(p string) ([]float64, []int, error) {
	ds, err := c.f.OpenDataset(p)
	if err != nil {
		return nil, nil, wrapH5(p, err)
	}
	data, err := ds.ReadFloat64()
	if err != nil {
		return nil, nil, wrapH5(p, err)
	}
	shape := make([]int, len(ds.Shape()))
	for i, d := range ds.Shape() {
		shape[i] = int(d)
	}
	return data, shape, nil
}

func (c *h5Container) Field(p, name string) ([]float64, error) {
	ds, err := c.f.OpenDataset(p)
	switch {
	case err == nil:
		v, err := ds.ReadField(name)
		if err != nil {
			return nil, wrapH5(p, err)
		}
		return v, nil
	case errors.Is(err, hdf5.ErrNotDataset):
		v, _, err := c.Floats(path.Join(p, name))
		return v, err
	default:
		return nil, wrapH5(p, err)
	}
}

func (c *h5Container) Volume(p string) (Volume, error) {
	ds, err := c.f.OpenDataset(p)
	if err != nil {
		return nil, wrapH5(p, err)
	}
	dims := ds.Shape()
	if len(dims) != 3 {
		return nil, fmt.Errorf("%s: expected a 3-D dataset, shape is %v: %w", p, dims, ErrFormat)
	}
	shape := [3]int{int(dims[0]), int(dims[1]), int(dims[2])}

	t, err := ds.GoType()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", p, ErrFormat, err)
	}
	switch t.Kind() {
	case reflect.Uint8:
		return readVolume(ds.ReadUint8, p, shape)
	case reflect.Uint16:
		return readVolume(ds.ReadUint16, p, shape)
	case reflect.Uint32:
		return readVolume(ds.ReadUint32, p, shape)
	case reflect.Float32:
		return readVolume(ds.ReadFloat32, p, shape)
	}
	return nil, fmt.Errorf("%s: unsupported sample type %v: %w", p, t, ErrFormat)
}

func readVolume[T Sample](read func() ([]T, error), p string, shape [3]int) (Volume, error) {
	data, err := read()
	if err != nil {
		return nil, wrapH5(p, err)
	}
	a, err := NewArray3(shape, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", p, ErrFormat, err)
	}
	return a, nil
}

// wrapH5 classifies an hdf5 error into the package's error classes.
func wrapH5(p string, err error) error {
	switch {
	case errors.Is(err, hdf5.ErrNotFound),
		errors.Is(err, hdf5.ErrNotGroup),
		errors.Is(err, hdf5.ErrNotDataset):
		return fmt.Errorf("%s: %w: %w", p, ErrNotFound, err)
	case errors.Is(err, hdf5.ErrNotString),
		errors.Is(err, hdf5.ErrNotCompound):
		return fmt.Errorf("%s: %w: %w", p, ErrFormat, err)
	}
	return fmt.Errorf("%s: %w: %w", p, ErrIO, err)
}
