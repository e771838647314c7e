package ims

import (
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// DatasetInfo is the image metadata of a container. Resolutions are in
// physical units per pixel: XRes = XUm / XPx, and likewise for y and z.
type DatasetInfo struct {
	XPx int `yaml:"x_px"`
	YPx int `yaml:"y_px"`
	ZPx int `yaml:"z_px"`

	XUm float64 `yaml:"x_um"`
	YUm float64 `yaml:"y_um"`
	ZUm float64 `yaml:"z_um"`

	XRes float64 `yaml:"x_res"`
	YRes float64 `yaml:"y_res"`
	ZRes float64 `yaml:"z_res"`

	// ExtMin and ExtMax are the raw physical extents in x, y, z order.
	ExtMin [3]float64 `yaml:"ext_min,flow"`
	ExtMax [3]float64 `yaml:"ext_max,flow"`

	Unit     string              `yaml:"unit"`
	NCh      int                 `yaml:"n_ch"`
	Channels map[int]ChannelInfo `yaml:"channels"`
}

// Declared returns the declared pixel counts in (z, y, x) order.
func (d *DatasetInfo) Declared() [3]int {
	return [3]int{d.ZPx, d.YPx, d.XPx}
}

// ChannelInfo describes one channel.
type ChannelInfo struct {
	Name string `yaml:"name"`
	// Color is the channel's display color, usually r g b in [0, 1].
	Color     []float64 `yaml:"color,flow"`
	ColorText string    `yaml:"-"`
}

// SurfaceRecord holds the per-instance centroids and ellipsoid axis lengths
// of one surface collection, and the channel the surfaces were built on.
type SurfaceRecord struct {
	X, Y, Z    []float64
	DX, DY, DZ []float64
	Ch         int
}

// Len returns the number of surface instances.
func (s *SurfaceRecord) Len() int { return len(s.X) }

// PointRecord holds a point collection: one row per point of x, y, z and
// radius, and the per-point y/z radii.
type PointRecord struct {
	XYZR     *mat.Dense
	RadiusYZ *mat.Dense
}

// Len returns the number of points.
func (p *PointRecord) Len() int {
	if p.XYZR == nil {
		return 0
	}
	r, _ := p.XYZR.Dims()
	return r
}

// Reader is a read-only view of an Imaris file. The extraction methods
// (LoadInfo, LoadSurface, LoadPoints, LoadChannel) populate its state, which
// the accessors then return. A Reader must not be used concurrently.
type Reader struct {
	c   Container
	log *log.Logger

	nSurf int
	nPts  int

	info *DatasetInfo
	// surfaces and points stay nil when the file has no such collections.
	surfaces map[int]*SurfaceRecord
	points   map[int]*PointRecord
	channels map[int]Volume
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sends the Reader's progress messages to l.
func WithLogger(l *log.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// Open opens the Imaris file at path. The returned Reader owns the file and
// must be closed.
func Open(path string, opts ...Option) (*Reader, error) {
	c, err := OpenContainer(path)
	if err != nil {
		return nil, err
	}
	r, err := New(c, opts...)
	if err != nil {
		c.Close()
		return nil, err
	}
	return r, nil
}

// New builds a Reader on an open container, counting its surface and point
// collections. The Reader takes ownership of c only on success.
func New(c Container, opts ...Option) (*Reader, error) {
	r := &Reader{
		c:        c,
		log:      log.New(io.Discard, "", 0),
		channels: make(map[int]Volume),
	}
	for _, opt := range opts {
		opt(r)
	}

	var err error
	if r.nSurf, err = countPrefix(c, surfacesPath, surfacePrefix); err != nil {
		return nil, err
	}
	if r.nPts, err = countPrefix(c, pointsPath, pointPrefix); err != nil {
		return nil, err
	}
	if r.nSurf > 0 {
		r.surfaces = make(map[int]*SurfaceRecord)
	}
	if r.nPts > 0 {
		r.points = make(map[int]*PointRecord)
	}
	r.log.Printf("ims: %d surface collections, %d point collections", r.nSurf, r.nPts)
	return r, nil
}

func countPrefix(c Container, group, prefix string) (int, error) {
	names, err := c.Members(group)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			n++
		}
	}
	return n, nil
}

// Close releases the container. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.c == nil {
		return nil
	}
	err := r.c.Close()
	r.c = nil
	return err
}

// Container returns the underlying container.
func (r *Reader) Container() Container { return r.c }

// SurfaceCount returns the number of surface collections in the file.
func (r *Reader) SurfaceCount() int { return r.nSurf }

// PointCount returns the number of point collections in the file.
func (r *Reader) PointCount() int { return r.nPts }

// Info returns the metadata, or nil before LoadInfo has succeeded.
func (r *Reader) Info() *DatasetInfo { return r.info }

// Surface returns a previously loaded surface record.
func (r *Reader) Surface(i int) (*SurfaceRecord, bool) {
	s, ok := r.surfaces[i]
	return s, ok
}

// Points returns a previously loaded point record.
func (r *Reader) Points(i int) (*PointRecord, bool) {
	p, ok := r.points[i]
	return p, ok
}

// ChannelData returns a previously loaded, reconciled channel volume.
func (r *Reader) ChannelData(i int) (Volume, bool) {
	v, ok := r.channels[i]
	return v, ok
}

// LoadedChannels returns the indexes of the loaded channels in ascending order.
func (r *Reader) LoadedChannels() []int {
	idx := make([]int, 0, len(r.channels))
	for i := range r.channels {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

func (r *Reader) attrInt(p, name string) (int, error) {
	b, err := r.c.AttrBytes(p, name)
	if err != nil {
		return 0, err
	}
	n, err := DecodeInt(b)
	if err != nil {
		return 0, fmt.Errorf("%s@%s: %w", p, name, err)
	}
	return n, nil
}

func (r *Reader) attrFloat(p, name string) (float64, error) {
	b, err := r.c.AttrBytes(p, name)
	if err != nil {
		return 0, err
	}
	f, err := DecodeFloat(b)
	if err != nil {
		return 0, fmt.Errorf("%s@%s: %w", p, name, err)
	}
	return f, nil
}

func (r *Reader) attrString(p, name string) (string, error) {
	b, err := r.c.AttrBytes(p, name)
	if err != nil {
		return "", err
	}
	s, err := DecodeBytes(b)
	if err != nil {
		return "", fmt.Errorf("%s@%s: %w", p, name, err)
	}
	return s, nil
}

// LoadInfo reads the image metadata and the per-channel name and color. On
// error the previously loaded metadata, if any, is kept.
func (r *Reader) LoadInfo() error {
	var info DatasetInfo
	var err error

	px := []struct {
		name string
		dst  *int
	}{{"X", &info.XPx}, {"Y", &info.YPx}, {"Z", &info.ZPx}}
	for _, a := range px {
		if *a.dst, err = r.attrInt(imagePath, a.name); err != nil {
			return err
		}
		if *a.dst <= 0 {
			return fmt.Errorf("%s@%s: pixel count %d: %w", imagePath, a.name, *a.dst, ErrFormat)
		}
	}
	for axis := 0; axis < 3; axis++ {
		if info.ExtMin[axis], err = r.attrFloat(imagePath, fmt.Sprintf("ExtMin%d", axis)); err != nil {
			return err
		}
		if info.ExtMax[axis], err = r.attrFloat(imagePath, fmt.Sprintf("ExtMax%d", axis)); err != nil {
			return err
		}
	}
	if info.Unit, err = r.attrString(imagePath, "Unit"); err != nil {
		return err
	}

	info.XUm = info.ExtMax[0] - info.ExtMin[0]
	info.YUm = info.ExtMax[1] - info.ExtMin[1]
	info.ZUm = info.ExtMax[2] - info.ExtMin[2]
	info.XRes = info.XUm / float64(info.XPx)
	info.YRes = info.YUm / float64(info.YPx)
	info.ZRes = info.ZUm / float64(info.ZPx)

	if info.NCh, err = countPrefix(r.c, datasetInfoPath, channelPrefix); err != nil {
		return err
	}
	info.Channels = make(map[int]ChannelInfo, info.NCh)
	for ch := 0; ch < info.NCh; ch++ {
		p := fmt.Sprintf(channelInfoFmt, ch)
		var ci ChannelInfo
		if ci.Name, err = r.attrString(p, "Name"); err != nil {
			return err
		}
		if ci.ColorText, err = r.attrString(p, "Color"); err != nil {
			return err
		}
		if ci.Color, err = parseFloats(ci.ColorText); err != nil {
			return fmt.Errorf("%s@Color: %w", p, err)
		}
		info.Channels[ch] = ci
	}

	r.info = &info
	r.log.Printf("ims: %dx%dx%d px, %g x %g x %g %s, %d channels",
		info.XPx, info.YPx, info.ZPx, info.XUm, info.YUm, info.ZUm, info.Unit, info.NCh)
	return nil
}

// LoadSurface reads surface collection i and stores it, replacing any
// record previously loaded for i.
func (r *Reader) LoadSurface(i int) (*SurfaceRecord, error) {
	if err := checkIndex("surface", i, r.nSurf); err != nil {
		return nil, err
	}
	group := fmt.Sprintf(surfaceGroupFmt, i)

	params, err := r.c.Strings(path.Join(group, "CreationParameters"))
	if err != nil {
		return nil, err
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("%s/CreationParameters is empty: %w", group, ErrFormat)
	}
	text, err := DecodeBytes([][]byte{[]byte(params[0])})
	if err != nil {
		return nil, fmt.Errorf("%s/CreationParameters: %w", group, err)
	}
	ch, err := ParseCreationParameters(text).Int("ChannelIndex")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", group, err)
	}

	rec := &SurfaceRecord{Ch: ch}
	table := path.Join(group, surfaceModelInfo)
	fields := []struct {
		name string
		dst  *[]float64
	}{
		{"CenterOfMassX", &rec.X},
		{"CenterOfMassY", &rec.Y},
		{"CenterOfMassZ", &rec.Z},
		{"EllipsoidAxisLengthX", &rec.DX},
		{"EllipsoidAxisLengthY", &rec.DY},
		{"EllipsoidAxisLengthZ", &rec.DZ},
	}
	for _, f := range fields {
		if *f.dst, err = r.c.Field(table, f.name); err != nil {
			return nil, err
		}
	}

	r.surfaces[i] = rec
	r.log.Printf("ims: surface %d: %d instances on channel %d", i, rec.Len(), rec.Ch)
	return rec, nil
}

// LoadPoints reads point collection i and stores it, replacing any record
// previously loaded for i.
func (r *Reader) LoadPoints(i int) (*PointRecord, error) {
	if err := checkIndex("points", i, r.nPts); err != nil {
		return nil, err
	}
	group := fmt.Sprintf(pointGroupFmt, i)

	xyzr, err := r.matrix(path.Join(group, "CoordsXYZR"))
	if err != nil {
		return nil, err
	}
	ryz, err := r.matrix(path.Join(group, "RadiusYZ"))
	if err != nil {
		return nil, err
	}

	rec := &PointRecord{XYZR: xyzr, RadiusYZ: ryz}
	r.points[i] = rec
	r.log.Printf("ims: points %d: %d points", i, rec.Len())
	return rec, nil
}

// matrix reads a 1-D or 2-D dataset as a matrix; a 1-D dataset becomes a
// single column. An empty dataset yields a nil matrix.
func (r *Reader) matrix(p string) (*mat.Dense, error) {
	data, shape, err := r.c.Floats(p)
	if err != nil {
		return nil, err
	}
	rows, cols := len(data), 1
	switch len(shape) {
	case 1:
	case 2:
		rows, cols = shape[0], shape[1]
	default:
		return nil, fmt.Errorf("%s: expected 1 or 2 dimensions, shape is %v: %w", p, shape, ErrFormat)
	}
	if rows*cols != len(data) {
		return nil, fmt.Errorf("%s: shape %v does not match %d values: %w", p, shape, len(data), ErrFormat)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return mat.NewDense(rows, cols, data), nil
}

// reconciled reads channel ch at resolution level 0, timepoint 0 and trims it
// to the declared dimensions.
func (r *Reader) reconciled(ch int) (Volume, error) {
	raw, err := r.c.Volume(fmt.Sprintf(channelDataFmt, ch))
	if err != nil {
		return nil, err
	}
	v := Reconcile(raw, r.info.Declared())
	r.log.Printf("ims: channel %d: raw %v -> %v (declared %v)", ch, raw.Shape(), v.Shape(), r.info.Declared())
	return v, nil
}

// LoadChannel reads and reconciles channel i and stores it, replacing any
// volume previously loaded for i. LoadInfo must have been called.
func (r *Reader) LoadChannel(i int) (Volume, error) {
	if r.info == nil {
		return nil, errNoMetadata
	}
	if err := checkIndex("channel", i, r.info.NCh); err != nil {
		return nil, err
	}
	v, err := r.reconciled(i)
	if err != nil {
		return nil, err
	}
	r.channels[i] = v
	return v, nil
}
