package ims

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strings"

	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/mat"

	"github.com/robert-malhotra/go-ims/internal/render"
)

// StackExt is the only output extension SaveImageData writes.
const StackExt = ".tif"

// WriteTIFF writes v to path as a multi-page TIFF, one page per z plane,
// keeping the native sample type.
func WriteTIFF(path string, v Volume) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrIO, cerr)
		}
	}()
	if err := v.encodeTIFF(f); err != nil {
		return fmt.Errorf("writing %s: %w: %w", path, ErrIO, err)
	}
	return nil
}

// WriteProjectionTIFF writes m as a single-page 16-bit grayscale TIFF. Values
// are rounded and clamped to [0, 65535].
func WriteProjectionTIFF(path string, m *mat.Dense) (err error) {
	if m == nil {
		return fmt.Errorf("writing %s: empty projection: %w", path, ErrPrecondition)
	}
	rows, cols := m.Dims()
	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := math.Round(m.At(y, x))
			switch {
			case v < 0 || math.IsNaN(v):
				v = 0
			case v > math.MaxUint16:
				v = math.MaxUint16
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrIO, cerr)
		}
	}()
	bw := bufio.NewWriter(f)
	if err := tiff.Encode(bw, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("writing %s: %w: %w", path, ErrIO, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w: %w", path, ErrIO, err)
	}
	return nil
}

// StackPath returns the output path of channel ch for SaveImageData.
func StackPath(base string, ch int, ext string) string {
	return fmt.Sprintf("%s_ch%d%s", base, ch, ext)
}

// SaveImageData reconciles every channel and writes it to
// "<base>_ch<i><ext>". Only the .tif extension is written; any other
// extension makes this a no-op. The volumes are not retained.
func (r *Reader) SaveImageData(base, ext string) ([]string, error) {
	if r.info == nil {
		return nil, errNoMetadata
	}
	var written []string
	for ch := 0; ch < r.info.NCh; ch++ {
		v, err := r.reconciled(ch)
		if err != nil {
			return written, err
		}
		out := StackPath(base, ch, ext)
		if !strings.HasSuffix(out, StackExt) {
			r.log.Printf("ims: skipping %s, unsupported extension %q", out, ext)
			continue
		}
		if err := WriteTIFF(out, v); err != nil {
			return written, err
		}
		r.log.Printf("ims: wrote %s %v %s", out, v.Shape(), v.DType())
		written = append(written, out)
	}
	return written, nil
}

// PlotOptions controls PlotSurfaceProjection.
type PlotOptions = render.Options

// Crop limits the plotted region, in pixels.
type Crop = render.Crop

// DefaultPlotOptions returns the default figure settings.
func DefaultPlotOptions() PlotOptions { return render.DefaultOptions() }

// PlotSurfaceProjection renders the maximum-intensity projection of channel
// ch with the centroids of surface collection surf overlaid, and saves it to
// out. Centroids are converted to pixels with the x and y resolutions. The
// surface record must have been loaded with LoadSurface.
func (r *Reader) PlotSurfaceProjection(ch, surf int, out string, opts PlotOptions) error {
	if r.info == nil {
		return errNoMetadata
	}
	rec, ok := r.surfaces[surf]
	if !ok {
		return fmt.Errorf("surface %d not loaded: %w", surf, ErrPrecondition)
	}
	if err := checkIndex("channel", ch, r.info.NCh); err != nil {
		return err
	}

	v, err := r.reconciled(ch)
	if err != nil {
		return err
	}
	mip := MaxProjection(v)
	if mip == nil {
		return fmt.Errorf("channel %d has shape %v: %w", ch, v.Shape(), render.ErrEmpty)
	}

	xs, ys := SurfacePixels(rec, r.info)
	if opts.Title == "" {
		opts.Title = fmt.Sprintf("channel %d, surfaces %d", ch, surf)
	}
	if err := render.Save(out, mip, xs, ys, opts); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	r.log.Printf("ims: plotted channel %d with %d centroids to %s", ch, len(xs), out)
	return nil
}

// SurfacePixels converts the surface centroids to pixel coordinates:
// x / XRes and y / YRes.
func SurfacePixels(rec *SurfaceRecord, info *DatasetInfo) (xs, ys []float64) {
	xs = make([]float64, len(rec.X))
	ys = make([]float64, len(rec.Y))
	for i, x := range rec.X {
		xs[i] = x / info.XRes
	}
	for i, y := range rec.Y {
		ys[i] = y / info.YRes
	}
	return xs, ys
}
