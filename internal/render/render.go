// Package render draws maximum-intensity projections with object centroids
// overlaid, using gonum/plot.
package render

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrEmpty is returned when the projection has no pixels.
var ErrEmpty = errors.New("render: empty projection")

// Crop limits the displayed region, in pixel coordinates.
type Crop struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Options controls the figure.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	// Crop, when set, fixes the axis ranges.
	Crop *Crop
	// Colors is the number of palette steps of the heat map.
	Colors int
}

// DefaultOptions returns a 6x6 inch figure with a 256 step palette.
func DefaultOptions() Options {
	return Options{
		Width:  6 * vg.Inch,
		Height: 6 * vg.Inch,
		Colors: 256,
	}
}

// grid adapts a y-by-x matrix to plotter.GridXYZ. Columns are x.
type grid struct {
	m mat.Matrix
}

func (g grid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g grid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// Projection builds the plot of image m with the points (xs[i], ys[i]) drawn
// as red circles. The y axis grows downward, as in image coordinates.
func Projection(m mat.Matrix, xs, ys []float64, opts Options) (*plot.Plot, error) {
	if m == nil {
		return nil, ErrEmpty
	}
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return nil, ErrEmpty
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("render: %d x coordinates but %d y coordinates", len(xs), len(ys))
	}
	if opts.Colors < 2 {
		opts.Colors = 256
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	p.Add(heatMap(m, opts.Colors))

	if len(xs) > 0 {
		pts := make(plotter.XYs, len(xs))
		for i := range xs {
			pts[i].X = xs[i]
			pts[i].Y = ys[i]
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("render: centroids: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
	}

	if c := opts.Crop; c != nil {
		p.X.Min, p.X.Max = c.XMin, c.XMax
		p.Y.Min, p.Y.Max = c.YMin, c.YMax
	} else {
		p.X.Min, p.X.Max = -0.5, float64(cols)-0.5
		p.Y.Min, p.Y.Max = -0.5, float64(rows)-0.5
	}
	return p, nil
}

func heatMap(m mat.Matrix, colors int) *plotter.HeatMap {
	hm := plotter.NewHeatMap(grid{m}, palette.Heat(colors, 1))
	hm.Min, hm.Max = Range(m)
	if hm.Min == hm.Max {
		// a flat image still needs a non-empty color range
		hm.Max = hm.Min + 1
	}
	hm.Rasterized = true
	return hm
}

// Save renders the projection to file; the format follows the extension.
func Save(file string, m mat.Matrix, xs, ys []float64, opts Options) error {
	p, err := Projection(m, xs, ys, opts)
	if err != nil {
		return err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}
	if err := p.Save(opts.Width, opts.Height, file); err != nil {
		return fmt.Errorf("render: saving %s: %w", file, err)
	}
	return nil
}

// Range returns the smallest and largest value of m, or zeros for an empty
// matrix.
func Range(m mat.Matrix) (min, max float64) {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0
	}
	row := make([]float64, cols)
	for r := 0; r < rows; r++ {
		mat.Row(row, r, m)
		if r == 0 {
			min, max = floats.Min(row), floats.Max(row)
			continue
		}
		if v := floats.Min(row); v < min {
			min = v
		}
		if v := floats.Max(row); v > max {
			max = v
		}
	}
	return min, max
}
