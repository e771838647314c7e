package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-ims/hdf5"
	"github.com/robert-malhotra/go-ims/ims"
	"github.com/robert-malhotra/go-ims/internal/config"
)

type env struct {
	cfg *config.Config
	log *log.Logger
	out io.Writer
}

// parse parses fs and returns its single positional argument, the file.
func (e *env) parse(fs *flag.FlagSet, args []string) (string, error) {
	fs.SetOutput(e.out)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return "", errUsage
		}
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(e.out, "%s: expected one .ims file, got %d arguments\n", fs.Name(), fs.NArg())
		fs.Usage()
		return "", errUsage
	}
	return fs.Arg(0), nil
}

func (e *env) open(path string) (*ims.Reader, error) {
	return ims.Open(path, ims.WithLogger(e.log))
}

type channelSummary struct {
	Index int    `yaml:"index"`
	Shape []int  `yaml:"shape,flow"`
	DType string `yaml:"dtype"`
	Size  string `yaml:"size"`
}

type infoReport struct {
	File     string           `yaml:"file"`
	Surfaces int              `yaml:"surfaces"`
	Points   int              `yaml:"points"`
	Info     *ims.DatasetInfo `yaml:"info"`
	Data     []channelSummary `yaml:"data,omitempty"`
}

func (e *env) info(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	withData := fs.Bool("data", false, "Also load every channel and report its reconciled shape")
	path, err := e.parse(fs, args)
	if err != nil {
		return err
	}

	r, err := e.open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.LoadInfo(); err != nil {
		return err
	}
	rep := infoReport{
		File:     path,
		Surfaces: r.SurfaceCount(),
		Points:   r.PointCount(),
		Info:     r.Info(),
	}
	if *withData {
		for ch := 0; ch < r.Info().NCh; ch++ {
			v, err := r.LoadChannel(ch)
			if err != nil {
				return err
			}
			s := v.Shape()
			rep.Data = append(rep.Data, channelSummary{
				Index: ch,
				Shape: s[:],
				DType: v.DType(),
				Size:  humanize.IBytes(uint64(v.SizeBytes())),
			})
		}
	}

	enc := yaml.NewEncoder(e.out)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

func (e *env) tree(args []string) error {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	attrs := fs.Bool("attrs", false, "Print attribute values")
	root := fs.String("root", "/", "Group to start from")
	path, err := e.parse(fs, args)
	if err != nil {
		return err
	}

	f, err := hdf5.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	g, err := f.OpenGroup(*root)
	if err != nil {
		return err
	}
	return hdf5.Walk(g, func(en hdf5.Entry) error {
		indent := strings.Repeat("  ", en.Depth)
		switch {
		case en.Err != nil:
			fmt.Fprintf(e.out, "%s%s  ERROR %v\n", indent, filepath.Base(en.Path), en.Err)
			return nil
		case en.Group != nil:
			fmt.Fprintf(e.out, "%s%s/\n", indent, en.Group.Name())
		default:
			ds := en.Dataset
			fmt.Fprintf(e.out, "%s%s  %v %s", indent, ds.Name(), ds.Shape(), dtypeName(ds))
			if n := ds.NumElements(); n > 0 {
				fmt.Fprintf(e.out, "  (%s)", humanize.IBytes(n*uint64(ds.DtypeSize())))
			}
			fmt.Fprintln(e.out)
		}
		if *attrs {
			for _, a := range en.Attrs() {
				fmt.Fprintf(e.out, "%s  @%s = %s\n", indent, a.Name(), attrText(a))
			}
		}
		return nil
	})
}

func dtypeName(ds *hdf5.Dataset) string {
	t, err := ds.GoType()
	if err != nil {
		return ds.DtypeClass()
	}
	return t.String()
}

// attrText renders an attribute, joining Imaris byte-per-element strings.
func attrText(a *hdf5.Attribute) string {
	if parts, err := a.ReadBytes(); err == nil {
		if s, err := ims.DecodeBytes(parts); err == nil {
			return strconv.Quote(s)
		}
	}
	v, err := a.Value()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return fmt.Sprint(v)
}

func bounds(v []float64) string {
	if len(v) == 0 {
		return "-"
	}
	return fmt.Sprintf("[%.4g, %.4g]", floats.Min(v), floats.Max(v))
}

func (e *env) surfaces(args []string) error {
	fs := flag.NewFlagSet("surfaces", flag.ContinueOnError)
	path, err := e.parse(fs, args)
	if err != nil {
		return err
	}

	r, err := e.open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Fprintf(e.out, "%d surface collections\n", r.SurfaceCount())
	for i := 0; i < r.SurfaceCount(); i++ {
		s, err := r.LoadSurface(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "surface %d: %d objects on channel %d  x %s  y %s  z %s\n",
			i, s.Len(), s.Ch, bounds(s.X), bounds(s.Y), bounds(s.Z))
	}
	return nil
}

func (e *env) points(args []string) error {
	fs := flag.NewFlagSet("points", flag.ContinueOnError)
	path, err := e.parse(fs, args)
	if err != nil {
		return err
	}

	r, err := e.open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Fprintf(e.out, "%d point collections\n", r.PointCount())
	for i := 0; i < r.PointCount(); i++ {
		p, err := r.LoadPoints(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "points %d: %d points", i, p.Len())
		if p.XYZR != nil {
			_, cols := p.XYZR.Dims()
			for c, name := range []string{"x", "y", "z", "r"} {
				if c >= cols {
					break
				}
				fmt.Fprintf(e.out, "  %s %s", name, bounds(mat.Col(nil, c, p.XYZR)))
			}
		}
		fmt.Fprintln(e.out)
	}
	return nil
}

func (e *env) export(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	base := fs.String("out", "", "Output base name (default: the input name without extension)")
	ext := fs.String("ext", e.cfg.Export.Ext, "Output extension; only .tif is written")
	mip := fs.Bool("mip", false, "Also write each channel's max projection as <base>_ch<i>_mip.tif")
	path, err := e.parse(fs, args)
	if err != nil {
		return err
	}
	if *base == "" {
		*base = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	*base = e.cfg.ExportBase(*base)

	r, err := e.open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.LoadInfo(); err != nil {
		return err
	}
	written, err := r.SaveImageData(*base, *ext)
	for _, w := range written {
		fmt.Fprintln(e.out, w)
	}
	if err != nil {
		return err
	}

	if *mip {
		for ch := 0; ch < r.Info().NCh; ch++ {
			v, err := r.LoadChannel(ch)
			if err != nil {
				return err
			}
			out := fmt.Sprintf("%s_ch%d_mip%s", *base, ch, ims.StackExt)
			if err := ims.WriteProjectionTIFF(out, ims.MaxProjection(v)); err != nil {
				return err
			}
			fmt.Fprintln(e.out, out)
		}
	}
	return nil
}

// parseCrop parses "xmin,xmax,ymin,ymax".
func parseCrop(s string) (*ims.Crop, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("crop %q: want xmin,xmax,ymin,ymax", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("crop %q: %w", s, err)
		}
		v[i] = f
	}
	if v[0] >= v[1] || v[2] >= v[3] {
		return nil, fmt.Errorf("crop %q: empty range", s)
	}
	return &ims.Crop{XMin: v[0], XMax: v[1], YMin: v[2], YMax: v[3]}, nil
}

func (e *env) plot(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	ch := fs.Int("channel", 0, "Channel to project")
	surf := fs.Int("surface", 0, "Surface collection whose centroids are drawn")
	out := fs.String("out", "projection.png", "Output image; the extension selects the format")
	crop := fs.String("crop", "", "Axis ranges in pixels: xmin,xmax,ymin,ymax")
	path, err := e.parse(fs, args)
	if err != nil {
		return err
	}
	c, err := parseCrop(*crop)
	if err != nil {
		return err
	}

	r, err := e.open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.LoadInfo(); err != nil {
		return err
	}
	if _, err := r.LoadSurface(*surf); err != nil {
		return err
	}

	opts := ims.DefaultPlotOptions()
	opts.Width = vg.Length(e.cfg.Plot.Width) * vg.Inch
	opts.Height = vg.Length(e.cfg.Plot.Height) * vg.Inch
	opts.Colors = e.cfg.Plot.Colors
	opts.Crop = c
	if err := r.PlotSurfaceProjection(*ch, *surf, *out, opts); err != nil {
		return err
	}
	fmt.Fprintln(e.out, *out)
	return nil
}
