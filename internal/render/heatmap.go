package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/san-kum/rockweather/internal/analysis"
	"github.com/san-kum/rockweather/internal/dynamo"
	"github.com/san-kum/rockweather/internal/grid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
)

const (
	paletteSize   = 256
	colorbarShare = 0.15
)

// Plotter renders figures to Dir with gonum/plot.
type Plotter struct {
	Dir    string
	DPI    float64
	Width  float64 // inches
	Height float64 // inches
}

func NewPlotter(dir string, dpi, width, height float64) *Plotter {
	return &Plotter{Dir: dir, DPI: dpi, Width: width, Height: height}
}

// fieldGrid adapts a field to plotter.GridXYZ with D on the x axis and M on
// the y axis, whatever the grid orientation.
type fieldGrid struct {
	g *grid.Grid
	f *mat.Dense
}

func (fg fieldGrid) Dims() (c, r int) {
	return len(fg.g.DSamples), len(fg.g.MSamples)
}

func (fg fieldGrid) Z(c, r int) float64 {
	if fg.g.Orientation == grid.RowsAlongD {
		return fg.f.At(c, r)
	}
	return fg.f.At(r, c)
}

func (fg fieldGrid) X(c int) float64 { return fg.g.DSamples[c] }
func (fg fieldGrid) Y(r int) float64 { return fg.g.MSamples[r] }

// scale resolves the colour range of fig. A pinned bound is kept as given;
// when the data fall entirely on its far side only the free bound moves, so
// those values are drawn in the end colour.
func scale(fig *Figure) (min, max float64) {
	lo, hi, ok := analysis.Range(fig.Field)
	if !ok {
		lo, hi = 0, 1
	}
	if fig.Min != nil {
		lo = *fig.Min
	}
	if fig.Max != nil {
		hi = *fig.Max
	}
	if hi > lo {
		return lo, hi
	}

	switch {
	case fig.Min != nil:
		hi = lo + widen(lo)
	case fig.Max != nil:
		lo = hi - widen(hi)
	default:
		pad := widen(lo)
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}

func widen(v float64) float64 {
	return math.Max(math.Abs(v)*0.5, 0.5)
}

// heatMap builds the field layer and its colour map. Values outside the
// colour range take the end colours.
func heatMap(fig *Figure) (*plotter.HeatMap, palette.ColorMap, error) {
	min, max := scale(fig)
	cm, err := ColorMap(fig.Palette, min, max)
	if err != nil {
		return nil, nil, err
	}
	pal := cm.Palette(paletteSize)
	colors := pal.Colors()

	hm := plotter.NewHeatMap(fieldGrid{g: fig.Grid, f: fig.Field}, pal)
	hm.Min, hm.Max = min, max
	hm.Underflow = colors[0]
	hm.Overflow = colors[len(colors)-1]
	return hm, cm, nil
}

// Plot assembles the heatmap panel and, when requested, the colour bar.
func (p *Plotter) Plot(fig *Figure) (main, bar *plot.Plot, err error) {
	if err := fig.validate(); err != nil {
		return nil, nil, err
	}

	hm, cm, err := heatMap(fig)
	if err != nil {
		return nil, nil, err
	}

	main = plot.New()
	main.Title.Text = fig.Title
	main.X.Label.Text = fig.XLabel
	main.Y.Label.Text = fig.YLabel

	main.Add(hm)

	for _, c := range fig.Curves {
		if c.Data.Len() == 0 {
			continue
		}
		line, err := plotter.NewLine(c.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s curve %s: %w", fig.Name, c.Data.Name, err)
		}
		line.Color = withAlpha(c.Color, c.Alpha)
		if c.Width > 0 {
			line.Width = vg.Points(c.Width)
		}
		if c.Dashed {
			line.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		}
		main.Add(line)
	}

	if len(fig.Annotations) > 0 {
		xys := make(plotter.XYs, len(fig.Annotations))
		texts := make([]string, len(fig.Annotations))
		for i, a := range fig.Annotations {
			xys[i] = plotter.XY{X: a.X, Y: a.Y}
			texts[i] = a.Text
		}
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
		if err != nil {
			return nil, nil, fmt.Errorf("%s labels: %w", fig.Name, err)
		}
		for i, a := range fig.Annotations {
			if a.Color != nil {
				labels.TextStyle[i].Color = a.Color
			}
			labels.TextStyle[i].Rotation = a.Rotation * math.Pi / 180
		}
		main.Add(labels)
	}

	ds, ms := fig.Grid.DSamples, fig.Grid.MSamples
	main.X.Min, main.X.Max = ds[0], ds[len(ds)-1]
	main.Y.Min, main.Y.Max = ms[0], ms[len(ms)-1]

	if fig.Colorbar {
		bar = plot.New()
		bar.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true, Colors: paletteSize})
		bar.HideX()
		bar.Title.Text = " "
	}
	return main, bar, nil
}

// Render writes <Dir>/<Name>.<format> for each of fig.Formats.
func (p *Plotter) Render(fig *Figure) error {
	main, bar, err := p.Plot(fig)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return &dynamo.IOError{Path: p.Dir, Wrapped: err}
	}

	dpi := p.DPI
	if fig.DPI > 0 {
		dpi = fig.DPI
	}
	w, h := vg.Length(p.Width)*vg.Inch, vg.Length(p.Height)*vg.Inch

	for _, format := range fig.Formats {
		path := filepath.Join(p.Dir, fig.Name+"."+format)
		if err := p.write(path, format, w, h, dpi, main, bar); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plotter) write(path, format string, w, h vg.Length, dpi float64, main, bar *plot.Plot) error {
	var (
		dc  draw.Canvas
		out io.WriterTo
	)
	switch format {
	case FormatPNG:
		c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(int(dpi)))
		dc = draw.New(c)
		out = vgimg.PngCanvas{Canvas: c}
	case FormatPDF:
		c := vgpdf.New(w, h)
		dc = draw.New(c)
		out = c
	default:
		return &dynamo.InvalidInputError{Param: "format", Reason: format}
	}

	if bar == nil {
		main.Draw(dc)
	} else {
		split := w * (1 - colorbarShare)
		main.Draw(draw.Crop(dc, 0, split-w, 0, 0))
		bar.Draw(draw.Crop(dc, split, 0, 0, 0))
	}

	f, err := os.Create(path)
	if err != nil {
		return &dynamo.IOError{Path: path, Wrapped: err}
	}
	if _, err := out.WriteTo(f); err != nil {
		f.Close()
		return &dynamo.IOError{Path: path, Wrapped: err}
	}
	if err := f.Close(); err != nil {
		return &dynamo.IOError{Path: path, Wrapped: err}
	}
	return nil
}
