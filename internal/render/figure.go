// Package render draws evaluated fields as heatmaps with boundary curves and
// text annotations overlaid. Static figures go through gonum/plot (PNG, PDF)
// and an optional interactive report through go-echarts (HTML).
package render

import (
	"fmt"
	"image/color"

	"github.com/san-kum/rockweather/internal/boundary"
	"github.com/san-kum/rockweather/internal/dynamo"
	"github.com/san-kum/rockweather/internal/grid"
	"gonum.org/v1/gonum/mat"
)

// Supported output formats.
const (
	FormatPNG = "png"
	FormatPDF = "pdf"
)

var (
	White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	Red   = color.NRGBA{R: 255, A: 255}
)

// Figure is everything needed to draw one heatmap file set.
type Figure struct {
	Name   string
	Title  string
	XLabel string
	YLabel string

	Field *mat.Dense
	Grid  *grid.Grid

	Colorbar bool
	Palette  string
	// Min and Max pin the colour scale; nil takes the field's finite range.
	Min, Max *float64

	Curves      []Curve
	Annotations []Annotation

	// Formats lists output extensions in write order.
	Formats []string
	// DPI overrides the renderer's raster resolution when non-zero.
	DPI float64
}

// Curve is a boundary drawn over the heatmap.
type Curve struct {
	Data   boundary.Curve
	Color  color.Color
	Dashed bool
	// Alpha in (0, 1]; zero means opaque.
	Alpha float64
	// Width in points; zero uses the plot default.
	Width float64
}

// Annotation is a text label placed in data coordinates.
type Annotation struct {
	Text     string
	X, Y     float64
	Rotation float64 // degrees, counter-clockwise
	Color    color.Color
}

// Renderer writes a figure to persistent storage.
type Renderer interface {
	Render(fig *Figure) error
}

// Float returns a pointer to v, for Figure.Min and Figure.Max.
func Float(v float64) *float64 {
	return &v
}

func (f *Figure) validate() error {
	if f.Name == "" {
		return &dynamo.InvalidInputError{Param: "figure name", Reason: "empty"}
	}
	if f.Grid == nil {
		return &dynamo.InvalidInputError{Param: f.Name, Reason: "figure has no grid"}
	}
	if err := f.Grid.CheckShape(f.Name, f.Field); err != nil {
		return err
	}
	if f.Min != nil && f.Max != nil && !(*f.Max > *f.Min) {
		return &dynamo.InvalidInputError{Param: f.Name, Reason: fmt.Sprintf("colour range [%g, %g] is empty", *f.Min, *f.Max)}
	}
	if _, err := lookupPalette(f.Palette); err != nil {
		return err
	}
	for _, format := range f.Formats {
		if format != FormatPNG && format != FormatPDF {
			return &dynamo.InvalidInputError{Param: f.Name, Reason: "unsupported format " + format}
		}
	}
	return nil
}

// withAlpha scales the alpha channel of c by a.
func withAlpha(c color.Color, a float64) color.Color {
	if c == nil {
		c = color.Black
	}
	if a <= 0 || a >= 1 {
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(float64(n.A)*a + 0.5)
	return n
}
