package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rockweather/internal/boundary"
)

// SeriesPlot draws a single series with asciigraph.
func SeriesPlot(data []float64, caption string, width, height int) string {
	if len(data) == 0 {
		return Subtle.Render("(no data: " + caption + ")")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// CurveSeries draws the D coordinate of each curve point in row order, so a
// curve over M reads as D(M).
func CurveSeries(c boundary.Curve, width, height int) string {
	ds := make([]float64, c.Len())
	for i, p := range c.Points {
		ds[i] = p.D
	}
	return SeriesPlot(ds, fmt.Sprintf("%s: D by row (%d points)", c.Name, c.Len()), width, height)
}

// CurveMap sketches curves on the (D, M) plane with Braille dots, joining
// consecutive points. Each curve is styled by name.
func CurveMap(curves []boundary.Curve, v Viewport, width, height int) string {
	var b strings.Builder
	for _, c := range curves {
		canvas := NewCanvas(width, height)
		var px, py int
		for i, p := range c.Points {
			x, y := v.Pixel(canvas, p.D, p.M)
			if i == 0 {
				canvas.Set(x, y)
			} else {
				canvas.DrawLine(px, py, x, y)
			}
			px, py = x, y
		}

		style := Subtle
		switch c.Name {
		case "washout":
			style = WashoutStyle
		case "ridge":
			style = RidgeStyle
		}
		b.WriteString(Title.Render(c.Name) + "\n")
		b.WriteString(style.Render(strings.TrimRight(canvas.String(), "\n")) + "\n")
	}
	b.WriteString(Subtle.Render(fmt.Sprintf("D [%g, %g] →  M [%g, %g] ↑", v.XMin, v.XMax, v.YMin, v.YMax)))
	return b.String()
}
