package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/san-kum/rockweather/internal/dynamo"
)

const htmlPaletteStops = 9

// WriteHTMLReport renders every figure as an interactive heatmap on a single
// page at path.
func WriteHTMLReport(path string, figs []*Figure) error {
	page := components.NewPage()
	page.PageTitle = "rockweather"

	for _, fig := range figs {
		hm, err := heatmapChart(fig)
		if err != nil {
			return err
		}
		page.AddCharts(hm)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &dynamo.IOError{Path: path, Wrapped: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &dynamo.IOError{Path: path, Wrapped: err}
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return &dynamo.IOError{Path: path, Wrapped: err}
	}
	if err := f.Close(); err != nil {
		return &dynamo.IOError{Path: path, Wrapped: err}
	}
	return nil
}

func heatmapChart(fig *Figure) (*charts.HeatMap, error) {
	if err := fig.validate(); err != nil {
		return nil, err
	}
	min, max := scale(fig)
	stops, err := hexStops(fig.Palette, min, max)
	if err != nil {
		return nil, err
	}

	fg := fieldGrid{g: fig.Grid, f: fig.Field}
	cols, rows := fg.Dims()
	xs := make([]string, cols)
	for c := range xs {
		xs[c] = strconv.FormatFloat(fg.X(c), 'g', 4, 64)
	}
	ys := make([]string, rows)
	for r := range ys {
		ys[r] = strconv.FormatFloat(fg.Y(r), 'g', 4, 64)
	}

	data := make([]opts.HeatMapData, 0, cols*rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			var v interface{} = "-"
			if z := fg.Z(c, r); !math.IsNaN(z) && !math.IsInf(z, 0) {
				v = z
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, r, v}})
		}
	}

	subtitle := fig.Name
	for _, c := range fig.Curves {
		subtitle += fmt.Sprintf(" | %s: %d points", c.Data.Name, c.Data.Len())
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: fig.Title, Width: "900px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: fig.Title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: fig.XLabel, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys, Name: fig.YLabel, NameLocation: "middle", NameGap: 45}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(min),
			Max:        float32(max),
			InRange:    &opts.VisualMapInRange{Color: stops},
		}),
	)
	hm.SetXAxis(xs).AddSeries(fig.Name, data)
	return hm, nil
}

// hexStops samples the named colour map into CSS colours for echarts.
func hexStops(name string, min, max float64) ([]string, error) {
	cm, err := ColorMap(name, min, max)
	if err != nil {
		return nil, err
	}
	colors := cm.Palette(htmlPaletteStops).Colors()
	stops := make([]string, len(colors))
	for i, c := range colors {
		stops[i] = hex(c)
	}
	return stops, nil
}

func hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}
