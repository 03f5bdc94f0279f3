package experiment

import (
	"fmt"

	"github.com/san-kum/rockweather/internal/analysis"
	"github.com/san-kum/rockweather/internal/config"
	"github.com/san-kum/rockweather/internal/render"
	"gonum.org/v1/gonum/mat"
)

const (
	axisD = "D (hr-1)"
	axisM = "M (g)"

	ridgeLabel   = "(∂²P/∂D∂M)max"
	washoutLabel = "Cell washout"
)

var both = []string{render.FormatPNG, render.FormatPDF}

// FigureSpec builds one output figure from an evaluated grid.
type FigureSpec struct {
	Name  string
	Title string
	Build func(cfg *config.Config, res *Result) (*render.Figure, error)
}

// Catalogue is the fixed figure set, in render order.
var Catalogue = []FigureSpec{
	{Name: "fig1efg_optimal_siderophore", Title: "Siderophore concentration", Build: siderophoreFigure},
	{Name: "fig1efg_free_glucose", Title: "Free glucose concentrations", Build: glucoseFigure},
	{Name: "fig1efg_cell", Title: "Cell density", Build: cellFigure},
	{Name: "fig1efg_free_iron", Title: "Free iron concentrations", Build: ironFigure},
	{Name: "dual-limitation", Title: "Dual limitation regimes", Build: dualLimitationFigure},
}

func washoutCurve(res *Result) render.Curve {
	return render.Curve{Data: res.Washout, Color: render.Red, Dashed: true}
}

func washoutAnnotation() render.Annotation {
	return render.Annotation{Text: washoutLabel, X: 0.9, Y: 0.1, Rotation: 45, Color: render.Red}
}

func heatmap(name, title string, field *mat.Dense, res *Result) *render.Figure {
	return &render.Figure{
		Name:     name,
		Title:    title,
		XLabel:   axisD,
		YLabel:   axisM,
		Field:    field,
		Grid:     res.Grid,
		Colorbar: true,
		Formats:  both,
	}
}

func siderophoreFigure(_ *config.Config, res *Result) (*render.Figure, error) {
	fig := heatmap("fig1efg_optimal_siderophore", "Optimal siderophore production", res.Fields.Siderophore, res)
	fig.Curves = []render.Curve{
		{Data: res.Ridge, Color: render.White, Dashed: true, Alpha: 0.5, Width: 2},
		washoutCurve(res),
	}
	fig.Annotations = []render.Annotation{
		{Text: ridgeLabel, X: 0.8, Y: 0.35, Rotation: 50, Color: render.White},
		washoutAnnotation(),
	}
	return fig, nil
}

func glucoseFigure(_ *config.Config, res *Result) (*render.Figure, error) {
	logGlc, err := analysis.Log10(res.Fields.Glucose)
	if err != nil {
		return nil, fmt.Errorf("log10 glucose: %w", err)
	}
	fig := heatmap("fig1efg_free_glucose", "Log10(Glucose concentration)", logGlc, res)
	fig.Curves = []render.Curve{washoutCurve(res)}
	fig.Annotations = []render.Annotation{washoutAnnotation()}
	fig.Formats = []string{render.FormatPDF, render.FormatPNG}
	return fig, nil
}

func cellFigure(_ *config.Config, res *Result) (*render.Figure, error) {
	fig := heatmap("fig1efg_cell", "Cell density", res.Fields.Cell, res)
	fig.Min = render.Float(0.001)
	fig.Curves = []render.Curve{washoutCurve(res)}
	fig.Annotations = []render.Annotation{washoutAnnotation()}
	fig.Formats = []string{render.FormatPDF, render.FormatPNG}
	return fig, nil
}

func ironFigure(_ *config.Config, res *Result) (*render.Figure, error) {
	logFe, err := analysis.Log10(res.Fields.Iron)
	if err != nil {
		return nil, fmt.Errorf("log10 iron: %w", err)
	}
	fig := heatmap("fig1efg_free_iron", "Log10(Iron concentration)", logFe, res)
	fig.Curves = []render.Curve{washoutCurve(res)}
	fig.Annotations = []render.Annotation{washoutAnnotation()}
	fig.Formats = []string{render.FormatPDF, render.FormatPNG}
	return fig, nil
}

func dualLimitationFigure(cfg *config.Config, res *Result) (*render.Figure, error) {
	ratio, err := analysis.DualLimitation(res.Fields.Iron, res.Fields.Glucose, cfg.Params.Km1, cfg.Params.Km2)
	if err != nil {
		return nil, fmt.Errorf("dual limitation: %w", err)
	}
	fig := heatmap("dual-limitation", "(fe/(p_K_m1 + fe))/(glc/(p_K_m2 + glc))", ratio, res)
	fig.XLabel, fig.YLabel = "D", "M"
	fig.Palette = "bwr_r"
	fig.Min, fig.Max = render.Float(-2), render.Float(2)
	fig.Curves = []render.Curve{washoutCurve(res)}
	fig.Formats = []string{render.FormatPNG}
	fig.DPI = 100
	return fig, nil
}

// Figures builds every catalogue entry without rendering.
func Figures(cfg *config.Config, res *Result) ([]*render.Figure, error) {
	figs := make([]*render.Figure, 0, len(Catalogue))
	for _, spec := range Catalogue {
		fig, err := spec.Build(cfg, res)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Name, err)
		}
		figs = append(figs, fig)
	}
	return figs, nil
}

// RenderAll builds and renders the catalogue in order, announcing each figure
// before it is drawn. The first failure stops the run; earlier figures stay
// on disk.
func (e *Experiment) RenderAll(res *Result, r render.Renderer) ([]*render.Figure, error) {
	figs := make([]*render.Figure, 0, len(Catalogue))
	for i, spec := range Catalogue {
		e.printer.Step("PLOT: %d. %s", i+1, spec.Title)
		fig, err := spec.Build(e.cfg, res)
		if err != nil {
			return figs, fmt.Errorf("%s: %w", spec.Name, err)
		}
		if err := r.Render(fig); err != nil {
			return figs, fmt.Errorf("render %s: %w", spec.Name, err)
		}
		figs = append(figs, fig)
	}
	return figs, nil
}
