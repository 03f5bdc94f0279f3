package experiment_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rockweather/internal/boundary"
	"github.com/san-kum/rockweather/internal/config"
	"github.com/san-kum/rockweather/internal/dynamo"
	"github.com/san-kum/rockweather/internal/experiment"
	"github.com/san-kum/rockweather/internal/grid"
	"github.com/san-kum/rockweather/internal/model"
	"github.com/san-kum/rockweather/internal/render"
	"github.com/san-kum/rockweather/internal/viz"
	"gonum.org/v1/gonum/mat"
)

// planeOracle returns closed-form fields: cells wash out where D >= 2M and
// the mixed partial peaks at the D sample nearest 0.4 in every row.
type planeOracle struct {
	err error
}

func (o *planeOracle) SteadyState(_ context.Context, g *grid.Grid, _ config.Params) (*model.Fields, error) {
	if o.err != nil {
		return nil, o.err
	}
	f := &model.Fields{Iron: g.NewField(), Glucose: g.NewField(), Siderophore: g.NewField(), Cell: g.NewField()}
	rows, cols := g.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d, m := g.At(i, j)
			f.Iron.Set(i, j, 1e-6+m)
			f.Glucose.Set(i, j, 0.5)
			f.Siderophore.Set(i, j, d*m)
			f.Cell.Set(i, j, m-0.5*d)
		}
	}
	return f, nil
}

func (o *planeOracle) MixedPartial(_ context.Context, g *grid.Grid, _ config.Params) (*mat.Dense, error) {
	p := g.NewField()
	rows, cols := g.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d, _ := g.At(i, j)
			p.Set(i, j, 1-(d-0.4)*(d-0.4))
		}
	}
	return p, nil
}

type recordingRenderer struct {
	figs   []*render.Figure
	failAt int
}

func (r *recordingRenderer) Render(fig *render.Figure) error {
	if r.failAt > 0 && len(r.figs)+1 == r.failAt {
		return &dynamo.IOError{Path: fig.Name}
	}
	r.figs = append(r.figs, fig)
	return nil
}

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Grid.Size = 5
	cfg.Grid.DMin, cfg.Grid.DMax = 0.2, 1.0
	cfg.Grid.MMin, cfg.Grid.MMax = 0.1, 0.5
	return cfg
}

var _ = Describe("Experiment", func() {
	var (
		cfg *config.Config
		exp *experiment.Experiment
		out *bytes.Buffer
	)

	BeforeEach(func() {
		cfg = smallConfig()
		exp = experiment.New(cfg, &planeOracle{})
		out = &bytes.Buffer{}
		exp.SetPrinter(viz.NewPrinter(out))
	})

	Describe("Run", func() {
		It("derives both boundary curves from the oracle output", func() {
			res, err := exp.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			rows, cols := res.Grid.Dims()
			Expect(rows).To(Equal(5))
			Expect(cols).To(Equal(5))

			wantWashout, err := boundary.Washout(res.Grid, res.Fields.Cell)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Washout).To(Equal(wantWashout))
			Expect(res.Washout.Len()).To(BeNumerically(">", 0))
			for _, p := range res.Washout.Points {
				Expect(p.D).To(BeNumerically(">=", 2*p.M))
			}

			Expect(res.Ridge.Points).To(HaveLen(5))
			for _, p := range res.Ridge.Points {
				Expect(p.D).To(BeNumerically("~", 0.4, 1e-12))
			}
			Expect(out.String()).To(ContainSubstring("Evaluating steady state at (5x5) inputs"))
		})

		It("rejects an invalid configuration", func() {
			cfg.Grid.Size = 0
			_, err := exp.Run(context.Background())
			Expect(err).To(MatchError(dynamo.ErrInvalidInput))
		})

		It("propagates oracle failures", func() {
			exp = experiment.New(cfg, &planeOracle{err: &dynamo.OracleFailureError{Row: 1, Col: 2, Reason: "no convergence"}})
			_, err := exp.Run(context.Background())
			Expect(err).To(MatchError(dynamo.ErrOracleFailure))
		})
	})

	Describe("RenderAll", func() {
		var res *experiment.Result

		BeforeEach(func() {
			var err error
			res, err = exp.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("renders the five figures in order", func() {
			r := &recordingRenderer{}
			figs, err := exp.RenderAll(res, r)
			Expect(err).NotTo(HaveOccurred())
			Expect(figs).To(HaveLen(5))

			names := make([]string, len(r.figs))
			for i, f := range r.figs {
				names[i] = f.Name
			}
			Expect(names).To(Equal([]string{
				"fig1efg_optimal_siderophore",
				"fig1efg_free_glucose",
				"fig1efg_cell",
				"fig1efg_free_iron",
				"dual-limitation",
			}))
			Expect(out.String()).To(ContainSubstring("PLOT: 1. Siderophore concentration"))
			Expect(out.String()).To(ContainSubstring("PLOT: 5. Dual limitation regimes"))
		})

		It("overlays the ridge and both labels only on the siderophore figure", func() {
			r := &recordingRenderer{}
			_, err := exp.RenderAll(res, r)
			Expect(err).NotTo(HaveOccurred())

			sid := r.figs[0]
			Expect(sid.Curves).To(HaveLen(2))
			Expect(sid.Curves[0].Data.Name).To(Equal("ridge"))
			Expect(sid.Curves[0].Alpha).To(Equal(0.5))
			Expect(sid.Annotations).To(HaveLen(2))
			Expect(sid.Annotations[0].Rotation).To(Equal(50.0))
			Expect(sid.Annotations[1].Text).To(Equal("Cell washout"))
			Expect(sid.Formats).To(Equal([]string{"png", "pdf"}))

			for _, f := range r.figs[1:] {
				Expect(f.Curves).To(HaveLen(1))
				Expect(f.Curves[0].Data.Name).To(Equal("washout"))
			}
		})

		It("pins colour scales where the published figures do", func() {
			r := &recordingRenderer{}
			_, err := exp.RenderAll(res, r)
			Expect(err).NotTo(HaveOccurred())

			cell := r.figs[2]
			Expect(*cell.Min).To(Equal(0.001))
			Expect(cell.Max).To(BeNil())

			dual := r.figs[4]
			Expect(dual.Palette).To(Equal("bwr_r"))
			Expect(*dual.Min).To(Equal(-2.0))
			Expect(*dual.Max).To(Equal(2.0))
			Expect(dual.Formats).To(Equal([]string{"png"}))
			Expect(dual.Annotations).To(BeEmpty())
			Expect(dual.XLabel).To(Equal("D"))
		})

		It("stops at the first renderer failure", func() {
			r := &recordingRenderer{failAt: 3}
			figs, err := exp.RenderAll(res, r)
			Expect(err).To(MatchError(dynamo.ErrIO))
			Expect(figs).To(HaveLen(2))
		})

		It("reports non-positive concentrations as domain errors", func() {
			res.Fields.Glucose.Set(0, 0, 0)
			_, err := experiment.Figures(cfg, res)
			Expect(err).To(MatchError(dynamo.ErrDomain))
		})
	})

	Describe("end to end with the chemostat oracle", func() {
		It("rejects a grid touching zero rock mass before evaluating", func() {
			cfg := config.GetPreset("preview")
			cfg.Grid.MMin = 0

			oracle, err := experiment.NewRegistry().GetOracle(cfg.Oracle, cfg)
			Expect(err).NotTo(HaveOccurred())

			_, err = experiment.New(cfg, oracle).Run(context.Background())
			Expect(err).To(MatchError(dynamo.ErrInvalidInput))
			Expect(err).NotTo(MatchError(dynamo.ErrOracleFailure))
		})

		It("writes every published file", func() {
			cfg := config.GetPreset("preview")
			cfg.Grid.Size = 8
			cfg.Output.Dir = filepath.Join(GinkgoT().TempDir(), "fig")

			reg := experiment.NewRegistry()
			oracle, err := reg.GetOracle(cfg.Oracle, cfg)
			Expect(err).NotTo(HaveOccurred())

			exp := experiment.New(cfg, oracle)
			res, err := exp.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Washout.Points).NotTo(BeEmpty())
			Expect(res.Ridge.Points).To(HaveLen(8))
			for _, pt := range res.Ridge.Points {
				Expect(pt.D).To(BeNumerically("<", cfg.Params.MuMax))
			}

			p := render.NewPlotter(cfg.Output.Dir, cfg.Output.DPI, 4, 4)
			_, err = exp.RenderAll(res, p)
			Expect(err).NotTo(HaveOccurred())

			for _, name := range []string{
				"fig1efg_optimal_siderophore.png", "fig1efg_optimal_siderophore.pdf",
				"fig1efg_free_glucose.png", "fig1efg_free_glucose.pdf",
				"fig1efg_cell.png", "fig1efg_cell.pdf",
				"fig1efg_free_iron.png", "fig1efg_free_iron.pdf",
				"dual-limitation.png",
			} {
				_, err := os.Stat(filepath.Join(cfg.Output.Dir, name))
				Expect(err).NotTo(HaveOccurred(), name)
			}
			_, err = os.Stat(filepath.Join(cfg.Output.Dir, "dual-limitation.pdf"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})
})

var _ = Describe("Registry", func() {
	It("lists the built-in oracles and integrators", func() {
		reg := experiment.NewRegistry()
		Expect(reg.ListOracles()).To(Equal([]string{"chemostat"}))
		Expect(reg.ListIntegrators()).To(Equal([]string{"euler", "rk4", "rk45"}))
	})

	It("rejects unknown names", func() {
		reg := experiment.NewRegistry()
		_, err := reg.GetOracle("nope", config.DefaultConfig())
		Expect(err).To(MatchError(dynamo.ErrInvalidInput))
		_, err = reg.GetIntegrator("verlet")
		Expect(err).To(MatchError(dynamo.ErrInvalidInput))
	})

	It("accepts registered oracles", func() {
		reg := experiment.NewRegistry()
		reg.RegisterOracle("plane", func(*config.Config) model.Oracle { return &planeOracle{} })
		o, err := reg.GetOracle("plane", config.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(o).NotTo(BeNil())
	})
})
