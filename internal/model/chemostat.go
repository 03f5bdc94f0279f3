package model

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rockweather/internal/config"
	"github.com/san-kum/rockweather/internal/dynamo"
	"github.com/san-kum/rockweather/internal/grid"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const maxBisect = 200

// Steady is the chemostat steady state at a single (D, M) point.
type Steady struct {
	Iron        float64
	Glucose     float64
	Siderophore float64
	Cell        float64
	Washout     bool
}

// State returns s in ChemostatSystem layout.
func (s Steady) State() dynamo.State {
	x := make(dynamo.State, 4)
	x[IronIdx] = s.Iron
	x[GlucoseIdx] = s.Glucose
	x[SiderophoreIdx] = s.Siderophore
	x[CellIdx] = s.Cell
	return x
}

// Productivity is the siderophore output rate D·S.
func (s Steady) Productivity(d float64) float64 {
	return d * s.Siderophore
}

// Chemostat is the reference Oracle. It solves the algebraic steady state of
// ChemostatSystem at every grid point.
//
// At a non-trivial steady state mu = D, which fixes F as a function of the
// remaining glucose and S = Y_sid·X. Substituting into the iron balance leaves
// one equation in X that is bracketed by a logarithmic scan and refined by
// bisection. When several roots exist the one with the largest biomass is
// reported.
type Chemostat struct {
	ScanPoints int
	FDStep     float64
	Workers    int
}

func NewChemostat() *Chemostat {
	return &Chemostat{
		ScanPoints: config.DefaultScanPoints,
		FDStep:     config.DefaultFDStep,
		Workers:    1,
	}
}

// NewChemostatFromConfig takes solver settings from cfg.
func NewChemostatFromConfig(cfg *config.Config) *Chemostat {
	return &Chemostat{
		ScanPoints: cfg.Solver.ScanPoints,
		FDStep:     cfg.Solver.FDStep,
		Workers:    cfg.EffectiveWorkers(),
	}
}

// Solve returns the steady state at one point.
func (c *Chemostat) Solve(d, m float64, p config.Params) (Steady, error) {
	if !(d > 0) || math.IsInf(d, 0) {
		return Steady{}, &dynamo.OracleFailureError{Row: -1, Col: -1, D: d, M: m, Reason: fmt.Sprintf("dilution rate %g outside model domain", d)}
	}
	if !(m >= 0) || math.IsInf(m, 0) {
		return Steady{}, &dynamo.OracleFailureError{Row: -1, Col: -1, D: d, M: m, Reason: fmt.Sprintf("rock mass %g outside model domain", m)}
	}

	washout := Steady{
		Iron:    p.R * m / d,
		Glucose: p.G0,
		Washout: true,
	}

	// Even unlimited iron cannot sustain growth at this dilution rate.
	if d >= p.MuMax*p.G0/(p.Km2+p.G0) {
		return washout, nil
	}

	gMin := d * p.Km2 / (p.MuMax - d)
	xMax := (p.G0 - gMin) / p.YGlc
	if !(xMax > 0) {
		return washout, nil
	}

	n := c.ScanPoints
	if n < 2 {
		n = config.DefaultScanPoints
	}
	xs := make([]float64, n+1)
	floats.LogSpan(xs[1:], xMax*1e-15, xMax)

	h := func(x float64) float64 { return c.ironBalance(x, d, m, p) }

	lo, hi := -1.0, -1.0
	prev := h(xs[n])
	for k := n - 1; k >= 0; k-- {
		cur := h(xs[k])
		if cur > 0 && prev <= 0 {
			lo, hi = xs[k], xs[k+1]
			break
		}
		prev = cur
	}
	if lo < 0 {
		return washout, nil
	}

	for i := 0; i < maxBisect; i++ {
		mid := lo + (hi-lo)/2
		if mid == lo || mid == hi {
			break
		}
		if h(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	x := lo
	if x <= 0 {
		return washout, nil
	}
	glc := p.G0 - p.YGlc*x
	fe := c.ironAt(glc, d, p)
	s := Steady{
		Iron:        fe,
		Glucose:     glc,
		Siderophore: p.YSid * x,
		Cell:        x,
	}
	if !s.State().IsValid() {
		return Steady{}, &dynamo.OracleFailureError{Row: -1, Col: -1, D: d, M: m, Reason: "steady state is not finite"}
	}
	return s, nil
}

// ironAt is the free iron that makes mu equal d at glucose level glc.
func (c *Chemostat) ironAt(glc, d float64, p config.Params) float64 {
	if glc <= 0 {
		return math.Inf(1)
	}
	r := d / (p.MuMax * glc / (p.Km2 + glc))
	if r >= 1 {
		return math.Inf(1)
	}
	return p.Km1 * r / (1 - r)
}

// ironBalance is dF/dt evaluated on the mu = D manifold at biomass x.
func (c *Chemostat) ironBalance(x, d, m float64, p config.Params) float64 {
	fe := c.ironAt(p.G0-p.YGlc*x, d, p)
	if math.IsInf(fe, 1) {
		return math.Inf(-1)
	}
	s := p.YSid * x
	return p.R*m*(1+s/(p.K+s)) - d*fe - d*p.YFe*x
}

func (c *Chemostat) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

// pointwise evaluates fn at every grid point, one row per work item.
func (c *Chemostat) pointwise(ctx context.Context, g *grid.Grid, fn func(i, j int, d, m float64) error) error {
	rows, cols := g.Dims()
	return dynamo.ParallelForErr(rows, 1, c.workers(), func(start, end int) error {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			for j := 0; j < cols; j++ {
				d, m := g.At(i, j)
				if err := fn(i, j, d, m); err != nil {
					var ofe *dynamo.OracleFailureError
					if errors.As(err, &ofe) {
						ofe.Row, ofe.Col = i, j
						return ofe
					}
					return &dynamo.OracleFailureError{Row: i, Col: j, D: d, M: m, Wrapped: err}
				}
			}
		}
		return nil
	})
}

func (c *Chemostat) SteadyState(ctx context.Context, g *grid.Grid, p config.Params) (*Fields, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	f := &Fields{
		Iron:        g.NewField(),
		Glucose:     g.NewField(),
		Siderophore: g.NewField(),
		Cell:        g.NewField(),
	}
	err := c.pointwise(ctx, g, func(i, j int, d, m float64) error {
		s, err := c.Solve(d, m, p)
		if err != nil {
			return err
		}
		f.Iron.Set(i, j, s.Iron)
		f.Glucose.Set(i, j, s.Glucose)
		f.Siderophore.Set(i, j, s.Siderophore)
		f.Cell.Set(i, j, s.Cell)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// MixedPartial estimates ∂²(D·S)/∂D∂M with a central-difference stencil of
// width FDStep around every grid point.
func (c *Chemostat) MixedPartial(ctx context.Context, g *grid.Grid, p config.Params) (*mat.Dense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !(c.FDStep > 0) {
		return nil, &dynamo.InvalidInputError{Param: "solver.fd_step", Reason: "must be positive"}
	}

	out := g.NewField()
	settings := &fd.Settings{Formula: fd.Central, Step: c.FDStep}
	err := c.pointwise(ctx, g, func(i, j int, d, m float64) error {
		productivity := func(x []float64) float64 {
			s, err := c.Solve(x[0], x[1], p)
			if err != nil {
				return math.NaN()
			}
			return s.Productivity(x[0])
		}

		var hess mat.SymDense
		fd.Hessian(&hess, productivity, []float64{d, m}, settings)
		v := hess.At(0, 1)
		if math.IsNaN(v) {
			return &dynamo.OracleFailureError{D: d, M: m, Reason: "finite-difference stencil left the model domain"}
		}
		out.Set(i, j, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Residual is the relative norm of the time derivative at s, a measure of how
// far s is from a true fixed point of ChemostatSystem.
func Residual(d, m float64, p config.Params, s Steady) float64 {
	sys := NewChemostatSystem(d, m, p)
	x := s.State()
	return x.RelNorm(sys.Derive(x, 0), 1e-300)
}
