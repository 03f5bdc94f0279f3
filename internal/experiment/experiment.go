// Package experiment wires the pipeline together: build the grid, evaluate
// the oracle, extract both boundary curves, then hand fixed figure specs to a
// renderer.
package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/rockweather/internal/boundary"
	"github.com/san-kum/rockweather/internal/config"
	"github.com/san-kum/rockweather/internal/grid"
	"github.com/san-kum/rockweather/internal/model"
	"github.com/san-kum/rockweather/internal/viz"
	"gonum.org/v1/gonum/mat"
)

type Experiment struct {
	cfg     *config.Config
	oracle  model.Oracle
	printer *viz.Printer
}

// Result holds everything derived from one grid evaluation. All fields are
// read-only once Run returns.
type Result struct {
	Grid    *grid.Grid
	Fields  *model.Fields
	Partial *mat.Dense
	Washout boundary.Curve
	Ridge   boundary.Curve
	Elapsed time.Duration
}

func New(cfg *config.Config, oracle model.Oracle) *Experiment {
	return &Experiment{cfg: cfg, oracle: oracle}
}

// SetPrinter directs progress messages to p; nil silences them.
func (e *Experiment) SetPrinter(p *viz.Printer) {
	e.printer = p
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.oracle == nil {
		return nil, fmt.Errorf("experiment has no oracle")
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	g, err := e.cfg.BuildGrid()
	if err != nil {
		return nil, err
	}

	rows, cols := g.Dims()
	e.printer.Step("Evaluating steady state at (%dx%d) inputs. This can take a few seconds...", rows, cols)
	start := time.Now()

	fields, partial, err := model.Evaluate(ctx, e.oracle, g, e.cfg.Params)
	if err != nil {
		return nil, err
	}

	washout, err := boundary.Washout(g, fields.Cell)
	if err != nil {
		return nil, fmt.Errorf("washout boundary: %w", err)
	}
	ridge, err := boundary.Ridge(g, partial, e.cfg.Params.MuMax)
	if err != nil {
		return nil, fmt.Errorf("ridge boundary: %w", err)
	}

	res := &Result{
		Grid:    g,
		Fields:  fields,
		Partial: partial,
		Washout: washout,
		Ridge:   ridge,
		Elapsed: time.Since(start),
	}
	e.printer.Done("evaluated in %v (washout %d points, ridge %d points)", res.Elapsed.Round(time.Millisecond), washout.Len(), ridge.Len())
	return res, nil
}
