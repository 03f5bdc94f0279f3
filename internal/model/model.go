// Package model defines the steady-state oracle contract and the reference
// chemostat oracle shipped with rockweather.
//
// An Oracle maps a (D, M) grid and the physical constants to four
// steady-state fields (iron, glucose, siderophore, cell density) and to the
// mixed partial derivative of siderophore productivity. Oracle output is
// checked against the grid shape before any downstream stage sees it.
package model

import (
	"context"
	"fmt"

	"github.com/san-kum/rockweather/internal/config"
	"github.com/san-kum/rockweather/internal/dynamo"
	"github.com/san-kum/rockweather/internal/grid"
	"gonum.org/v1/gonum/mat"
)

type Oracle interface {
	SteadyState(ctx context.Context, g *grid.Grid, p config.Params) (*Fields, error)
	MixedPartial(ctx context.Context, g *grid.Grid, p config.Params) (*mat.Dense, error)
}

// Fields are the steady-state concentrations at every grid point.
type Fields struct {
	Iron        *mat.Dense
	Glucose     *mat.Dense
	Siderophore *mat.Dense
	Cell        *mat.Dense
}

func (f *Fields) named() []struct {
	name string
	m    *mat.Dense
} {
	return []struct {
		name string
		m    *mat.Dense
	}{
		{"iron", f.Iron},
		{"glucose", f.Glucose},
		{"siderophore", f.Siderophore},
		{"cell", f.Cell},
	}
}

// CheckFields turns any shape disagreement between oracle output and the grid
// into an OracleFailureError.
func CheckFields(g *grid.Grid, f *Fields) error {
	if f == nil {
		return &dynamo.OracleFailureError{Row: -1, Col: -1, Reason: "no fields returned"}
	}
	for _, nf := range f.named() {
		if err := CheckField(g, nf.name, nf.m); err != nil {
			return err
		}
	}
	return nil
}

func CheckField(g *grid.Grid, name string, m *mat.Dense) error {
	if err := g.CheckShape(name, m); err != nil {
		return &dynamo.OracleFailureError{Row: -1, Col: -1, Reason: fmt.Sprintf("%s field", name), Wrapped: err}
	}
	return nil
}

// Evaluate runs both oracle calls and validates their output.
func Evaluate(ctx context.Context, o Oracle, g *grid.Grid, p config.Params) (*Fields, *mat.Dense, error) {
	fields, err := o.SteadyState(ctx, g, p)
	if err != nil {
		return nil, nil, fmt.Errorf("steady state: %w", err)
	}
	if err := CheckFields(g, fields); err != nil {
		return nil, nil, err
	}

	partial, err := o.MixedPartial(ctx, g, p)
	if err != nil {
		return nil, nil, fmt.Errorf("mixed partial: %w", err)
	}
	if err := CheckField(g, "mixed partial", partial); err != nil {
		return nil, nil, err
	}
	return fields, partial, nil
}
