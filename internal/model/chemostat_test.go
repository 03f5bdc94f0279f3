package model

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rockweather/internal/config"
	"github.com/san-kum/rockweather/internal/dynamo"
	"github.com/san-kum/rockweather/internal/grid"
	"github.com/san-kum/rockweather/internal/integrators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestSolve_SteadyStateIsFixedPoint(t *testing.T) {
	p := config.DefaultParams()
	c := NewChemostat()

	for _, pt := range []struct{ d, m float64 }{
		{0.5, 0.5},
		{0.1, 1.0},
		{1.0, 0.8},
	} {
		s, err := c.Solve(pt.d, pt.m, p)
		require.NoError(t, err)
		require.False(t, s.Washout, "D=%g M=%g washed out", pt.d, pt.m)

		assert.Greater(t, s.Cell, 0.0)
		assert.Greater(t, s.Iron, 0.0)
		assert.Less(t, s.Glucose, p.G0)
		assert.InDelta(t, p.YSid*s.Cell, s.Siderophore, 1e-18)
		assert.Less(t, Residual(pt.d, pt.m, p, s), 1e-6, "D=%g M=%g", pt.d, pt.m)
	}
}

func TestSolve_Washout(t *testing.T) {
	p := config.DefaultParams()
	c := NewChemostat()

	tests := []struct {
		name string
		d, m float64
	}{
		{"dilution above max growth", 1.39, 0.5},
		{"too little rock", 0.8, 0.01},
		{"no rock", 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := c.Solve(tt.d, tt.m, p)
			require.NoError(t, err)
			assert.True(t, s.Washout)
			assert.Equal(t, 0.0, s.Cell)
			assert.Equal(t, 0.0, s.Siderophore)
			assert.Equal(t, p.G0, s.Glucose)
			assert.InDelta(t, p.R*tt.m/tt.d, s.Iron, 1e-18)
			assert.Less(t, Residual(tt.d, tt.m, p, s), 1e-9)
		})
	}
}

func TestSolve_InvalidPoint(t *testing.T) {
	c := NewChemostat()
	p := config.DefaultParams()

	for _, pt := range []struct{ d, m float64 }{
		{0, 0.5},
		{-0.1, 0.5},
		{0.5, -1},
		{math.NaN(), 0.5},
		{0.5, math.Inf(1)},
	} {
		_, err := c.Solve(pt.d, pt.m, p)
		assert.ErrorIs(t, err, dynamo.ErrOracleFailure, "D=%g M=%g", pt.d, pt.m)
	}
}

func TestSolve_MoreRockMoreCells(t *testing.T) {
	p := config.DefaultParams()
	c := NewChemostat()

	// iron-limited at D = 1: glucose is far from exhausted
	low, err := c.Solve(1.0, 0.05, p)
	require.NoError(t, err)
	high, err := c.Solve(1.0, 0.1, p)
	require.NoError(t, err)

	assert.Greater(t, high.Cell, low.Cell)
	assert.Greater(t, low.Glucose, 0.3)
}

func TestSolve_GlucoseBoundsBiomass(t *testing.T) {
	p := config.DefaultParams()

	s, err := NewChemostat().Solve(0.1, 1.0, p)
	require.NoError(t, err)
	assert.Greater(t, s.Cell, 0.7)
	assert.Less(t, s.Cell, p.G0/p.YGlc)
	assert.InDelta(t, p.G0-p.YGlc*s.Cell, s.Glucose, 1e-12)
}

func smallGrid(t *testing.T, size int) *grid.Grid {
	t.Helper()
	g, err := grid.New(grid.Interval{Min: 0.01, Max: 1.3}, grid.Interval{Min: 0.01, Max: 1}, size, grid.RowsAlongM)
	require.NoError(t, err)
	return g
}

func TestSteadyState_Fields(t *testing.T) {
	g := smallGrid(t, 6)
	c := NewChemostat()
	c.Workers = 3

	f, err := c.SteadyState(context.Background(), g, config.DefaultParams())
	require.NoError(t, err)
	require.NoError(t, CheckFields(g, f))

	rows, cols := g.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.GreaterOrEqual(t, f.Cell.At(i, j), 0.0)
			assert.Greater(t, f.Iron.At(i, j), 0.0)
		}
	}
	// D = 1.3 at M = 1 still supports growth; the corner with the least rock
	// and fastest dilution does not.
	assert.Greater(t, f.Cell.At(rows-1, cols-1), 0.0)
	assert.Equal(t, 0.0, f.Cell.At(0, cols-1))

	peak := mat.Max(f.Cell)
	assert.Greater(t, peak, 0.5)
	assert.Less(t, peak, config.DefaultG0/config.DefaultYGlc)
}

func TestSteadyState_MatchesSolve(t *testing.T) {
	g := smallGrid(t, 4)
	c := NewChemostat()
	p := config.DefaultParams()

	f, err := c.SteadyState(context.Background(), g, p)
	require.NoError(t, err)

	d, m := g.At(2, 1)
	s, err := c.Solve(d, m, p)
	require.NoError(t, err)
	assert.Equal(t, s.Cell, f.Cell.At(2, 1))
	assert.Equal(t, s.Glucose, f.Glucose.At(2, 1))
}

func TestSteadyState_LocatesFailure(t *testing.T) {
	g, err := grid.New(grid.Interval{Min: 0, Max: 1}, grid.Interval{Min: 0.1, Max: 1}, 3, grid.RowsAlongM)
	require.NoError(t, err)

	_, err = NewChemostat().SteadyState(context.Background(), g, config.DefaultParams())
	var ofe *dynamo.OracleFailureError
	require.ErrorAs(t, err, &ofe)
	assert.Equal(t, 0, ofe.Row)
	assert.Equal(t, 0, ofe.Col)
}

func TestSteadyState_InvalidParams(t *testing.T) {
	p := config.DefaultParams()
	p.MuMax = 0
	_, err := NewChemostat().SteadyState(context.Background(), smallGrid(t, 2), p)
	assert.ErrorIs(t, err, dynamo.ErrInvalidInput)
}

func TestSteadyState_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewChemostat().SteadyState(ctx, smallGrid(t, 3), config.DefaultParams())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMixedPartial(t *testing.T) {
	g := smallGrid(t, 5)
	c := NewChemostat()

	partial, err := c.MixedPartial(context.Background(), g, config.DefaultParams())
	require.NoError(t, err)
	require.NoError(t, CheckField(g, "mixed partial", partial))

	r, cc := partial.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < cc; j++ {
			assert.False(t, math.IsNaN(partial.At(i, j)))
		}
	}
}

func TestMixedPartial_RidgeShape(t *testing.T) {
	g := smallGrid(t, 12)
	partial, err := NewChemostat().MixedPartial(context.Background(), g, config.DefaultParams())
	require.NoError(t, err)

	// Every row peaks inside the plane or at its fast-dilution edge, and the
	// peak moves to faster dilution as rock mass grows.
	rows, cols := g.Dims()
	prev := -1
	interior := 0
	for i := 0; i < rows; i++ {
		row := grid.Row(partial, i)
		require.Greater(t, floats.Max(row), 0.0, "row %d", i)

		j := floats.MaxIdx(row)
		assert.GreaterOrEqual(t, j, prev, "row %d", i)
		if j < cols-1 {
			interior++
		}
		prev = j
	}
	assert.GreaterOrEqual(t, interior, 3)
}

func TestMixedPartial_StencilOutsideDomain(t *testing.T) {
	g, err := grid.New(grid.Interval{Min: 0.5, Max: 0.5}, grid.Interval{Min: 0, Max: 0}, 1, grid.RowsAlongM)
	require.NoError(t, err)

	_, err = NewChemostat().MixedPartial(context.Background(), g, config.DefaultParams())
	var ofe *dynamo.OracleFailureError
	require.ErrorAs(t, err, &ofe)
	assert.Contains(t, ofe.Reason, "stencil")
}

func TestChemostatSystem_SettlesOnSolve(t *testing.T) {
	p := config.DefaultParams()
	d, m := 1.0, 0.1

	want, err := NewChemostat().Solve(d, m, p)
	require.NoError(t, err)
	require.False(t, want.Washout)

	sys := NewChemostatSystem(d, m, p)
	res, err := dynamo.Settle(context.Background(), sys, integrators.NewRK45(), sys.Inoculum(1e-3), dynamo.DefaultSettleConfig())
	require.NoError(t, err)
	require.True(t, res.Converged, "residual %g", res.Residual)

	assert.InEpsilon(t, want.Cell, res.Final[CellIdx], 1e-4)
	assert.InEpsilon(t, want.Glucose, res.Final[GlucoseIdx], 1e-4)
	assert.InEpsilon(t, want.Iron, res.Final[IronIdx], 1e-4)
	for i, v := range res.Final {
		assert.GreaterOrEqual(t, v, 0.0, "component %d", i)
	}
}

type shortOracle struct{}

func (shortOracle) SteadyState(_ context.Context, _ *grid.Grid, _ config.Params) (*Fields, error) {
	m := mat.NewDense(1, 1, []float64{1})
	return &Fields{Iron: m, Glucose: m, Siderophore: m, Cell: m}, nil
}

func (shortOracle) MixedPartial(_ context.Context, _ *grid.Grid, _ config.Params) (*mat.Dense, error) {
	return mat.NewDense(1, 1, nil), nil
}

func TestEvaluate_ShapeMismatch(t *testing.T) {
	_, _, err := Evaluate(context.Background(), shortOracle{}, smallGrid(t, 3), config.DefaultParams())
	assert.ErrorIs(t, err, dynamo.ErrOracleFailure)
	assert.ErrorIs(t, err, dynamo.ErrInvalidInput)
}

func TestCheckFields_Nil(t *testing.T) {
	assert.ErrorIs(t, CheckFields(smallGrid(t, 2), nil), dynamo.ErrOracleFailure)
}
