// Package boundary derives curves on the (D, M) plane from evaluated fields.
//
// Both extractors walk the grid row by row in storage order and take at most
// one point per row: the first column satisfying the row's condition. The
// resulting curve is therefore a single-valued function of the row axis
// (M for grid.RowsAlongM, D for grid.RowsAlongD). Rows without a match are
// skipped, never padded.
package boundary

import (
	"github.com/san-kum/rockweather/internal/grid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// WashoutThreshold is the cell density at or below which the culture is
// considered washed out.
const WashoutThreshold = 0.0

type Point struct {
	D, M float64
}

type Curve struct {
	Name   string
	Points []Point
}

func (c Curve) Len() int { return len(c.Points) }

// XY returns the i-th point as (D, M); it satisfies plotter.XYer.
func (c Curve) XY(i int) (float64, float64) {
	return c.Points[i].D, c.Points[i].M
}

// Washout returns, for each row, the first point whose cell density is at or
// below WashoutThreshold.
func Washout(g *grid.Grid, cell *mat.Dense) (Curve, error) {
	if err := g.CheckShape("cell density", cell); err != nil {
		return Curve{}, err
	}

	curve := Curve{Name: "washout"}
	rows, cols := g.Dims()
	for i := 0; i < rows; i++ {
		row := grid.Row(cell, i)
		for j := 0; j < cols; j++ {
			if row[j] <= WashoutThreshold {
				d, m := g.At(i, j)
				curve.Points = append(curve.Points, Point{D: d, M: m})
				break
			}
		}
	}
	return curve, nil
}

// Ridge returns, for each row whose maximum is positive, the first point
// attaining that maximum, provided its D lies strictly below muMax.
//
// The comparison against the row maximum is exact. When the maximum is
// attained in several columns only the first is ever considered, and a
// rejected first candidate does not fall through to later ones.
func Ridge(g *grid.Grid, partial *mat.Dense, muMax float64) (Curve, error) {
	if err := g.CheckShape("mixed partial", partial); err != nil {
		return Curve{}, err
	}

	curve := Curve{Name: "ridge"}
	rows, cols := g.Dims()
	for i := 0; i < rows; i++ {
		row := grid.Row(partial, i)
		max := floats.Max(row)
		if !(max > 0) {
			continue
		}
		for j := 0; j < cols; j++ {
			if row[j] != max {
				continue
			}
			d, m := g.At(i, j)
			if d < muMax {
				curve.Points = append(curve.Points, Point{D: d, M: m})
			}
			break
		}
	}
	return curve, nil
}
