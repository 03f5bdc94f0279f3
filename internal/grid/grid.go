// Package grid builds the (D, M) sample grid the model is evaluated on.
//
// A Grid stores two gonum matrices of identical shape holding the dilution
// rate and rock mass at every point. Which physical axis runs along matrix
// rows is explicit in the grid's Orientation rather than implied by loop
// order, so boundary scans and renderers read it from the grid.
package grid

import (
	"fmt"
	"math"

	"github.com/san-kum/rockweather/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Orientation fixes which physical axis is constant along a matrix row.
type Orientation int

const (
	// RowsAlongM holds one M-sample per row; D varies across columns.
	// This matches meshgrid(D, M).
	RowsAlongM Orientation = iota
	// RowsAlongD holds one D-sample per row; M varies across columns.
	RowsAlongD
)

func (o Orientation) String() string {
	switch o {
	case RowsAlongM:
		return "rows-along-m"
	case RowsAlongD:
		return "rows-along-d"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// ParseOrientation accepts the String form of an Orientation. The empty string
// selects RowsAlongM.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "", "rows-along-m":
		return RowsAlongM, nil
	case "rows-along-d":
		return RowsAlongD, nil
	}
	return 0, &dynamo.InvalidInputError{Param: "orientation", Reason: fmt.Sprintf("unknown value %q", s)}
}

// Interval is a closed range [Min, Max].
type Interval struct {
	Min, Max float64
}

func (iv Interval) validate(name string) error {
	if math.IsNaN(iv.Min) || math.IsNaN(iv.Max) || math.IsInf(iv.Min, 0) || math.IsInf(iv.Max, 0) {
		return &dynamo.InvalidInputError{Param: name, Reason: "bounds must be finite"}
	}
	if iv.Min > iv.Max {
		return &dynamo.InvalidInputError{Param: name, Reason: fmt.Sprintf("empty interval [%g, %g]", iv.Min, iv.Max)}
	}
	return nil
}

// Samples returns n evenly spaced points covering the interval, endpoints
// included. A single sample sits at Min.
func (iv Interval) Samples(n int) []float64 {
	if n == 1 {
		return []float64{iv.Min}
	}
	s := floats.Span(make([]float64, n), iv.Min, iv.Max)
	s[0], s[n-1] = iv.Min, iv.Max
	return s
}

type Grid struct {
	D, M        *mat.Dense
	Orientation Orientation

	// DSamples and MSamples are the ordered 1-D sequences the grid was built
	// from.
	DSamples []float64
	MSamples []float64
}

// New builds a size×size grid over dRange × mRange. Every pairing of a
// D-sample with an M-sample appears exactly once.
func New(dRange, mRange Interval, size int, o Orientation) (*Grid, error) {
	if size <= 0 {
		return nil, &dynamo.InvalidInputError{Param: "gridsize", Reason: fmt.Sprintf("must be positive, got %d", size)}
	}
	if err := dRange.validate("D interval"); err != nil {
		return nil, err
	}
	if err := mRange.validate("M interval"); err != nil {
		return nil, err
	}
	if o != RowsAlongM && o != RowsAlongD {
		return nil, &dynamo.InvalidInputError{Param: "orientation", Reason: o.String()}
	}

	ds := dRange.Samples(size)
	ms := mRange.Samples(size)

	d := mat.NewDense(size, size, nil)
	m := mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if o == RowsAlongM {
				d.Set(i, j, ds[j])
				m.Set(i, j, ms[i])
			} else {
				d.Set(i, j, ds[i])
				m.Set(i, j, ms[j])
			}
		}
	}

	return &Grid{D: d, M: m, Orientation: o, DSamples: ds, MSamples: ms}, nil
}

// Dims returns the shared shape of D and M.
func (g *Grid) Dims() (rows, cols int) {
	return g.D.Dims()
}

// At returns the (D, M) coordinate at matrix position (i, j).
func (g *Grid) At(i, j int) (d, m float64) {
	return g.D.At(i, j), g.M.At(i, j)
}

// NewField allocates a zeroed matrix with the grid's shape.
func (g *Grid) NewField() *mat.Dense {
	r, c := g.Dims()
	return mat.NewDense(r, c, nil)
}

// CheckShape reports an InvalidInputError when f does not match the grid.
func (g *Grid) CheckShape(name string, f *mat.Dense) error {
	if f == nil {
		return &dynamo.InvalidInputError{Param: name, Reason: "field is nil"}
	}
	gr, gc := g.Dims()
	fr, fc := f.Dims()
	if gr != fr || gc != fc {
		return &dynamo.InvalidInputError{Param: name, Reason: fmt.Sprintf("shape %dx%d does not match grid %dx%d", fr, fc, gr, gc)}
	}
	return nil
}

// Row returns a view of row i of f. Callers must not modify it.
func Row(f *mat.Dense, i int) []float64 {
	return f.RawRowView(i)
}
