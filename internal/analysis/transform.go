package analysis

import (
	"math"

	"github.com/san-kum/rockweather/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Log10 returns the elementwise base-10 logarithm of f.
func Log10(f *mat.Dense) (*mat.Dense, error) {
	if i, j, v, ok := firstNonPositive(f); ok {
		return nil, &dynamo.DomainError{Op: "log10", Row: i, Col: j, Value: v}
	}

	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return math.Log10(v) }, f)
	return &out, nil
}

// DualLimitation returns log10((F/(km1+F)) / (G/(km2+G))) for iron F and
// glucose G. Positive values mark points where glucose saturation is the
// tighter constraint, negative values where iron is.
func DualLimitation(iron, glucose *mat.Dense, km1, km2 float64) (*mat.Dense, error) {
	ir, ic := iron.Dims()
	gr, gc := glucose.Dims()
	if ir != gr || ic != gc {
		return nil, &dynamo.InvalidInputError{Param: "glucose", Reason: "shape does not match iron field"}
	}
	if i, j, v, ok := firstNonPositive(iron); ok {
		return nil, &dynamo.DomainError{Op: "dual limitation (iron)", Row: i, Col: j, Value: v}
	}
	if i, j, v, ok := firstNonPositive(glucose); ok {
		return nil, &dynamo.DomainError{Op: "dual limitation (glucose)", Row: i, Col: j, Value: v}
	}

	out := mat.NewDense(ir, ic, nil)
	for i := 0; i < ir; i++ {
		for j := 0; j < ic; j++ {
			fe := iron.At(i, j)
			glc := glucose.At(i, j)
			ratio := (fe / (km1 + fe)) / (glc / (km2 + glc))
			out.Set(i, j, math.Log10(ratio))
		}
	}
	return out, nil
}

// Range returns the smallest and largest finite values of f. ok is false when
// f holds no finite value.
func Range(f mat.Matrix) (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	r, c := f.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := f.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			min = math.Min(min, v)
			max = math.Max(max, v)
			ok = true
		}
	}
	return min, max, ok
}

func firstNonPositive(f *mat.Dense) (row, col int, v float64, ok bool) {
	r, c := f.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := f.At(i, j)
			if !(v > 0) {
				return i, j, v, true
			}
		}
	}
	return 0, 0, 0, false
}
