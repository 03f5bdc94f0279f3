package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rockweather/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

const (
	km1 = 1e-6
	km2 = 1e-2
)

func TestDualLimitation_HalfSaturation(t *testing.T) {
	iron := mat.NewDense(1, 1, []float64{km1})
	glucose := mat.NewDense(1, 1, []float64{km2})

	got, err := DualLimitation(iron, glucose, km1, km2)
	if err != nil {
		t.Fatalf("DualLimitation() error = %v", err)
	}

	// 0.5 / 0.5 = 1, log10(1) = 0
	if v := got.At(0, 0); math.Abs(v) > 1e-15 {
		t.Errorf("DualLimitation() = %g, want 0", v)
	}
}

func TestDualLimitation_Sign(t *testing.T) {
	tests := []struct {
		name       string
		fe, glc    float64
		wantPosLog bool
	}{
		{"iron replete, glucose starved", 1e-3, 1e-5, true},
		{"iron starved, glucose replete", 1e-9, 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DualLimitation(mat.NewDense(1, 1, []float64{tt.fe}), mat.NewDense(1, 1, []float64{tt.glc}), km1, km2)
			if err != nil {
				t.Fatal(err)
			}
			if (got.At(0, 0) > 0) != tt.wantPosLog {
				t.Errorf("DualLimitation() = %g, want positive=%v", got.At(0, 0), tt.wantPosLog)
			}
		})
	}
}

func TestDualLimitation_DomainError(t *testing.T) {
	tests := []struct {
		name       string
		iron, gluc []float64
		row, col   int
	}{
		{"zero glucose", []float64{1e-6, 1e-6}, []float64{1e-2, 0}, 0, 1},
		{"negative iron", []float64{-1e-6, 1e-6}, []float64{1e-2, 1e-2}, 0, 0},
		{"NaN glucose", []float64{1e-6, 1e-6}, []float64{math.NaN(), 1e-2}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DualLimitation(mat.NewDense(1, 2, tt.iron), mat.NewDense(1, 2, tt.gluc), km1, km2)
			if !errors.Is(err, dynamo.ErrDomain) {
				t.Fatalf("DualLimitation() error = %v, want ErrDomain", err)
			}
			var de *dynamo.DomainError
			if !errors.As(err, &de) {
				t.Fatal("expected *dynamo.DomainError")
			}
			if de.Row != tt.row || de.Col != tt.col {
				t.Errorf("DomainError at [%d,%d], want [%d,%d]", de.Row, de.Col, tt.row, tt.col)
			}
		})
	}
}

func TestDualLimitation_ShapeMismatch(t *testing.T) {
	_, err := DualLimitation(mat.NewDense(2, 2, nil), mat.NewDense(2, 3, nil), km1, km2)
	if !errors.Is(err, dynamo.ErrInvalidInput) {
		t.Errorf("DualLimitation() error = %v, want ErrInvalidInput", err)
	}
}

func TestLog10(t *testing.T) {
	f := mat.NewDense(2, 2, []float64{1, 10, 1e-3, 100})
	orig := mat.DenseCopyOf(f)

	got, err := Log10(f)
	if err != nil {
		t.Fatalf("Log10() error = %v", err)
	}

	want := mat.NewDense(2, 2, []float64{0, 1, -3, 2})
	if !mat.EqualApprox(got, want, 1e-12) {
		t.Errorf("Log10() = %v, want %v", mat.Formatted(got), mat.Formatted(want))
	}
	if !mat.Equal(f, orig) {
		t.Error("Log10 modified its input")
	}

	_, err = Log10(mat.NewDense(1, 2, []float64{1, 0}))
	if !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("Log10(0) error = %v, want ErrDomain", err)
	}
}

func TestRange(t *testing.T) {
	f := mat.NewDense(2, 3, []float64{3, math.NaN(), -2, math.Inf(1), 7, 0})

	min, max, ok := Range(f)
	if !ok || min != -2 || max != 7 {
		t.Errorf("Range() = (%v, %v, %v), want (-2, 7, true)", min, max, ok)
	}

	_, _, ok = Range(mat.NewDense(1, 1, []float64{math.NaN()}))
	if ok {
		t.Error("Range() of all-NaN field reported ok")
	}
}
