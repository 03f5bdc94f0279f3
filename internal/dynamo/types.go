package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// RelNorm is the max-norm of d scaled component-wise by |s| + floor.
func (s State) RelNorm(d State, floor float64) float64 {
	worst := 0.0
	for i := range s {
		if i >= len(d) {
			break
		}
		r := math.Abs(d[i]) / (math.Abs(s[i]) + floor)
		if r > worst {
			worst = r
		}
	}
	return worst
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous ODE dX/dt = f(X, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// NonNegativeSystem is a System whose state components are concentrations.
// Adaptive integrators reject steps that drive any of them below zero.
type NonNegativeSystem interface {
	System
	NonNegative() bool
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt, tol float64) (State, float64, error)
}

// SettleConfig controls integration toward a fixed point.
type SettleConfig struct {
	Dt        float64
	Duration  float64
	Tolerance float64
	MinDt     float64
	MaxDt     float64
	// Converged is the relative derivative norm below which the state is
	// considered steady.
	Converged float64
	// Record keeps every accepted state in the result when true.
	Record bool
}

func DefaultSettleConfig() SettleConfig {
	return SettleConfig{
		Dt:        1e-3,
		Duration:  500,
		Tolerance: 1e-8,
		MinDt:     1e-10,
		MaxDt:     1.0,
		Converged: 1e-9,
		Record:    true,
	}
}

type Result struct {
	States     []State
	Times      []float64
	Final      State
	Residual   float64
	Converged  bool
	StepsTaken int
	Rejected   int
}
