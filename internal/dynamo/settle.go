package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Settle integrates dyn from x0 until the relative derivative norm falls below
// cfg.Converged or cfg.Duration elapses. Reaching the duration without
// converging is not an error; callers inspect Result.Converged.
func Settle(ctx context.Context, dyn System, integ Integrator, x0 State, cfg SettleConfig) (*Result, error) {
	if err := validateSettle(dyn, x0, cfg); err != nil {
		return nil, err
	}

	result := &Result{}
	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	if cfg.Record {
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}

	adaptive, isAdaptive := integ.(AdaptiveIntegrator)

	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if t+dt > cfg.Duration {
			dt = cfg.Duration - t
		}

		var newX State
		nextDt := dt
		if isAdaptive {
			var err error
			newX, nextDt, err = adaptive.StepAdaptive(dyn, x, t, dt, cfg.Tolerance)
			if errors.Is(err, ErrStepRejected) {
				if dt <= cfg.MinDt {
					return result, fmt.Errorf("t=%.4f: step rejected at minimum dt %g: %w", t, cfg.MinDt, ErrUnstable)
				}
				result.Rejected++
				dt = math.Max(nextDt, cfg.MinDt)
				continue
			}
			if err != nil {
				return result, err
			}
		} else {
			newX = integ.Step(dyn, x, t, dt)
		}

		if !newX.IsValid() {
			return result, fmt.Errorf("step %d (t=%.4f): %w", result.StepsTaken, t, ErrUnstable)
		}

		x = newX
		t += dt
		result.StepsTaken++

		if cfg.Record {
			result.States = append(result.States, x.Clone())
			result.Times = append(result.Times, t)
		}

		result.Residual = x.RelNorm(dyn.Derive(x, t), cfg.Tolerance)
		if result.Residual < cfg.Converged {
			result.Converged = true
			break
		}

		dt = math.Min(math.Max(nextDt, cfg.MinDt), cfg.MaxDt)
	}

	result.Final = x
	return result, nil
}

func validateSettle(dyn System, x0 State, cfg SettleConfig) error {
	if len(x0) != dyn.StateDim() {
		return &InvalidInputError{Param: "initial state", Reason: fmt.Sprintf("dimension %d, system expects %d", len(x0), dyn.StateDim())}
	}
	if cfg.Dt <= 0 {
		return &InvalidInputError{Param: "dt", Reason: fmt.Sprintf("must be positive, got %g", cfg.Dt)}
	}
	if cfg.Duration <= 0 {
		return &InvalidInputError{Param: "duration", Reason: fmt.Sprintf("must be positive, got %g", cfg.Duration)}
	}
	if cfg.Tolerance <= 0 {
		return &InvalidInputError{Param: "tolerance", Reason: "must be positive"}
	}
	if cfg.MaxDt < cfg.MinDt {
		return &InvalidInputError{Param: "max dt", Reason: "smaller than min dt"}
	}
	return nil
}
