// Package dynamo provides the core primitives shared by the rockweather
// pipeline.
//
// The package defines:
//
//   - [State]: vector representing a model state
//   - [System]: interface for autonomous ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical stepper interface
//   - [Settle]: integrate a system until it reaches a fixed point
//   - [ParallelFor]: chunked fan-out over independent grid points
//
// # Errors
//
// Every stage reports failures with one of four kinds, each matching a
// sentinel through errors.Is:
//
//   - [InvalidInputError] / [ErrInvalidInput]: malformed grid or parameters
//   - [OracleFailureError] / [ErrOracleFailure]: the model could not be evaluated
//   - [DomainError] / [ErrDomain]: a transform left its domain (log of zero)
//   - [IOError] / [ErrIO]: output could not be persisted
//
// None of them are recovered locally; the batch job aborts on the first one.
//
// # Example
//
//	integ := integrators.NewRK45()
//	res, err := dynamo.Settle(ctx, sys, integ, x0, dynamo.DefaultSettleConfig())
//	if err == nil && res.Converged {
//	    fmt.Println(res.Final)
//	}
package dynamo
