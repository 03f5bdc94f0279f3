package dynamo

import (
	"errors"
	"fmt"
)

// Error kinds shared by every stage of the pipeline.
var (
	// ErrInvalidInput indicates malformed grid or configuration parameters.
	ErrInvalidInput = errors.New("dynamo: invalid input")

	// ErrOracleFailure indicates the model oracle could not produce a steady state
	// or returned fields inconsistent with the grid.
	ErrOracleFailure = errors.New("dynamo: model oracle failure")

	// ErrDomain indicates a pointwise transform hit an undefined value.
	ErrDomain = errors.New("dynamo: value outside function domain")

	// ErrIO indicates an output file or directory could not be written.
	ErrIO = errors.New("dynamo: output failure")

	// ErrUnstable indicates time integration diverged.
	ErrUnstable = errors.New("dynamo: integration unstable (state diverged)")

	// ErrStepRejected is returned by adaptive integrators when a step misses
	// its error budget; retry with the suggested step size.
	ErrStepRejected = errors.New("dynamo: adaptive step rejected")
)

// InvalidInputError names the offending parameter.
type InvalidInputError struct {
	Param  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// OracleFailureError locates an oracle failure on the grid. Row and Col are -1
// when the failure is not tied to a single point.
type OracleFailureError struct {
	Row, Col int
	D, M     float64
	Reason   string
	Wrapped  error
}

func (e *OracleFailureError) Error() string {
	msg := "oracle failure"
	if e.Row >= 0 && e.Col >= 0 {
		msg = fmt.Sprintf("oracle failure at [%d,%d] (D=%g, M=%g)", e.Row, e.Col, e.D, e.M)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *OracleFailureError) Unwrap() []error {
	if e.Wrapped == nil {
		return []error{ErrOracleFailure}
	}
	return []error{ErrOracleFailure, e.Wrapped}
}

// DomainError reports the first grid cell where a transform is undefined.
type DomainError struct {
	Op       string
	Row, Col int
	Value    float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s undefined at [%d,%d] for value %g", e.Op, e.Row, e.Col, e.Value)
}

func (e *DomainError) Unwrap() error {
	return ErrDomain
}

// IOError wraps a filesystem failure with the path involved.
type IOError struct {
	Path    string
	Wrapped error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Wrapped)
}

func (e *IOError) Unwrap() []error {
	if e.Wrapped == nil {
		return []error{ErrIO}
	}
	return []error{ErrIO, e.Wrapped}
}
