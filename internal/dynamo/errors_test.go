package dynamo

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"invalid input", &InvalidInputError{Param: "gridsize", Reason: "must be positive"}, ErrInvalidInput},
		{"oracle", &OracleFailureError{Row: 1, Col: 2, D: 0.1, M: 0.2, Reason: "no root"}, ErrOracleFailure},
		{"domain", &DomainError{Op: "log10", Row: 0, Col: 3, Value: 0}, ErrDomain},
		{"io", &IOError{Path: "fig/a.png", Wrapped: os.ErrPermission}, ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("pipeline: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", wrapped, tt.sentinel)
			}
			if tt.err.Error() == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestIOError_UnwrapsCause(t *testing.T) {
	err := &IOError{Path: "fig", Wrapped: os.ErrPermission}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("IOError should unwrap to its cause")
	}

	bare := &IOError{Path: "fig"}
	if !errors.Is(bare, ErrIO) {
		t.Error("IOError without cause should still match ErrIO")
	}
}

func TestOracleFailureError_As(t *testing.T) {
	var err error = fmt.Errorf("eval: %w", &OracleFailureError{Row: -1, Col: -1, Reason: "shape mismatch"})

	var ofe *OracleFailureError
	if !errors.As(err, &ofe) {
		t.Fatal("errors.As failed")
	}
	if ofe.Error() != "oracle failure: shape mismatch" {
		t.Errorf("Error() = %q", ofe.Error())
	}
}
