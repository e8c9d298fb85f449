package ai

import (
	"errors"
	"fmt"
)

// ContractErrorKind distinguishes the ways model output can violate the
// expected shape.
type ContractErrorKind string

const (
	ParseError    ContractErrorKind = "parse_error"
	ShapeError    ContractErrorKind = "shape_error"
	EmptyResponse ContractErrorKind = "empty_response"
)

// ContractError is surfaced after the malformed-output retry budget is spent.
// It is deliberately distinct from GenerationError so callers and tests can
// tell "the model replied but wrong shape" apart from "the call failed".
type ContractError struct {
	Kind   ContractErrorKind
	Detail string
}

func (e *ContractError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("contract violation: %s", e.Kind)
	}
	return fmt.Sprintf("contract violation: %s: %s", e.Kind, e.Detail)
}

// GenerationError is surfaced by the resilient completion client. Fatal marks
// faults where retrying cannot help (auth failures); non-fatal means the
// transient retry budget was exhausted.
type GenerationError struct {
	Fatal    bool
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	kind := "transient"
	if e.Fatal {
		kind = "fatal"
	}
	return fmt.Sprintf("generation failed (%s) after %d attempt(s): %v", kind, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsFatalGeneration reports whether err is a non-retryable generation failure.
func IsFatalGeneration(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge) && ge.Fatal
}

// IsTransientGeneration reports whether err is an exhausted-retries generation
// failure.
func IsTransientGeneration(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge) && !ge.Fatal
}

// AsContractError unwraps err into a ContractError if it is one.
func AsContractError(err error) (*ContractError, bool) {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
