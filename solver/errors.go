package solver

import (
	"errors"
	"fmt"
)

// Stepping failures. Unlike reduction errors these can depend on the
// trajectory, so they surface mid-integration wrapped in a StepError.
var (
	// ErrConfig indicates an unusable integration setup.
	ErrConfig = errors.New("solver: invalid configuration")

	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("solver: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive step fell below the minimum.
	ErrStepTooSmall = errors.New("solver: adaptive step below minimum")

	// ErrMaxSteps indicates the step budget ran out before the end time.
	ErrMaxSteps = errors.New("solver: step budget exhausted")

	// ErrCanceled indicates the integration was interrupted.
	ErrCanceled = errors.New("solver: integration canceled by context")
)

// StepError wraps an error with the step it happened in.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%v (step %d, t=%g)", e.Wrapped, e.Step, e.Time)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

func stepErr(step int, t float64, err error) error {
	return &StepError{Step: step, Time: t, Wrapped: err}
}
