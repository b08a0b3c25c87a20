package fluxion

import (
	"errors"
	"fmt"
)

// Reduction failures. Every failure is detected during the symbolic
// tracing/reduction phase, before any numeric integration starts, and
// none of them is retryable: each means the posed problem cannot be
// brought into explicit first-order form as stated.
var (
	// ErrConfigMismatch reports incompatible registries or domains when
	// combining expression trees, or declared orders that do not match
	// the traced operator.
	ErrConfigMismatch = errors.New("fluxion: config mismatch")

	// ErrSingularLeadingCoefficient reports a leading coefficient that is
	// numerically zero somewhere on the admissible domain, or that
	// depends on the state itself.
	ErrSingularLeadingCoefficient = errors.New("fluxion: singular leading coefficient")

	// ErrUnderOrOverDeterminedConditions reports a condition set whose
	// size or targets do not match the eliminated derivatives.
	ErrUnderOrOverDeterminedConditions = errors.New("fluxion: under- or over-determined conditions")

	// ErrUnsupportedOperation reports an operation with no reduction
	// rule, such as a leading derivative nested inside a nonlinearity.
	ErrUnsupportedOperation = errors.New("fluxion: unsupported operation")
)

// Code identifies the failure class of an *Error.
type Code int

const (
	CodeConfigMismatch Code = iota + 1
	CodeSingularLeadingCoefficient
	CodeUnderOrOverDeterminedConditions
	CodeUnsupportedOperation
)

func (c Code) String() string {
	switch c {
	case CodeConfigMismatch:
		return "ConfigMismatch"
	case CodeSingularLeadingCoefficient:
		return "SingularLeadingCoefficient"
	case CodeUnderOrOverDeterminedConditions:
		return "UnderOrOverDeterminedConditions"
	case CodeUnsupportedOperation:
		return "UnsupportedOperation"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error carries the failure class together with the offending operation
// and base-variable identity for diagnosis.
type Error struct {
	Code   Code
	Op     string // operation being traced or rewritten, "" if not applicable
	Var    string // base variable involved, "" if not applicable
	Order  int    // derivative order involved, -1 if not applicable
	Detail string
}

func (e *Error) Error() string {
	msg := e.Code.String() + ": " + e.Detail
	if e.Op != "" {
		msg += fmt.Sprintf(" (op %s)", e.Op)
	}
	if e.Var != "" {
		if e.Order >= 0 {
			msg += fmt.Sprintf(" (variable %s, order %d)", e.Var, e.Order)
		} else {
			msg += fmt.Sprintf(" (variable %s)", e.Var)
		}
	}
	return "fluxion: " + msg
}

// Unwrap maps the error onto its sentinel so callers can use errors.Is.
func (e *Error) Unwrap() error {
	switch e.Code {
	case CodeConfigMismatch:
		return ErrConfigMismatch
	case CodeSingularLeadingCoefficient:
		return ErrSingularLeadingCoefficient
	case CodeUnderOrOverDeterminedConditions:
		return ErrUnderOrOverDeterminedConditions
	case CodeUnsupportedOperation:
		return ErrUnsupportedOperation
	default:
		return nil
	}
}

func newErrorf(code Code, op, varName string, order int, format string, args ...any) *Error {
	return &Error{
		Code:   code,
		Op:     op,
		Var:    varName,
		Order:  order,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Builder operations cannot return errors mid-expression, so taxonomy
// failures raised while tracing panic with an *Error; the orchestrator
// converts them back at the recover boundary.
func panicf(code Code, op, varName string, order int, format string, args ...any) {
	panic(newErrorf(code, op, varName, order, format, args...))
}

// recoverError rescues an *Error raised during tracing or rewriting.
// Any other panic value is re-raised untouched.
func recoverError(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(*Error); ok {
			*err = e
			return
		}
		panic(r)
	}
}
