package lp

import (
	"errors"
	"fmt"
)

var (
	// ErrVarIndex indicates a term, target or indicator referring to an undeclared variable.
	ErrVarIndex = errors.New("lp: variable index out of range")

	// ErrBounds indicates Lower > Upper, a NaN bound, or a binary with bounds outside [0, 1].
	ErrBounds = errors.New("lp: invalid variable bounds")

	// ErrNonFinite indicates a NaN or ±Inf coefficient or right-hand side.
	ErrNonFinite = errors.New("lp: NaN or Inf coefficient")

	// ErrIndicatorKind indicates a conditional constraint whose indicator is not binary.
	ErrIndicatorKind = errors.New("lp: indicator variable must be binary")

	// ErrInfeasiblePoint is returned by Feasible for an assignment violating the model.
	ErrInfeasiblePoint = errors.New("lp: assignment violates model")
)

// ViolationError reports the first bound or row an assignment breaks.
type ViolationError struct {
	Name   string  // variable or constraint name
	Amount float64 // positive violation magnitude
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%v: %s by %g", ErrInfeasiblePoint, e.Name, e.Amount)
}

func (e *ViolationError) Unwrap() error { return ErrInfeasiblePoint }
