// Package solver adapts an lp.Model to a numeric LP/MILP backend and reports
// the outcome through a four-valued status contract.
//
// Solve never returns a Go error and never panics on model input: every
// outcome, including backend failure and cancellation, is a Solution whose
// Status is one of Optimal, Infeasible, Unbounded or Error. Values is bound
// only when Status == Optimal.
//
// The default backend, Simplex, presolves single-variable rows into bounds,
// rewrites the remaining rows into equality standard form and runs
// gonum.org/v1/gonum/optimize/convex/lp.Simplex on the relaxation. Binary
// variables are handled by a depth-first branch-and-bound with deterministic
// branching, node and time limits and context cancellation.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/katalvlaran/reservoir/lp"
)

// Status is the outcome class of a solve.
type Status int

const (
	Optimal Status = iota
	Infeasible
	Unbounded
	Error
)

var statusNames = [...]string{"optimal", "infeasible", "unbounded", "error"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}

	return statusNames[s]
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range statusNames {
		if n == string(b) {
			*s = Status(i)
			return nil
		}
	}

	return fmt.Errorf("solver: unknown status %q", b)
}

// Solution is the immutable result of Solve.
type Solution struct {
	Status    Status
	Objective float64   // includes the objective constant; 0 unless Optimal
	Values    []float64 // one per model variable; nil unless Optimal
	Err       error     // cause for Error (and detail for Infeasible/Unbounded when known)
	Nodes     int       // relaxations solved
	Elapsed   time.Duration
}

// IsOptimal reports Status == Optimal.
func (s Solution) IsOptimal() bool { return s.Status == Optimal }

// IsInfeasible reports Status == Infeasible.
func (s Solution) IsInfeasible() bool { return s.Status == Infeasible }

// IsUnbounded reports Status == Unbounded.
func (s Solution) IsUnbounded() bool { return s.Status == Unbounded }

// Value returns the value of variable i, or 0 when no values are bound.
func (s Solution) Value(i int) float64 {
	if i < 0 || i >= len(s.Values) {
		return 0
	}

	return s.Values[i]
}

// Solver is the adapter contract.
type Solver interface {
	Solve(ctx context.Context, m *lp.Model) Solution
}

// Func adapts an ordinary function to Solver.
type Func func(ctx context.Context, m *lp.Model) Solution

// Solve calls f.
func (f Func) Solve(ctx context.Context, m *lp.Model) Solution { return f(ctx, m) }
