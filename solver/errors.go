package solver

import "errors"

// Causes carried in Solution.Err. Solve never returns them as Go errors.
var (
	// ErrNilModel is reported when Solve receives a nil model.
	ErrNilModel = errors.New("solver: nil model")

	// ErrFreeVariable is reported for a variable with an infinite lower bound.
	ErrFreeVariable = errors.New("solver: free variables are not supported")

	// ErrShape is reported when the standard form has more rows than columns.
	ErrShape = errors.New("solver: standard form has more rows than columns")

	// ErrNodeLimit is reported when branch-and-bound exhausts its node budget.
	ErrNodeLimit = errors.New("solver: node limit reached")

	// ErrTimeLimit is reported when branch-and-bound exceeds its time budget.
	ErrTimeLimit = errors.New("solver: time limit reached")

	// ErrBackend wraps a recovered backend panic or an unclassified backend error.
	ErrBackend = errors.New("solver: backend failure")
)
