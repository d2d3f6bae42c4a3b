package solver

import (
	"time"

	"github.com/go-logr/logr"
)

// Defaults.
const (
	// DefaultTolerance is the feasibility/integrality tolerance on scaled values.
	DefaultTolerance = 1e-7

	// DefaultNodeLimit bounds the number of relaxations in branch-and-bound.
	DefaultNodeLimit = 20000

	// DefaultPivotTolerance is passed to the simplex backend.
	DefaultPivotTolerance = 1e-10
)

// Options configures Simplex. Use NewSimplex with Option setters; the zero
// value is completed with defaults.
type Options struct {
	Tolerance      float64
	PivotTolerance float64
	NodeLimit      int
	TimeLimit      time.Duration // 0 = no limit
	Logger         logr.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithTolerance sets the feasibility/integrality tolerance. It panics on
// non-positive values.
func WithTolerance(tol float64) Option {
	if !(tol > 0) {
		panic("solver: WithTolerance requires tol > 0")
	}

	return func(o *Options) { o.Tolerance = tol }
}

// WithNodeLimit bounds branch-and-bound relaxations. It panics on n < 1.
func WithNodeLimit(n int) Option {
	if n < 1 {
		panic("solver: WithNodeLimit requires n >= 1")
	}

	return func(o *Options) { o.NodeLimit = n }
}

// WithTimeLimit bounds wall time of a single Solve (0 disables).
func WithTimeLimit(d time.Duration) Option {
	if d < 0 {
		panic("solver: WithTimeLimit requires d >= 0")
	}

	return func(o *Options) { o.TimeLimit = d }
}

// WithLogger attaches a logger; V(1) logs per-solve summaries, V(2) per node.
func WithLogger(l logr.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func defaultOptions() Options {
	return Options{
		Tolerance:      DefaultTolerance,
		PivotTolerance: DefaultPivotTolerance,
		NodeLimit:      DefaultNodeLimit,
		Logger:         logr.Discard(),
	}
}
