package solver

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/reservoir/lp"
)

// integrality tolerance on binary values in a relaxation.
const intTol = 1e-6

// Simplex is the default Solver: gonum simplex on the relaxation plus
// depth-first branch-and-bound over binary variables. A Simplex is stateless
// between calls and safe for concurrent use.
type Simplex struct {
	opts Options
}

// NewSimplex returns a Simplex configured by opts.
func NewSimplex(opts ...Option) *Simplex {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Simplex{opts: o}
}

// Solve implements Solver.
func (s *Simplex) Solve(ctx context.Context, m *lp.Model) Solution {
	start := time.Now()
	sol := s.solve(ctx, m)
	sol.Elapsed = time.Since(start)

	if m != nil {
		s.opts.Logger.V(1).Info("solve finished",
			"model", m.Name(), "status", sol.Status.String(), "objective", sol.Objective,
			"nodes", sol.Nodes, "elapsed", sol.Elapsed)
	}

	return sol
}

func (s *Simplex) solve(ctx context.Context, m *lp.Model) Solution {
	if m == nil {
		return Solution{Status: Error, Err: ErrNilModel}
	}
	if err := ctx.Err(); err != nil {
		return Solution{Status: Error, Err: err}
	}

	p, err := newProblem(m, s.opts)
	if err != nil {
		return Solution{Status: Error, Err: err}
	}

	e := bbEngine{
		p:         p,
		ctx:       ctx,
		log:       s.opts.Logger.WithName("bb"),
		bins:      m.Binaries(),
		nodeLimit: s.opts.NodeLimit,
		bestVal:   math.Inf(1),
	}
	if s.opts.TimeLimit > 0 {
		e.useDeadline = true
		e.deadline = time.Now().Add(s.opts.TimeLimit)
	}

	lo, hi := p.bounds()
	e.dfs(lo, hi)

	sol := Solution{Nodes: e.nodes}
	switch {
	case e.unbounded:
		sol.Status = Unbounded
	case e.stop != nil:
		sol.Status, sol.Err = Error, e.stop
	case !e.found:
		sol.Status = Infeasible
	default:
		for _, j := range e.bins {
			e.best[j] = math.Round(e.best[j])
		}
		obj, _ := m.Objective()
		sol.Status = Optimal
		sol.Values = e.best
		sol.Objective = obj.Eval(e.best)
		if verr := m.Feasible(e.best, 1e-6); verr != nil {
			s.opts.Logger.V(1).Info("solution outside tolerance", "model", m.Name(), "violation", verr.Error())
		}
	}

	return sol
}

// bbEngine holds the search state of one Solve.
//
// Rationale:
//  1. Every node is an LP relaxation of the model with some binaries fixed
//     through their bounds; the relaxation itself is problem.solve (scaled
//     standard form, gonum simplex, perturbed retries on a singular basis).
//  2. Search is depth-first. The relaxation value of a node bounds every
//     completion below it, so a node is pruned once it cannot beat the
//     incumbent by more than pruneGap.
//  3. Branching takes the first fractional binary in model order and tries
//     the nearer integer first. This finds an incumbent early on the
//     indicator models, where most Y settle at 0 or 1 in the relaxation.
//  4. Node limit, deadline and ctx are checked before every node; hitting
//     any of them ends the search with Status Error and no incumbent is
//     reported.
//
// Complexity:
//   - Worst case O(2^b) relaxations for b binaries, capped by NodeLimit.
//   - Per node: one bounded simplex over the active rows, plus O(n) bound
//     copies for each child.
//   - Memory: O(b·n) for the lo/hi copies along the current path.
type bbEngine struct {
	p    *problem
	ctx  context.Context
	log  logr.Logger
	bins []int

	nodeLimit int
	nodes     int

	useDeadline bool
	deadline    time.Time

	// Incumbent, minimization form.
	best    []float64
	bestVal float64
	found   bool

	unbounded bool
	stop      error
}

// halt reports whether the search must end, recording why.
func (e *bbEngine) halt() bool {
	if e.stop != nil || e.unbounded {
		return true
	}
	switch {
	case e.ctx.Err() != nil:
		e.stop = e.ctx.Err()
	case e.nodes >= e.nodeLimit:
		e.stop = ErrNodeLimit
	case e.useDeadline && time.Now().After(e.deadline):
		e.stop = ErrTimeLimit
	}

	return e.stop != nil
}

// pruneGap is the minimum improvement a node must promise over the incumbent.
func (e *bbEngine) pruneGap() float64 { return 1e-9 * math.Max(1, math.Abs(e.bestVal)) }

// dfs solves the relaxation under lo/hi, prunes by bound, and branches on the
// first fractional binary, trying its nearer integer first.
func (e *bbEngine) dfs(lo, hi []float64) {
	if e.halt() {
		return
	}
	e.nodes++

	r := e.p.solve(lo, hi)
	switch r.status {
	case Infeasible:
		return
	case Unbounded:
		e.unbounded = true
		return
	case Error:
		e.stop = r.err
		return
	}
	if e.found && r.value >= e.bestVal-e.pruneGap() {
		return
	}

	j := e.fractional(r.x)
	if j < 0 {
		e.best, e.bestVal, e.found = r.x, r.value, true
		e.log.V(2).Info("incumbent", "node", e.nodes, "value", r.value)
		return
	}

	first, second := 0.0, 1.0
	if r.x[j] >= 0.5 {
		first, second = 1, 0
	}
	for _, v := range [2]float64{first, second} {
		if v < lo[j] || v > hi[j] {
			continue
		}
		clo, chi := slices.Clone(lo), slices.Clone(hi)
		clo[j], chi[j] = v, v
		e.dfs(clo, chi)
		if e.stop != nil || e.unbounded {
			return
		}
	}
}

// fractional returns the first binary whose value is not integral, or -1.
func (e *bbEngine) fractional(x []float64) int {
	for _, j := range e.bins {
		if math.Abs(x[j]-math.Round(x[j])) > intTol {
			return j
		}
	}

	return -1
}

// String is used in logs and tests.
func (s *Simplex) String() string {
	return fmt.Sprintf("simplex(tol=%g nodes=%d time=%s)", s.opts.Tolerance, s.opts.NodeLimit, s.opts.TimeLimit)
}
