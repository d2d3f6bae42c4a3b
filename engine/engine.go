// Package engine orchestrates a run: validate inputs, build the model, solve
// it, extract a plan; or run the greedy simulator on the same table.
//
// Configuration problems are returned as Go errors before any solve. Solve
// outcomes are never errors here: they travel in plan.Plan.Status and
// surface through Plan.Err as *plan.StatusError, so the caller decides
// whether to relax and retry.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/reservoir/model"
	"github.com/katalvlaran/reservoir/plan"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
	"github.com/katalvlaran/reservoir/simulate"
	"github.com/katalvlaran/reservoir/solver"
)

// DefaultParallelism bounds concurrent runs in Compare.
const DefaultParallelism = 4

// ErrCrossCheck is wrapped by CrossCheck when the simulator out-serves an optimum.
var ErrCrossCheck = errors.New("engine: simulator release exceeds optimal release")

// Observer receives run measurements. internal/metrics provides the
// Prometheus implementation; the zero Engine uses a no-op.
type Observer interface {
	ObserveSolve(mode string, status solver.Status, nodes int, elapsed time.Duration)
	ObserveSimulation(mode string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveSolve(string, solver.Status, int, time.Duration) {}
func (nopObserver) ObserveSimulation(string, time.Duration)               {}

// Engine runs optimizations and simulations. It is safe for concurrent use.
type Engine struct {
	solver      solver.Solver
	solverSet   bool
	log         logr.Logger
	obs         Observer
	fallback    bool
	parallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithSolver replaces the default simplex solver. A nil solver makes every
// Optimize call fall back to the simulator.
func WithSolver(s solver.Solver) Option {
	return func(e *Engine) { e.solver, e.solverSet = s, true }
}

// WithLogger attaches a logger.
func WithLogger(l logr.Logger) Option { return func(e *Engine) { e.log = l } }

// WithObserver attaches a measurement sink.
func WithObserver(o Observer) Option { return func(e *Engine) { e.obs = o } }

// WithFallback makes Optimize return a simulator plan when the solver
// reports Error. Infeasible and Unbounded are never masked.
func WithFallback() Option { return func(e *Engine) { e.fallback = true } }

// WithParallelism bounds concurrent runs in Compare. It panics on n < 1.
func WithParallelism(n int) Option {
	if n < 1 {
		panic("engine: WithParallelism requires n >= 1")
	}

	return func(e *Engine) { e.parallelism = n }
}

// New returns an Engine with the default simplex solver.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:         logr.Discard(),
		obs:         nopObserver{},
		parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.solverSet {
		e.solver = solver.NewSimplex(solver.WithLogger(e.log.WithName("solver")))
	}

	return e
}

// Optimize builds and solves cfg over tab.
func (e *Engine) Optimize(ctx context.Context, tab *series.Table, cfg policy.Config) (*plan.Plan, error) {
	if e.solver == nil {
		e.log.Info("no solver configured, simulating", "mode", cfg.Mode.String())
		return e.Simulate(ctx, tab, cfg)
	}

	pr, err := model.Build(tab, cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: build %s: %w", cfg.Mode, err)
	}

	sol := e.solver.Solve(ctx, pr.Model)
	e.obs.ObserveSolve(cfg.Mode.String(), sol.Status, sol.Nodes, sol.Elapsed)
	log := e.log.WithValues("mode", cfg.Mode.String(), "status", sol.Status.String())
	if sol.Err != nil {
		log = log.WithValues("cause", sol.Err.Error())
	}
	log.V(1).Info("optimized", "objective", sol.Objective, "nodes", sol.Nodes, "elapsed", sol.Elapsed)

	if sol.Status == solver.Error && e.fallback {
		log.Info("solver failed, falling back to simulator")
		return e.Simulate(ctx, tab, cfg)
	}

	return model.Extract(pr, sol), nil
}

// Simulate runs the greedy simulator. ctx is checked once before the run.
func (e *Engine) Simulate(ctx context.Context, tab *series.Table, cfg policy.Config) (*plan.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	p, err := simulate.Run(tab, cfg, simulate.WithLogger(e.log))
	if err != nil {
		return nil, fmt.Errorf("engine: simulate %s: %w", cfg.Mode, err)
	}
	e.obs.ObserveSimulation(cfg.Mode.String(), time.Since(start))

	return p, nil
}

// Compare optimizes every configuration over the same table in parallel.
// Plans are returned in cfgs order. The first configuration error cancels
// the remaining runs.
func (e *Engine) Compare(ctx context.Context, tab *series.Table, cfgs []policy.Config) ([]*plan.Plan, error) {
	out := make([]*plan.Plan, len(cfgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			p, err := e.Optimize(gctx, tab, cfg)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// Economics prices p with the coefficients of cfg.
func (e *Engine) Economics(p *plan.Plan, cfg policy.Config) model.Valuation {
	return model.Evaluate(p, cfg.Economics)
}

// Discrepancy is one period/sector where the simulator released more than
// an optimizer that fully served that sector.
type Discrepancy struct {
	Period    series.Period `json:"period"`
	Sector    string        `json:"sector"`
	Simulated float64       `json:"simulated"`
	Optimal   float64       `json:"optimal"`
}

// CrossCheck compares a simulator plan against an optimal plan of the same
// table. For every sector the optimizer fully serves, the simulator must not
// release more. It returns the discrepancies and an error wrapping
// ErrCrossCheck when there are any.
func CrossCheck(sim, opt *plan.Plan, relTol float64) ([]Discrepancy, error) {
	if err := opt.Err(); err != nil {
		return nil, err
	}
	if len(sim.Steps) != len(opt.Steps) {
		return nil, plan.ErrHorizon
	}

	var out []Discrepancy
	for i, o := range opt.Steps {
		s := sim.Steps[i]
		for _, sec := range series.Sectors {
			tol := relTol * math.Max(1, o.Demand[sec])
			if o.Release[sec] < o.Demand[sec]-tol {
				continue
			}
			if s.Release[sec] > o.Release[sec]+tol {
				out = append(out, Discrepancy{Period: o.Period, Sector: sec.String(),
					Simulated: s.Release[sec], Optimal: o.Release[sec]})
			}
		}
	}
	if len(out) > 0 {
		return out, fmt.Errorf("%w: %d discrepancies", ErrCrossCheck, len(out))
	}

	return nil, nil
}
