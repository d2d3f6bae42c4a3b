// Package simulate is the solver-free allocation engine: a deterministic
// greedy recurrence that serves sectors in priority order from the storage
// held each month.
//
// Per period t:
//
//	S       = S[t-1] + NetInflow[t]
//	R[s]    = min(max(S, 0), D[s]); S −= R[s]    (priority order)
//	Spill   = max(0, S − Capacity); S −= Spill
//	Makeup  = max(0, MinStorage − S); S += Makeup
//
// Each sector step is a pure function of the residual it receives. The last
// line is the clamp of storage to its minimum: the volume it adds is reported
// as Makeup so the plan still satisfies the mass balance. The simulator never
// reports infeasibility.
package simulate

import (
	"errors"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/reservoir/plan"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
	"github.com/katalvlaran/reservoir/solver"
)

// ObjectiveName labels simulator plans; their Value is the total release.
const ObjectiveName = "greedy"

// ErrNilTable is returned by Run when no table is supplied.
var ErrNilTable = errors.New("simulate: nil series table")

// Option configures Run.
type Option func(*options)

type options struct {
	log logr.Logger
}

// WithLogger attaches a logger; V(1) logs the run summary.
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.log = l }
}

// allocate serves demand from residual and returns the release and the new residual.
func allocate(residual, demand float64) (release, rest float64) {
	release = min(max(residual, 0), demand)
	return release, residual - release
}

// spill splits storage above capacity off as spill.
func spill(storage, capacity float64) (kept, spilled float64) {
	spilled = max(0, storage-capacity)
	return storage - spilled, spilled
}

// makeup lifts storage to its minimum and returns the added volume.
func makeup(storage, minimum float64) (kept, added float64) {
	added = max(0, minimum-storage)
	return storage + added, added
}

// step advances one period from storage prev.
func step(prev float64, r series.Record, order [series.NumSectors]series.Sector, capacity, minimum float64) plan.Step {
	st := plan.Step{Period: r.Period, Demand: r.Demand}

	storage := prev + r.NetInflow()
	for _, s := range order {
		st.Release[s], storage = allocate(storage, r.Demand[s])
	}
	storage, st.Spill = spill(storage, capacity)
	st.Storage, st.Makeup = makeup(storage, minimum)

	return st
}

// Run simulates tab under the priority order of cfg.
func Run(tab *series.Table, cfg policy.Config, opts ...Option) (*plan.Plan, error) {
	if tab == nil {
		return nil, ErrNilTable
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	recs := tab.Records()
	p := &plan.Plan{
		Source:         plan.Simulator,
		Mode:           cfg.Mode,
		ModeName:       cfg.Mode.String(),
		Objective:      ObjectiveName,
		Status:         solver.Optimal,
		Periods:        len(recs),
		InitialStorage: tab.InitialStorage(),
		HasSpill:       true,
		Steps:          make([]plan.Step, len(recs)),
	}

	prev := tab.InitialStorage()
	for i, r := range recs {
		st := step(prev, r, cfg.Priority, tab.Capacity(), tab.MinStorage())
		p.Steps[i] = st
		p.Value += st.TotalRelease()
		prev = st.Storage
	}
	o.log.V(1).Info("simulation finished", "periods", len(recs), "released", p.Value, "unmet", p.TotalUnmet())

	return p, nil
}

// FromInputs validates in and simulates it. Validation failures are
// *series.ConfigurationError, exactly as for the optimizer path.
func FromInputs(in series.Inputs, cfg policy.Config, opts ...Option) (*plan.Plan, error) {
	tab, err := series.NewTable(in)
	if err != nil {
		return nil, err
	}

	return Run(tab, cfg, opts...)
}
