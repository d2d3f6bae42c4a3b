package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/reservoir/lp"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
)

// ErrNilTable is returned by Build when no table is supplied.
var ErrNilTable = errors.New("model: nil series table")

// Layout records the variable index of every model quantity. Slices are
// indexed by period−1; absent families are nil.
type Layout struct {
	Storage   []int
	Release   [][series.NumSectors]int
	Spill     []int
	EnvFlow   []int
	Indicator [][series.NumSectors]int
	Violation []int
}

// Periods returns the horizon covered by the layout.
func (l Layout) Periods() int { return len(l.Storage) }

// Problem is a built model together with the inputs it was built from.
type Problem struct {
	Model     *lp.Model
	Layout    Layout
	Table     *series.Table
	Config    policy.Config
	Objective policy.Objective
}

type builder struct {
	tab  *series.Table
	cfg  policy.Config
	recs []series.Record
	m    *lp.Model
	l    Layout
}

// sectorBlocks is the mode-dispatch table of sector-allocation constraints.
//
// Rationale:
//  1. Every mode shares the same skeleton: declare, mass balance, capacity,
//     then environmental flow. Only the rows tying releases to demand
//     differ, so each mode contributes one block and nothing else.
//  2. minShortage and benefitCost serve every sector at its floor; the
//     first leaves releases uncapped, the second caps them at demand.
//  3. strictPriority serves sectors in priority order and bounds each lower
//     sector by the storage left after the ones above it (withinStorage).
//  4. priorityIndicator adds one binary Y per sector and period:
//     R ≥ floor·Y, R ≤ demand, Y_k ≤ Y_{k−1}, plus the same storage bounds
//     as strictPriority. A sector is served only if every higher one is.
//  5. minUnmet serves the first priority exactly and expresses the others
//     as cumulative residual floors.
//
// Complexity:
//   - O(T) rows per block for T periods, three sectors each.
//   - priorityIndicator adds 3T binaries, which the branch-and-bound search
//     explores in the worst case in O(2^(3T)) relaxations.
var sectorBlocks = [...]func(*builder){
	policy.MinShortage:       (*builder).minShortage,
	policy.StrictPriority:    (*builder).strictPriority,
	policy.PriorityIndicator: (*builder).priorityIndicator,
	policy.MinUnmetDemand:    (*builder).minUnmet,
	policy.BenefitCost:       (*builder).benefitCost,
}

// Build assembles the model of cfg over tab. The returned Problem carries
// the composed objective. Infeasible inputs are not detected here: the
// model is built as specified and the solver reports infeasibility.
func Build(tab *series.Table, cfg policy.Config) (*Problem, error) {
	if tab == nil {
		return nil, ErrNilTable
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &builder{
		tab:  tab,
		cfg:  cfg,
		recs: tab.Records(),
		m:    lp.New(cfg.Mode.String()),
	}
	b.declare()
	b.massBalance()
	b.capacity()
	sectorBlocks[cfg.Mode](b)
	b.envFlow()

	obj := cfg.EffectiveObjective()
	expr, sense, err := Compose(obj, b.l, tab, cfg)
	if err != nil {
		return nil, err
	}
	b.m.SetObjective(expr, sense)

	return &Problem{Model: b.m, Layout: b.l, Table: tab, Config: cfg, Objective: obj}, nil
}

func (b *builder) declare() {
	n := len(b.recs)
	b.l.Storage = make([]int, n)
	b.l.Release = make([][series.NumSectors]int, n)
	if b.cfg.ModelsSpill() {
		b.l.Spill = make([]int, n)
	}
	if b.cfg.ModelsEnvFlow() {
		b.l.EnvFlow = make([]int, n)
	}

	spillCap := math.Inf(1)
	if b.cfg.SpillCap > 0 {
		spillCap = b.cfg.SpillCap
	}
	for i := range b.recs {
		t := i + 1
		b.l.Storage[i] = b.m.AddContinuous(fmt.Sprintf("S_%d", t), b.tab.MinStorage(), b.tab.Capacity())
		for _, s := range series.Sectors {
			b.l.Release[i][s] = b.m.AddContinuous(fmt.Sprintf("R_%s_%d", s, t), 0, math.Inf(1))
		}
		if b.l.Spill != nil {
			b.l.Spill[i] = b.m.AddContinuous(fmt.Sprintf("Sp_%d", t), 0, spillCap)
		}
		if b.l.EnvFlow != nil {
			b.l.EnvFlow[i] = b.m.AddContinuous(fmt.Sprintf("EF_%d", t), 0, math.Inf(1))
		}
	}
}

// massBalance emits S_t − S_{t−1} + ΣR_t + Sp_t + EF_t = NetInflow_t,
// with S_0 replaced by the initial storage on the right-hand side.
func (b *builder) massBalance() {
	for i, r := range b.recs {
		e := lp.NewExpr(lp.T(b.l.Storage[i], 1))
		rhs := r.NetInflow()
		if i == 0 {
			rhs += b.tab.InitialStorage()
		} else {
			e.Add(b.l.Storage[i-1], -1)
		}
		for _, s := range series.Sectors {
			e.Add(b.l.Release[i][s], 1)
		}
		if b.l.Spill != nil {
			e.Add(b.l.Spill[i], 1)
		}
		if b.l.EnvFlow != nil {
			e.Add(b.l.EnvFlow[i], 1)
		}
		b.m.AddConstraint(lp.Row(fmt.Sprintf("balance_%d", i+1), e, lp.Equal, rhs))
	}
}

func (b *builder) capacity() {
	for i := range b.recs {
		b.m.AddConstraint(lp.Row(fmt.Sprintf("capacity_%d", i+1),
			lp.NewExpr(lp.T(b.l.Storage[i], 1)), lp.LessEq, b.tab.Capacity()))
	}
}

// envFlow emits the environmental-flow floor. Benefit-cost lets a violation
// flag waive it (EF_t + MinEF_t·V_t ≥ MinEF_t); other modes treat it as hard.
func (b *builder) envFlow() {
	if b.l.EnvFlow == nil {
		return
	}
	if b.cfg.Mode == policy.BenefitCost {
		b.l.Violation = make([]int, len(b.recs))
	}
	for i, r := range b.recs {
		t := i + 1
		e := lp.NewExpr(lp.T(b.l.EnvFlow[i], 1))
		if b.l.Violation != nil {
			b.l.Violation[i] = b.m.AddBinary(fmt.Sprintf("V_%d", t))
			if r.MinEnvFlow > 0 {
				e.Add(b.l.Violation[i], r.MinEnvFlow)
			}
		}
		b.m.AddConstraint(lp.Row(fmt.Sprintf("envflow_%d", t), e, lp.GreaterEq, r.MinEnvFlow))
	}
}

// release returns R[t,s] for 0-based period index i.
func (b *builder) release(i int, s series.Sector) int { return b.l.Release[i][s] }

func (b *builder) rowName(kind string, s series.Sector, i int) string {
	return fmt.Sprintf("%s_%s_%d", kind, s, i+1)
}

// fix emits R[t,s] = v.
func (b *builder) fix(i int, s series.Sector, v float64) {
	b.m.AddConstraint(lp.Row(b.rowName("fix", s, i), lp.NewExpr(lp.T(b.release(i, s), 1)), lp.Equal, v))
}

// serve emits the demand floor of R[t,s] scaled by the coverage fraction.
// exact caps the release at demand; with full coverage that is an equality.
func (b *builder) serve(i int, s series.Sector, exact bool) {
	d := b.recs[i].Demand[s]
	f := b.cfg.CoverageFloor(s, series.Period(i+1))
	r := lp.NewExpr(lp.T(b.release(i, s), 1))
	switch {
	case f == 1 && exact:
		b.m.AddConstraint(lp.Row(b.rowName("demand", s, i), r, lp.Equal, d))
	case f == 1:
		b.m.AddConstraint(lp.Row(b.rowName("demand", s, i), r, lp.GreaterEq, d))
	default:
		b.m.AddConstraint(lp.Row(b.rowName("coverage", s, i), r, lp.GreaterEq, f*d))
		if exact {
			b.m.AddConstraint(lp.Row(b.rowName("cap", s, i), r, lp.LessEq, d))
		}
	}
}

// withinStorage emits R[t,target] + Σ R[t,served] − S_t ≤ 0.
func (b *builder) withinStorage(i int, target series.Sector, served ...series.Sector) {
	e := lp.NewExpr(lp.T(b.release(i, target), 1), lp.T(b.l.Storage[i], -1))
	for _, s := range served {
		e.Add(b.release(i, s), 1)
	}
	b.m.AddConstraint(lp.Row(b.rowName("remaining", target, i), e, lp.LessEq, 0))
}

func (b *builder) minShortage() {
	for i := range b.recs {
		for _, s := range series.Sectors {
			b.serve(i, s, false)
		}
	}
}

func (b *builder) strictPriority() {
	p1, p2, p3 := b.cfg.Priority[0], b.cfg.Priority[1], b.cfg.Priority[2]
	for i, r := range b.recs {
		if r.Demand[p1] == 0 {
			b.fix(i, p1, 0)
			b.fix(i, p2, 0)
			b.fix(i, p3, 0)
			continue
		}
		b.serve(i, p1, true)
		b.withinStorage(i, p2, p1)
		b.withinStorage(i, p3, p1)

		if r.Demand[p2] == 0 {
			b.fix(i, p2, 0)
		} else {
			b.serve(i, p2, true)
		}
		if r.Demand[p3] == 0 {
			b.fix(i, p3, 0)
		} else {
			e := lp.NewExpr(lp.T(b.release(i, p3), 1), lp.T(b.release(i, p1), 1),
				lp.T(b.release(i, p2), 1), lp.T(b.l.Storage[i], -1))
			b.m.AddConstraint(lp.Row(b.rowName("residual", p3, i), e, lp.LessEq, 0))
		}
	}
}

func (b *builder) priorityIndicator() {
	n := len(b.recs)
	b.l.Indicator = make([][series.NumSectors]int, n)
	for i := range b.recs {
		for _, s := range b.cfg.Priority {
			b.l.Indicator[i][s] = b.m.AddBinary(fmt.Sprintf("Y_%s_%d", s, i+1))
		}
	}
	p1, p2, p3 := b.cfg.Priority[0], b.cfg.Priority[1], b.cfg.Priority[2]
	for i, r := range b.recs {
		b.withinStorage(i, p2, p1)
		b.withinStorage(i, p3, p1, p2)
		for k, s := range b.cfg.Priority {
			floor := b.cfg.CoverageFloor(s, series.Period(i+1)) * r.Demand[s]
			b.m.AddConstraint(lp.Conditional(b.rowName("serve", s, i), b.release(i, s), b.l.Indicator[i][s], floor))
			b.m.AddConstraint(lp.Row(b.rowName("cap", s, i), lp.NewExpr(lp.T(b.release(i, s), 1)), lp.LessEq, r.Demand[s]))
			if k > 0 {
				prev := b.cfg.Priority[k-1]
				e := lp.NewExpr(lp.T(b.l.Indicator[i][s], 1), lp.T(b.l.Indicator[i][prev], -1))
				b.m.AddConstraint(lp.Row(b.rowName("order", s, i), e, lp.LessEq, 0))
			}
		}
	}
}

func (b *builder) minUnmet() {
	p1, p2, p3 := b.cfg.Priority[0], b.cfg.Priority[1], b.cfg.Priority[2]
	for i, r := range b.recs {
		b.serve(i, p1, true)
		e := lp.NewExpr(lp.T(b.release(i, p2), 1), lp.T(b.release(i, p1), 1))
		b.m.AddConstraint(lp.Row(b.rowName("residual", p2, i), e, lp.GreaterEq, r.Demand[p2]))
		e = lp.NewExpr(lp.T(b.release(i, p3), 1), lp.T(b.release(i, p1), 1), lp.T(b.release(i, p2), 1))
		b.m.AddConstraint(lp.Row(b.rowName("residual", p3, i), e, lp.GreaterEq, r.Demand[p3]))
	}
}

func (b *builder) benefitCost() {
	for i := range b.recs {
		for _, s := range series.Sectors {
			b.serve(i, s, true)
		}
	}
}
