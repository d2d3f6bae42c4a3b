package solver

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	glp "gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/katalvlaran/reservoir/lp"
)

// problem is a model prepared for repeated relaxation under varying bounds.
// Costs are in minimization form.
type problem struct {
	vars  []lp.Var
	rows  []lp.Constraint // lowered and normalized
	cost  []float64
	mag   []float64 // largest |rhs/coef| over the rows using each variable
	scale float64   // fallback column scale: largest finite bound or rhs

	tol      float64
	pivotTol float64
}

// relaxation is the outcome of one LP solve.
type relaxation struct {
	status Status
	x      []float64
	value  float64 // Σ cost·x, minimization form, constant excluded
	err    error
}

func newProblem(m *lp.Model, o Options) (*problem, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	p := &problem{
		vars:     m.Vars(),
		rows:     m.Lower(),
		tol:      o.Tolerance,
		pivotTol: o.PivotTolerance,
		scale:    1,
	}
	for _, v := range p.vars {
		if math.IsInf(v.Lower, -1) {
			return nil, fmt.Errorf("%w: %s", ErrFreeVariable, v.Name)
		}
		if v.Kind == lp.Continuous {
			p.scale = math.Max(p.scale, math.Abs(v.Lower))
			if !math.IsInf(v.Upper, 1) {
				p.scale = math.Max(p.scale, math.Abs(v.Upper))
			}
		}
	}
	p.mag = make([]float64, len(p.vars))
	for i := range p.rows {
		p.rows[i].Expr = p.rows[i].Expr.Normalize()
		rhs := math.Abs(p.rows[i].RHS)
		p.scale = math.Max(p.scale, rhs)
		for _, t := range p.rows[i].Expr.Terms {
			p.mag[t.Var] = math.Max(p.mag[t.Var], rhs/math.Abs(t.Coef))
		}
	}

	obj, sense := m.Objective()
	p.cost = make([]float64, len(p.vars))
	for _, t := range obj.Normalize().Terms {
		p.cost[t.Var] = t.Coef
	}
	if sense == lp.Maximize {
		for j := range p.cost {
			p.cost[j] = -p.cost[j]
		}
	}

	return p, nil
}

// bounds returns the declared variable bounds.
func (p *problem) bounds() (lo, hi []float64) {
	lo = make([]float64, len(p.vars))
	hi = make([]float64, len(p.vars))
	for j, v := range p.vars {
		lo[j], hi[j] = v.Lower, v.Upper
	}

	return lo, hi
}

func (p *problem) slack(v float64) float64 { return p.tol * math.Max(1, math.Abs(v)) }

// presolve turns rows with at most one non-fixed variable into bound updates
// until a fixed point. lo and hi are modified in place. It returns the rows
// that remain active, or ok=false when a row or bound proves infeasibility.
func (p *problem) presolve(lo, hi []float64) (active []bool, ok bool) {
	active = make([]bool, len(p.rows))
	for i := range active {
		active[i] = true
	}

	for changed := true; changed; {
		changed = false
		for i, r := range p.rows {
			if !active[i] {
				continue
			}
			rhs := r.RHS
			var free []lp.Term
			for _, t := range r.Expr.Terms {
				if lo[t.Var] == hi[t.Var] {
					rhs -= t.Coef * lo[t.Var]
				} else {
					free = append(free, t)
				}
			}

			switch len(free) {
			case 0:
				if !p.holds(0, r.Rel, rhs) {
					return nil, false
				}
				active[i] = false
			case 1:
				if !p.tighten(free[0], r.Rel, rhs, lo, hi) {
					return nil, false
				}
				active[i] = false
				changed = true
			}
		}
	}

	return active, true
}

func (p *problem) holds(lhs float64, rel lp.Relation, rhs float64) bool {
	s := p.slack(rhs)
	switch rel {
	case lp.LessEq:
		return lhs <= rhs+s
	case lp.GreaterEq:
		return lhs >= rhs-s
	default:
		return math.Abs(lhs-rhs) <= s
	}
}

// tighten applies a·x[j] rel rhs to the bounds of j.
func (p *problem) tighten(t lp.Term, rel lp.Relation, rhs float64, lo, hi []float64) bool {
	j, b := t.Var, rhs/t.Coef
	if t.Coef < 0 {
		switch rel {
		case lp.LessEq:
			rel = lp.GreaterEq
		case lp.GreaterEq:
			rel = lp.LessEq
		}
	}
	if rel != lp.GreaterEq && b < hi[j] {
		hi[j] = b
	}
	if rel != lp.LessEq && b > lo[j] {
		lo[j] = b
	}
	if p.vars[j].Kind == lp.Binary {
		lo[j] = math.Ceil(lo[j] - p.tol)
		hi[j] = math.Floor(hi[j] + p.tol)
	}

	switch gap := hi[j] - lo[j]; {
	case gap < -p.slack(lo[j]):
		return false
	case gap <= p.slack(lo[j]):
		hi[j] = lo[j]
	}

	return true
}

// solve runs the LP relaxation under bounds lo/hi. The slices are not retained.
func (p *problem) solve(lo, hi []float64) relaxation {
	lo, hi = slices.Clone(lo), slices.Clone(hi)
	active, ok := p.presolve(lo, hi)
	if !ok {
		return relaxation{status: Infeasible}
	}

	n := len(p.vars)
	col := make([]int, n)
	for j := range col {
		col[j] = -1
	}
	var cols []int // model index of each structural column
	for i, r := range p.rows {
		if !active[i] {
			continue
		}
		for _, t := range r.Expr.Terms {
			if lo[t.Var] != hi[t.Var] && col[t.Var] < 0 {
				col[t.Var] = len(cols)
				cols = append(cols, t.Var)
			}
		}
	}

	x := make([]float64, n)
	unbounded := false
	for j := range x {
		switch {
		case col[j] >= 0:
		case lo[j] == hi[j] || p.cost[j] >= 0:
			x[j] = lo[j]
		case math.IsInf(hi[j], 1):
			unbounded = true
		default:
			x[j] = hi[j]
		}
	}

	if len(cols) > 0 {
		scale := p.columnScales(lo, hi)
		y, st, err := p.standardSolve(active, cols, scale, lo, hi, 0)
		for _, eps := range perturbations {
			if st != Error {
				break
			}
			if ry, rst, _ := p.standardSolve(active, cols, scale, lo, hi, eps); rst == Optimal {
				y, st, err = ry, rst, nil
			}
		}
		if st != Optimal {
			return relaxation{status: st, err: err}
		}
		for k, j := range cols {
			x[j] = math.Min(math.Max(lo[j]+scale[j]*y[k], lo[j]), hi[j])
		}
	}
	if unbounded {
		return relaxation{status: Unbounded}
	}

	var value float64
	for j, c := range p.cost {
		value += c * x[j]
	}

	return relaxation{status: Optimal, x: x, value: value}
}

// columnScales returns the scale of every variable under bounds lo/hi.
// Binaries keep 1. A continuous column is measured in units of its own
// largest finite bound, or of the largest |rhs/coef| of its rows when it has
// no finite upper bound, so every structural column of the standard form
// ranges over roughly [0, 1] and sits in the same magnitude as the binaries.
func (p *problem) columnScales(lo, hi []float64) []float64 {
	s := make([]float64, len(p.vars))
	for j, v := range p.vars {
		s[j] = 1
		if v.Kind == lp.Binary {
			continue
		}
		m := math.Abs(lo[j])
		if math.IsInf(hi[j], 1) {
			m = math.Max(m, p.mag[j])
		} else {
			m = math.Max(m, math.Abs(hi[j]))
		}
		if m == 0 || math.IsInf(m, 0) || math.IsNaN(m) {
			m = p.scale
		}
		if m > 0 {
			s[j] = m
		}
	}

	return s
}

// perturbations are the right-hand-side shifts tried, in order, when the
// backend fails on a degenerate basis. Only an Optimal retry is accepted.
var perturbations = [...]float64{1e-9, 1e-7}

// noise is the magnitude below which scaled coefficients are rounding residue.
const noise = 1e-12

// standardSolve builds min c·y s.t. A·y = b, y ≥ 0 over the structural
// columns plus one slack per inequality and per finite upper bound, and
// hands it to the gonum simplex. A positive eps shifts every row of b by a
// distinct amount of order eps, which breaks ties between degenerate vertices.
func (p *problem) standardSolve(active []bool, cols []int, scale, lo, hi []float64, eps float64) (y []float64, st Status, err error) {
	var rowIdx []int
	slacks := 0
	for i, r := range p.rows {
		if active[i] {
			rowIdx = append(rowIdx, i)
			if r.Rel != lp.Equal {
				slacks++
			}
		}
	}
	var upper []int
	for _, j := range cols {
		if !math.IsInf(hi[j], 1) {
			upper = append(upper, j)
			slacks++
		}
	}

	m := len(rowIdx) + len(upper)
	nStruct := len(cols)
	ncol := nStruct + slacks
	if m > ncol {
		return nil, Error, ErrShape
	}

	pos := make(map[int]int, nStruct)
	for k, j := range cols {
		pos[j] = k
	}

	A := mat.NewDense(m, ncol, nil)
	b := make([]float64, m)
	next := nStruct
	row := 0
	for _, i := range rowIdx {
		r := p.rows[i]
		rhs := r.RHS
		rmax := 0.0
		for _, t := range r.Expr.Terms {
			if lo[t.Var] == hi[t.Var] {
				rhs -= t.Coef * lo[t.Var]
				continue
			}
			a := t.Coef * scale[t.Var]
			A.Set(row, pos[t.Var], a)
			rhs -= t.Coef * lo[t.Var]
			rmax = math.Max(rmax, math.Abs(a))
		}
		switch r.Rel {
		case lp.LessEq:
			A.Set(row, next, 1)
			next++
		case lp.GreaterEq:
			A.Set(row, next, -1)
			next++
		}
		b[row] = rhs
		equilibrate(A, b, row, rmax)
		row++
	}
	for _, j := range upper {
		A.Set(row, pos[j], 1)
		A.Set(row, next, 1)
		b[row] = (hi[j] - lo[j]) / scale[j]
		next++
		row++
	}
	for i := range b {
		if math.Abs(b[i]) < noise {
			b[i] = 0
		}
		for k := 0; k < ncol; k++ {
			if v := A.At(i, k); v != 0 && math.Abs(v) < noise {
				A.Set(i, k, 0)
			}
		}
		if b[i] < 0 {
			b[i] = -b[i]
			for k := 0; k < ncol; k++ {
				if v := A.At(i, k); v != 0 {
					A.Set(i, k, -v)
				}
			}
		}
	}

	if eps > 0 {
		for i := range b {
			b[i] += eps * (1 + float64((i*7919)%97)/97)
		}
	}

	c := make([]float64, ncol)
	cmax := 0.0
	for k, j := range cols {
		c[k] = p.cost[j] * scale[j]
		cmax = math.Max(cmax, math.Abs(c[k]))
	}
	if cmax > 0 {
		for k := range c {
			c[k] /= cmax
		}
	}

	sol, err := simplex(c, A, b, p.pivotTol)
	switch {
	case err == nil:
		return sol[:nStruct], Optimal, nil
	case errors.Is(err, glp.ErrInfeasible):
		return nil, Infeasible, err
	case errors.Is(err, glp.ErrUnbounded):
		return nil, Unbounded, err
	default:
		return nil, Error, fmt.Errorf("%w: %w", ErrBackend, err)
	}
}

// equilibrate divides row i of A and b[i] by rmax when rmax > 0.
func equilibrate(A *mat.Dense, b []float64, i int, rmax float64) {
	if rmax == 0 || rmax == 1 {
		return
	}
	_, n := A.Dims()
	for k := 0; k < n; k++ {
		if v := A.At(i, k); v != 0 {
			A.Set(i, k, v/rmax)
		}
	}
	b[i] /= rmax
}

// simplex calls the gonum backend and converts its panics into errors.
func simplex(c []float64, A mat.Matrix, b []float64, tol float64) (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("%v", r)
		}
	}()
	_, x, err = glp.Simplex(c, A, b, tol, nil)

	return x, err
}
