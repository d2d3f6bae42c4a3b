package lp

import (
	"math"
	"slices"
)

// VarKind distinguishes continuous from 0/1 variables.
type VarKind int

const (
	Continuous VarKind = iota
	Binary
)

func (k VarKind) String() string {
	if k == Binary {
		return "binary"
	}

	return "continuous"
}

// Var is a declared decision variable. Upper may be +Inf.
type Var struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

// Term is coef·x[Var].
type Term struct {
	Var  int
	Coef float64
}

// T is shorthand for Term{Var: v, Coef: coef}.
func T(v int, coef float64) Term { return Term{Var: v, Coef: coef} }

// Expr is Σ terms + Constant.
type Expr struct {
	Terms    []Term
	Constant float64
}

// NewExpr returns an expression over the given terms.
func NewExpr(terms ...Term) Expr {
	return Expr{Terms: slices.Clone(terms)}
}

// Add appends coef·x[v].
func (e *Expr) Add(v int, coef float64) *Expr {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// AddConst adds c to the constant part.
func (e *Expr) AddConst(c float64) *Expr {
	e.Constant += c
	return e
}

// Eval computes the expression value at x.
func (e Expr) Eval(x []float64) float64 {
	v := e.Constant
	for _, t := range e.Terms {
		v += t.Coef * x[t.Var]
	}

	return v
}

// Normalize merges duplicate variables, drops zero coefficients and orders
// terms by variable index. The receiver is not modified.
func (e Expr) Normalize() Expr {
	terms := slices.Clone(e.Terms)
	slices.SortStableFunc(terms, func(a, b Term) int { return a.Var - b.Var })

	out := terms[:0]
	for _, t := range terms {
		if n := len(out); n > 0 && out[n-1].Var == t.Var {
			out[n-1].Coef += t.Coef
			continue
		}
		out = append(out, t)
	}
	out = slices.DeleteFunc(out, func(t Term) bool { return t.Coef == 0 })

	return Expr{Terms: out, Constant: e.Constant}
}

// Relation is the comparison of a linear row.
type Relation int

const (
	LessEq Relation = iota
	GreaterEq
	Equal
)

func (r Relation) String() string {
	switch r {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	default:
		return "="
	}
}

// ConstraintKind tags how a Constraint is to be read.
type ConstraintKind int

const (
	// Linear is Expr Rel RHS.
	Linear ConstraintKind = iota
	// ConditionalLowerBound is x[Indicator] = 1 ⇒ x[Target] ≥ Bound.
	ConditionalLowerBound
)

// Constraint is one row of the model. Fields not used by Kind are zero.
type Constraint struct {
	Name string
	Kind ConstraintKind

	Expr Expr
	Rel  Relation
	RHS  float64

	Target    int
	Indicator int
	Bound     float64
}

// Row builds a linear constraint. A constant in e is moved to the right-hand side.
func Row(name string, e Expr, rel Relation, rhs float64) Constraint {
	return Constraint{
		Name: name,
		Kind: Linear,
		Expr: Expr{Terms: slices.Clone(e.Terms)},
		Rel:  rel,
		RHS:  rhs - e.Constant,
	}
}

// Conditional builds the tagged constraint x[indicator] = 1 ⇒ x[target] ≥ bound.
func Conditional(name string, target, indicator int, bound float64) Constraint {
	return Constraint{
		Name:      name,
		Kind:      ConditionalLowerBound,
		Target:    target,
		Indicator: indicator,
		Bound:     bound,
	}
}

// Linearize returns the linear form of c. Linear constraints are returned as is.
func (c Constraint) Linearize() Constraint {
	if c.Kind == Linear {
		return c
	}

	return Constraint{
		Name: c.Name,
		Kind: Linear,
		Expr: NewExpr(T(c.Target, 1), T(c.Indicator, -c.Bound)),
		Rel:  GreaterEq,
		RHS:  0,
	}
}

// Sense is the optimization direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}

	return "minimize"
}

// Model is an append-only program description.
// The zero value is not usable; call New.
type Model struct {
	name      string
	vars      []Var
	rows      []Constraint
	objective Expr
	sense     Sense
}

// New returns an empty model.
func New(name string) *Model {
	return &Model{name: name}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// AddVar declares a variable and returns its index.
func (m *Model) AddVar(v Var) int {
	m.vars = append(m.vars, v)
	return len(m.vars) - 1
}

// AddContinuous declares a continuous variable in [lo, hi].
func (m *Model) AddContinuous(name string, lo, hi float64) int {
	return m.AddVar(Var{Name: name, Kind: Continuous, Lower: lo, Upper: hi})
}

// AddBinary declares a 0/1 variable.
func (m *Model) AddBinary(name string) int {
	return m.AddVar(Var{Name: name, Kind: Binary, Lower: 0, Upper: 1})
}

// AddConstraint appends c and returns its row index.
func (m *Model) AddConstraint(c Constraint) int {
	m.rows = append(m.rows, c)
	return len(m.rows) - 1
}

// SetObjective replaces the objective.
func (m *Model) SetObjective(e Expr, s Sense) {
	m.objective = Expr{Terms: slices.Clone(e.Terms), Constant: e.Constant}
	m.sense = s
}

// Objective returns the objective expression and its sense.
func (m *Model) Objective() (Expr, Sense) {
	return Expr{Terms: slices.Clone(m.objective.Terms), Constant: m.objective.Constant}, m.sense
}

// NumVars returns the number of declared variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of rows, conditional ones included.
func (m *Model) NumConstraints() int { return len(m.rows) }

// Var returns variable i. It panics when i is out of range, like a slice index.
func (m *Model) Var(i int) Var { return m.vars[i] }

// Vars returns a copy of the declared variables.
func (m *Model) Vars() []Var { return slices.Clone(m.vars) }

// Constraints returns a copy of the rows in declaration order.
func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, len(m.rows))
	for i, c := range m.rows {
		c.Expr.Terms = slices.Clone(c.Expr.Terms)
		out[i] = c
	}

	return out
}

// Lower returns every row in linear form, conditionals relaxed.
func (m *Model) Lower() []Constraint {
	out := m.Constraints()
	for i := range out {
		out[i] = out[i].Linearize()
	}

	return out
}

// Binaries returns the indices of the binary variables in declaration order.
func (m *Model) Binaries() []int {
	var idx []int
	for i, v := range m.vars {
		if v.Kind == Binary {
			idx = append(idx, i)
		}
	}

	return idx
}

// Validate checks indices, bounds and coefficients.
func (m *Model) Validate() error {
	for _, v := range m.vars {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) || v.Lower > v.Upper || math.IsInf(v.Lower, 1) {
			return ErrBounds
		}
		if v.Kind == Binary && (v.Lower < 0 || v.Upper > 1) {
			return ErrBounds
		}
	}

	n := len(m.vars)
	checkExpr := func(e Expr) error {
		if !finite(e.Constant) {
			return ErrNonFinite
		}
		for _, t := range e.Terms {
			if t.Var < 0 || t.Var >= n {
				return ErrVarIndex
			}
			if !finite(t.Coef) {
				return ErrNonFinite
			}
		}

		return nil
	}

	if err := checkExpr(m.objective); err != nil {
		return err
	}
	for _, c := range m.rows {
		switch c.Kind {
		case ConditionalLowerBound:
			if c.Target < 0 || c.Target >= n || c.Indicator < 0 || c.Indicator >= n {
				return ErrVarIndex
			}
			if m.vars[c.Indicator].Kind != Binary {
				return ErrIndicatorKind
			}
			if !finite(c.Bound) {
				return ErrNonFinite
			}
		default:
			if err := checkExpr(c.Expr); err != nil {
				return err
			}
			if !finite(c.RHS) {
				return ErrNonFinite
			}
		}
	}

	return nil
}

// Feasible checks x against bounds, integrality and every row with absolute
// tolerance tol scaled by max(1, |rhs|). It returns a *ViolationError for the
// first violation found.
func (m *Model) Feasible(x []float64, tol float64) error {
	if len(x) != len(m.vars) {
		return ErrVarIndex
	}
	for i, v := range m.vars {
		scale := math.Max(1, math.Abs(x[i]))
		if d := v.Lower - x[i]; d > tol*scale {
			return &ViolationError{Name: v.Name, Amount: d}
		}
		if d := x[i] - v.Upper; d > tol*scale {
			return &ViolationError{Name: v.Name, Amount: d}
		}
		if v.Kind == Binary {
			if d := math.Abs(x[i] - math.Round(x[i])); d > tol {
				return &ViolationError{Name: v.Name, Amount: d}
			}
		}
	}

	for _, c := range m.rows {
		if c.Kind == ConditionalLowerBound {
			if x[c.Indicator] > 0.5 {
				if d := c.Bound - x[c.Target]; d > tol*math.Max(1, math.Abs(c.Bound)) {
					return &ViolationError{Name: c.Name, Amount: d}
				}
			}
			continue
		}

		lhs := c.Expr.Eval(x)
		limit := tol * math.Max(1, math.Abs(c.RHS))
		var d float64
		switch c.Rel {
		case LessEq:
			d = lhs - c.RHS
		case GreaterEq:
			d = c.RHS - lhs
		default:
			d = math.Abs(lhs - c.RHS)
		}
		if d > limit {
			return &ViolationError{Name: c.Name, Amount: d}
		}
	}

	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
