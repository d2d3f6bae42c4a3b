package solver_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/reservoir/lp"
	"github.com/katalvlaran/reservoir/solver"
)

type SimplexSuite struct {
	suite.Suite
	s   *solver.Simplex
	ctx context.Context
}

func (ss *SimplexSuite) SetupTest() {
	ss.s = solver.NewSimplex()
	ss.ctx = context.Background()
}

func TestSimplexSuite(t *testing.T) {
	suite.Run(t, new(SimplexSuite))
}

// max x + y  s.t. x + 2y <= 4, 3x + y <= 6.  Optimum (1.6, 1.2), value 2.8.
func (ss *SimplexSuite) TestOptimal_TwoRows() {
	m := lp.New("two")
	x := m.AddContinuous("x", 0, math.Inf(1))
	y := m.AddContinuous("y", 0, math.Inf(1))
	m.AddConstraint(lp.Row("r1", lp.NewExpr(lp.T(x, 1), lp.T(y, 2)), lp.LessEq, 4))
	m.AddConstraint(lp.Row("r2", lp.NewExpr(lp.T(x, 3), lp.T(y, 1)), lp.LessEq, 6))
	m.SetObjective(lp.NewExpr(lp.T(x, 1), lp.T(y, 1)), lp.Maximize)

	sol := ss.s.Solve(ss.ctx, m)
	ss.Require().True(sol.IsOptimal(), "status %v err %v", sol.Status, sol.Err)
	ss.InDelta(2.8, sol.Objective, 1e-9)
	ss.InDelta(1.6, sol.Value(x), 1e-9)
	ss.InDelta(1.2, sol.Value(y), 1e-9)
	ss.NoError(m.Feasible(sol.Values, 1e-9))
}

// Volumes of order 1e7 with a presolved lower bound and an explicit capacity row.
func (ss *SimplexSuite) TestOptimal_LargeVolumes() {
	m := lp.New("balance")
	s1 := m.AddContinuous("S_1", 0, 100e6)
	r := m.AddContinuous("R_1", 0, math.Inf(1))
	sp := m.AddContinuous("Sp_1", 0, math.Inf(1))
	m.AddConstraint(lp.Row("balance_1", lp.NewExpr(lp.T(s1, 1), lp.T(r, 1), lp.T(sp, 1)), lp.Equal, 50e6+3e6))
	m.AddConstraint(lp.Row("demand_1", lp.NewExpr(lp.T(r, 1)), lp.GreaterEq, 2e6))
	m.AddConstraint(lp.Row("capacity_1", lp.NewExpr(lp.T(s1, 1)), lp.LessEq, 100e6))
	m.SetObjective(lp.NewExpr(lp.T(s1, 1)), lp.Maximize)

	sol := ss.s.Solve(ss.ctx, m)
	ss.Require().True(sol.IsOptimal(), "status %v err %v", sol.Status, sol.Err)
	ss.InDelta(51e6, sol.Value(s1), 1e-6*51e6)
	ss.InDelta(2e6, sol.Value(r), 1e-6*2e6)
	ss.InDelta(0, sol.Value(sp), 1)
}

// One month of the indicator formulation in cubic metres: binaries next to
// volumes of order 1e8 in the same rows.
func (ss *SimplexSuite) TestOptimal_IndicatorVolumes() {
	demand := [3]float64{22e6, 18e6, 22e6}
	m := lp.New("indicator")
	s1 := m.AddContinuous("S_1", 24e6, 125e6)
	balance := lp.NewExpr(lp.T(s1, 1))
	obj := lp.NewExpr()
	var r, y [3]int
	for k, d := range demand {
		r[k] = m.AddContinuous(fmt.Sprintf("R_%d", k), 0, math.Inf(1))
		y[k] = m.AddBinary(fmt.Sprintf("Y_%d", k))
		balance.Add(r[k], 1)
		obj.Add(r[k], 1)
		m.AddConstraint(lp.Conditional(fmt.Sprintf("serve_%d", k), r[k], y[k], d))
		m.AddConstraint(lp.Row(fmt.Sprintf("cap_%d", k), lp.NewExpr(lp.T(r[k], 1)), lp.LessEq, d))
		if k > 0 {
			m.AddConstraint(lp.Row(fmt.Sprintf("order_%d", k), lp.NewExpr(lp.T(y[k], 1), lp.T(y[k-1], -1)), lp.LessEq, 0))
		}
	}
	m.AddConstraint(lp.Row("balance_1", balance, lp.Equal, 71e6+34e6-4e6))
	m.SetObjective(obj, lp.Maximize)

	sol := ss.s.Solve(ss.ctx, m)
	ss.Require().True(sol.IsOptimal(), "status %v err %v", sol.Status, sol.Err)
	ss.InDelta(62e6, sol.Objective, 1e-6*62e6)
	ss.InDelta(39e6, sol.Value(s1), 1e-6*39e6)
	for k, d := range demand {
		ss.InDelta(d, sol.Value(r[k]), 1e-6*d)
	}
	ss.NoError(m.Feasible(sol.Values, 1e-6))
}

func (ss *SimplexSuite) TestInfeasible_Bounds() {
	m := lp.New("bounds")
	x := m.AddContinuous("x", 0, 10)
	m.AddConstraint(lp.Row("lo", lp.NewExpr(lp.T(x, 1)), lp.GreaterEq, 5))
	m.AddConstraint(lp.Row("hi", lp.NewExpr(lp.T(x, 1)), lp.LessEq, 3))
	m.SetObjective(lp.NewExpr(lp.T(x, 1)), lp.Minimize)

	sol := ss.s.Solve(ss.ctx, m)
	ss.True(sol.IsInfeasible())
	ss.Nil(sol.Values)
	ss.Zero(sol.Objective)
}

func (ss *SimplexSuite) TestInfeasible_Rows() {
	m := lp.New("rows")
	x := m.AddContinuous("x", 0, math.Inf(1))
	y := m.AddContinuous("y", 0, math.Inf(1))
	m.AddConstraint(lp.Row("a", lp.NewExpr(lp.T(x, 1), lp.T(y, 1)), lp.LessEq, 1))
	m.AddConstraint(lp.Row("b", lp.NewExpr(lp.T(x, 1), lp.T(y, 1)), lp.GreaterEq, 2))
	m.SetObjective(lp.NewExpr(lp.T(x, 1)), lp.Maximize)

	sol := ss.s.Solve(ss.ctx, m)
	ss.Equal(solver.Infeasible, sol.Status)
	ss.Nil(sol.Values)
}

func (ss *SimplexSuite) TestUnbounded_Row() {
	m := lp.New("ray")
	x := m.AddContinuous("x", 0, math.Inf(1))
	y := m.AddContinuous("y", 0, math.Inf(1))
	m.AddConstraint(lp.Row("a", lp.NewExpr(lp.T(x, 1), lp.T(y, -1)), lp.LessEq, 1))
	m.SetObjective(lp.NewExpr(lp.T(x, 1)), lp.Maximize)

	sol := ss.s.Solve(ss.ctx, m)
	ss.True(sol.IsUnbounded())
	ss.Nil(sol.Values)
}

func (ss *SimplexSuite) TestUnbounded_FreeColumn() {
	m := lp.New("column")
	x := m.AddContinuous("x", 0, 1)
	z := m.AddContinuous("z", 0, math.Inf(1))
	m.SetObjective(lp.NewExpr(lp.T(x, 1), lp.T(z, 1)), lp.Maximize)

	ss.Equal(solver.Unbounded, ss.s.Solve(ss.ctx, m).Status)
}

// 0/1 knapsack with three rows; LP relaxation is fractional, integer optimum 9 at (1,1,0).
func knapsack() (*lp.Model, [3]int) {
	m := lp.New("knapsack")
	var v [3]int
	for i, name := range []string{"a", "b", "c"} {
		v[i] = m.AddBinary(name)
	}
	rows := [][3]float64{{2, 3, 1}, {4, 1, 2}, {3, 4, 2}}
	caps := []float64{5, 11, 8}
	for i, r := range rows {
		m.AddConstraint(lp.Row("", lp.NewExpr(lp.T(v[0], r[0]), lp.T(v[1], r[1]), lp.T(v[2], r[2])), lp.LessEq, caps[i]))
	}
	m.SetObjective(lp.NewExpr(lp.T(v[0], 5), lp.T(v[1], 4), lp.T(v[2], 3)), lp.Maximize)

	return m, v
}

func (ss *SimplexSuite) TestBranchAndBound_Knapsack() {
	m, v := knapsack()
	sol := ss.s.Solve(ss.ctx, m)
	ss.Require().True(sol.IsOptimal(), "status %v err %v", sol.Status, sol.Err)
	ss.InDelta(9, sol.Objective, 1e-9)
	ss.Equal([]float64{1, 1, 0}, []float64{sol.Value(v[0]), sol.Value(v[1]), sol.Value(v[2])})
	ss.Greater(sol.Nodes, 1)
}

func (ss *SimplexSuite) TestBranchAndBound_Conditional() {
	m := lp.New("cond")
	x := m.AddContinuous("x", 0, 10)
	y := m.AddBinary("y")
	m.AddConstraint(lp.Conditional("floor", x, y, 2))
	m.SetObjective(lp.NewExpr(lp.T(x, -1), lp.T(y, 3)), lp.Maximize)

	sol := ss.s.Solve(ss.ctx, m)
	ss.Require().True(sol.IsOptimal())
	ss.InDelta(1, sol.Objective, 1e-9)
	ss.Equal(1.0, sol.Value(y))
	ss.InDelta(2, sol.Value(x), 1e-9)
}

func (ss *SimplexSuite) TestError_NodeLimit() {
	m, _ := knapsack()
	sol := solver.NewSimplex(solver.WithNodeLimit(1)).Solve(ss.ctx, m)
	ss.Equal(solver.Error, sol.Status)
	ss.ErrorIs(sol.Err, solver.ErrNodeLimit)
	ss.Nil(sol.Values)
}

func (ss *SimplexSuite) TestError_Inputs() {
	sol := ss.s.Solve(ss.ctx, nil)
	ss.Equal(solver.Error, sol.Status)
	ss.ErrorIs(sol.Err, solver.ErrNilModel)

	m := lp.New("free")
	m.AddContinuous("x", math.Inf(-1), 1)
	sol = ss.s.Solve(ss.ctx, m)
	ss.Equal(solver.Error, sol.Status)
	ss.ErrorIs(sol.Err, solver.ErrFreeVariable)

	m = lp.New("bad")
	m.AddContinuous("x", 2, 1)
	sol = ss.s.Solve(ss.ctx, m)
	ss.Equal(solver.Error, sol.Status)
	ss.ErrorIs(sol.Err, lp.ErrBounds)
}

func (ss *SimplexSuite) TestError_Canceled() {
	ctx, cancel := context.WithCancel(ss.ctx)
	cancel()
	m, _ := knapsack()

	sol := ss.s.Solve(ctx, m)
	ss.Equal(solver.Error, sol.Status)
	ss.ErrorIs(sol.Err, context.Canceled)
}

func TestStatus_Text(t *testing.T) {
	for _, st := range []solver.Status{solver.Optimal, solver.Infeasible, solver.Unbounded, solver.Error} {
		b, err := st.MarshalText()
		require.NoError(t, err)

		var got solver.Status
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, st, got)
	}
	var s solver.Status
	assert.Error(t, s.UnmarshalText([]byte("maybe")))
	assert.Equal(t, "status(7)", solver.Status(7).String())
}

func TestFunc_Adapter(t *testing.T) {
	var s solver.Solver = solver.Func(func(context.Context, *lp.Model) solver.Solution {
		return solver.Solution{Status: solver.Infeasible}
	})
	assert.True(t, s.Solve(context.Background(), lp.New("x")).IsInfeasible())
}

func TestOptions_Panics(t *testing.T) {
	assert.Panics(t, func() { solver.WithTolerance(0) })
	assert.Panics(t, func() { solver.WithNodeLimit(0) })
	assert.Panics(t, func() { solver.WithTimeLimit(-time.Second) })
}
