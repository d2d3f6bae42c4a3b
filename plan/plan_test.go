package plan_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/reservoir/plan"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
	"github.com/katalvlaran/reservoir/solver"
)

// twoPeriods: S0 = 10, net inflow 5 then 0, capacity 20.
func twoPeriods(t *testing.T) *series.Table {
	t.Helper()
	tab, err := series.NewTable(series.Inputs{
		Inflow:         []float64{6, 1},
		Outflow:        []float64{1, 1},
		Demand:         [series.NumSectors][]float64{{2, 2}, {3, 3}, {1, 1}},
		Capacity:       20,
		InitialStorage: 10,
	})
	require.NoError(t, err)

	return tab
}

func goodPlan() *plan.Plan {
	return &plan.Plan{
		Source:         plan.Optimizer,
		Mode:           policy.StrictPriority,
		ModeName:       policy.StrictPriority.String(),
		Status:         solver.Optimal,
		Periods:        2,
		InitialStorage: 10,
		Steps: []plan.Step{
			{Period: 1, Storage: 9, Release: [3]float64{2, 3, 1}, Demand: [3]float64{2, 3, 1}},
			{Period: 2, Storage: 6, Release: [3]float64{2, 1, 0}, Demand: [3]float64{2, 3, 1}},
		},
	}
}

func TestChecks_Pass(t *testing.T) {
	tab := twoPeriods(t)
	p := goodPlan()

	require.NoError(t, p.CheckMassBalance(tab, 1e-9))
	require.NoError(t, p.CheckBounds(tab, 1e-9))
	require.NoError(t, p.CheckPriority(1e-9))
	assert.Equal(t, []float64{9, 6}, p.Storage())
	assert.Equal(t, []float64{1, 0}, p.Releases(series.Hydropower))
	assert.Equal(t, 3.0, p.TotalUnmet())
	assert.Equal(t, 6.0, p.Steps[0].TotalRelease())
}

func TestCheckMassBalance_Violation(t *testing.T) {
	p := goodPlan()
	p.Steps[1].Storage = 5

	err := p.CheckMassBalance(twoPeriods(t), 1e-9)
	var ce *plan.CheckError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, plan.ErrMassBalance)
	assert.Equal(t, series.Period(2), ce.Period)
	assert.Equal(t, 6.0, ce.Want)
}

func TestCheckBounds_Violations(t *testing.T) {
	tab := twoPeriods(t)

	p := goodPlan()
	p.Steps[0].Storage = 21
	assert.ErrorIs(t, p.CheckBounds(tab, 1e-9), plan.ErrBounds)

	p = goodPlan()
	p.Steps[1].Release[series.Agricultural] = -1
	assert.ErrorIs(t, p.CheckBounds(tab, 1e-9), plan.ErrBounds)

	p = goodPlan()
	p.Steps = p.Steps[:1]
	assert.ErrorIs(t, p.CheckBounds(tab, 1e-9), plan.ErrHorizon)
}

func TestCheckPriority_Violation(t *testing.T) {
	p := goodPlan()
	p.Steps[1].Release[series.Agricultural] = 4.5
	assert.ErrorIs(t, p.CheckPriority(1e-9), plan.ErrPriority)

	// Unserved urban demand exempts the period.
	p.Steps[1].Release[series.Urban] = 1
	assert.NoError(t, p.CheckPriority(1e-9))
}

func TestErr_StatusError(t *testing.T) {
	p := &plan.Plan{Mode: policy.BenefitCost, Status: solver.Unbounded, Periods: 12}
	err := p.Err()

	var se *plan.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, solver.Unbounded, se.Status)
	assert.Equal(t, series.Period(12), se.Last)
	assert.Equal(t, "plan: unbounded solve for mode benefit-cost over periods 1..12", err.Error())
}

func TestPlan_JSON(t *testing.T) {
	b, err := json.Marshal(goodPlan())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "optimal", m["status"])
	assert.Equal(t, "strict-priority-continuous", m["mode"])
	assert.Len(t, m["steps"], 2)

	var back plan.Plan
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, solver.Optimal, back.Status)
	assert.Equal(t, goodPlan().Steps, back.Steps)
}

func TestPlan_JSONRestoresMode(t *testing.T) {
	p := &plan.Plan{
		Mode:     policy.BenefitCost,
		ModeName: policy.BenefitCost.String(),
		Status:   solver.Infeasible,
		Periods:  12,
	}
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var back plan.Plan
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, policy.BenefitCost, back.Mode)
	assert.Equal(t, p.Err().Error(), back.Err().Error())

	err = json.Unmarshal([]byte(`{"mode":"fastest"}`), &back)
	assert.ErrorIs(t, err, policy.ErrUnknownMode)
}
