package model

import (
	"github.com/katalvlaran/reservoir/plan"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
	"github.com/katalvlaran/reservoir/solver"
)

// Extract maps sol onto named per-period series. Steps are filled only when
// sol is Optimal; otherwise the plan carries the status for Plan.Err.
func Extract(pr *Problem, sol solver.Solution) *plan.Plan {
	p := &plan.Plan{
		Source:         plan.Optimizer,
		Mode:           pr.Config.Mode,
		ModeName:       pr.Config.Mode.String(),
		Objective:      pr.Objective.String(),
		Status:         sol.Status,
		Periods:        pr.Layout.Periods(),
		InitialStorage: pr.Table.InitialStorage(),
		HasSpill:       pr.Layout.Spill != nil,
		HasEnvFlow:     pr.Layout.EnvFlow != nil,
		Fingerprint:    pr.Model.Fingerprint(),
	}
	if !sol.IsOptimal() {
		return p
	}

	p.Value = sol.Objective
	recs := pr.Table.Records()
	p.Steps = make([]plan.Step, len(recs))
	for i, r := range recs {
		st := plan.Step{
			Period:  r.Period,
			Storage: sol.Value(pr.Layout.Storage[i]),
			Demand:  r.Demand,
		}
		for _, s := range series.Sectors {
			st.Release[s] = sol.Value(pr.Layout.Release[i][s])
		}
		if pr.Layout.Spill != nil {
			st.Spill = sol.Value(pr.Layout.Spill[i])
		}
		if pr.Layout.EnvFlow != nil {
			st.EnvFlow = sol.Value(pr.Layout.EnvFlow[i])
		}
		if pr.Layout.Violation != nil {
			st.Violation = sol.Value(pr.Layout.Violation[i])
		}
		p.Steps[i] = st
	}

	return p
}

// PeriodValue is the monetary breakdown of one period.
type PeriodValue struct {
	Period    series.Period              `json:"period"`
	Benefit   [series.NumSectors]float64 `json:"benefit"`
	SpillCost float64                    `json:"spill_cost"`
	Penalty   float64                    `json:"penalty"`
	Net       float64                    `json:"net"`
}

// Valuation is the economic evaluation of a plan.
type Valuation struct {
	Periods     []PeriodValue `json:"periods"`
	CropRevenue float64       `json:"crop_revenue"`
	Total       float64       `json:"total"`
}

// Evaluate prices any plan, optimizer or simulator, with the net-benefit
// coefficients. For an optimal benefit-cost plan Total equals the objective.
// Seasonal crop revenue is booked in each period's agricultural benefit and
// summed into CropRevenue; a flat crop table is booked once.
func Evaluate(p *plan.Plan, econ policy.Economics) Valuation {
	v := Valuation{Periods: make([]PeriodValue, len(p.Steps))}
	if !econ.Seasonal() {
		v.CropRevenue = econ.CropRevenue(len(p.Steps))
	}
	spillCost := econ.SpillUnitCost()

	total := v.CropRevenue
	for i, st := range p.Steps {
		pv := PeriodValue{
			Period:    st.Period,
			SpillCost: spillCost * st.Spill,
			Penalty:   econ.PenaltyRate * st.Violation,
		}
		net := -pv.SpillCost - pv.Penalty
		for _, s := range series.Sectors {
			pv.Benefit[s] = econ.UnitNetValue(s) * st.Release[s]
		}
		if econ.Seasonal() {
			crop := econ.CropRevenueAt(st.Period)
			pv.Benefit[series.Agricultural] += crop
			v.CropRevenue += crop
		}
		for _, b := range pv.Benefit {
			net += b
		}
		pv.Net = net
		v.Periods[i] = pv
		total += net
	}
	v.Total = total

	return v
}
