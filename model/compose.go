package model

import (
	"fmt"

	"github.com/katalvlaran/reservoir/lp"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
)

// Compose returns the objective expression and sense of obj over layout l.
// ObjectiveDefault resolves through cfg.EffectiveObjective.
//
// The net-benefit objective carries the crop revenue as its constant: it
// does not respond to the agricultural release, so that release only enters
// through its irrigation cost. This mirrors the reference study and is kept
// as a known simplification.
func Compose(obj policy.Objective, l Layout, tab *series.Table, cfg policy.Config) (lp.Expr, lp.Sense, error) {
	if obj == policy.ObjectiveDefault {
		obj = cfg.EffectiveObjective()
	}

	var e lp.Expr
	switch obj {
	case policy.MaxStorage:
		for _, s := range l.Storage {
			e.Add(s, 1)
		}
		return e, lp.Maximize, nil

	case policy.MaxRelease:
		for _, row := range l.Release {
			for _, r := range row {
				e.Add(r, 1)
			}
		}
		return e, lp.Maximize, nil

	case policy.MinUnmet:
		recs := tab.Records()
		for i, row := range l.Release {
			for _, s := range series.Sectors {
				e.Add(row[s], -1)
				e.AddConst(recs[i].Demand[s])
			}
		}
		return e, lp.Minimize, nil

	case policy.MaxNetBenefit:
		econ := cfg.Economics
		for _, row := range l.Release {
			for _, s := range series.Sectors {
				if v := econ.UnitNetValue(s); v != 0 {
					e.Add(row[s], v)
				}
			}
		}
		if c := econ.SpillUnitCost(); c != 0 {
			for _, sp := range l.Spill {
				e.Add(sp, -c)
			}
		}
		if econ.PenaltyRate != 0 {
			for _, v := range l.Violation {
				e.Add(v, -econ.PenaltyRate)
			}
		}
		e.AddConst(econ.CropRevenue(len(l.Release)))
		return e, lp.Maximize, nil
	}

	return lp.Expr{}, lp.Minimize, fmt.Errorf("%w: %s", policy.ErrUnknownObjective, obj)
}
