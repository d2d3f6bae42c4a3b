// Package reservoir plans monthly releases of a multi-purpose reservoir that
// serves urban supply, irrigation and hydropower.
//
// Two engines share one input table and one result type:
//
//	series/   validated per-period inputs (inflow, losses, demands)
//	policy/   allocation modes, objectives, priorities and economics
//	lp/       solver-neutral linear model with binary variables
//	model/    builds the model for a mode, composes the objective, extracts plans
//	solver/   simplex relaxations under depth-first branch-and-bound
//	simulate/ greedy priority rule, period by period
//	plan/     per-period result with mass-balance, bound and priority checks
//	engine/   optimize, simulate, compare modes, cross-check the two engines
//
// The reservoir command (cmd/reservoir) runs scenario files from the
// command line or serves them over HTTP.
//
// Quick start:
//
//	tab, _ := series.NewTable(in)
//	cfg, _ := policy.New(policy.MinShortage)
//	p, err := engine.New().Optimize(ctx, tab, cfg)
//	if err != nil { ... }       // configuration problem
//	if err := p.Err(); err != nil { ... } // infeasible, unbounded or solver error
package reservoir
