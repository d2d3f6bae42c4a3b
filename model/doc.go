// Package model turns a validated series.Table and a policy.Config into an
// lp.Model, and maps solver output back into a plan.Plan.
//
// Build declares, in this order and for every period t = 1..N:
//
//	S_t                 storage, bounds [MinStorage, Capacity]
//	R_<sector>_t        release per sector, ≥ 0
//	Sp_t                spill, ≥ 0 (≤ SpillCap when set)      when spill is modeled
//	EF_t                environmental flow, ≥ 0               when env flow is modeled
//
// then the rows common to every mode (mass balance, capacity), then the
// sector-allocation block of the active mode, looked up in a dispatch table
// indexed by policy.Mode. Mode blocks may declare further variables
// (priority indicators Y_<sector>_t, violation flags V_t).
//
// Compose builds the objective over the same Layout. Extract and Evaluate
// read a solver.Solution and a plan.Plan back through the Layout; nothing
// outside this package needs to know variable indices.
//
// Build is deterministic: identical inputs yield byte-identical LP text.
package model
