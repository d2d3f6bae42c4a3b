// Package plan is the engine-neutral result of a run: per-period storage,
// releases, spill and environmental flow, the objective value and the solve
// status. Both the optimizer (via model.Extract) and the greedy simulator
// produce a *Plan; the checks in this package verify either one against the
// series.Table it was computed from.
package plan

import (
	"encoding/json"
	"fmt"

	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
	"github.com/katalvlaran/reservoir/solver"
)

// Source names the engine that produced a plan.
type Source string

const (
	Optimizer Source = "optimizer"
	Simulator Source = "simulator"
)

// Step is the allocation of one period.
type Step struct {
	Period  series.Period              `json:"period"`
	Storage float64                    `json:"storage"`
	Release [series.NumSectors]float64 `json:"release"`
	Demand  [series.NumSectors]float64 `json:"demand"`
	Spill   float64                    `json:"spill"`
	EnvFlow float64                    `json:"env_flow"`
	// Violation is 1 when the environmental-flow minimum was waived.
	Violation float64 `json:"violation,omitempty"`
	// Makeup is water the simulator added to hold storage at its minimum.
	Makeup float64 `json:"makeup,omitempty"`
}

// TotalRelease sums the sector releases.
func (s Step) TotalRelease() float64 {
	return s.Release[series.Urban] + s.Release[series.Agricultural] + s.Release[series.Hydropower]
}

// Unmet returns max(0, demand − release) for sector sec.
func (s Step) Unmet(sec series.Sector) float64 {
	return max(0, s.Demand[sec]-s.Release[sec])
}

// Plan is immutable once returned by a constructor in this module.
type Plan struct {
	Source         Source        `json:"source"`
	Mode           policy.Mode   `json:"-"`
	ModeName       string        `json:"mode"`
	Objective      string        `json:"objective"`
	Status         solver.Status `json:"status"`
	Value          float64       `json:"value"`
	Periods        int           `json:"periods"`
	InitialStorage float64       `json:"initial_storage"`
	HasSpill       bool          `json:"has_spill"`
	HasEnvFlow     bool          `json:"has_env_flow"`
	// Steps is empty unless Status is Optimal.
	Steps []Step `json:"steps,omitempty"`
	// Fingerprint is the hash of the model text, empty for simulator plans.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// UnmarshalJSON decodes a plan and restores Mode from its name. An unknown
// name is an error.
func (p *Plan) UnmarshalJSON(b []byte) error {
	type wire Plan
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.ModeName != "" {
		m, err := policy.ParseMode(w.ModeName)
		if err != nil {
			return fmt.Errorf("plan: %w", err)
		}
		w.Mode = m
	}
	*p = Plan(w)

	return nil
}

// Err returns a *StatusError when the plan is not Optimal, nil otherwise.
func (p *Plan) Err() error {
	if p.Status == solver.Optimal {
		return nil
	}

	return &StatusError{Status: p.Status, Mode: p.Mode, First: 1, Last: series.Period(p.Periods)}
}

// Storage returns the storage series in period order.
func (p *Plan) Storage() []float64 {
	return p.column(func(s Step) float64 { return s.Storage })
}

// Releases returns the release series of sector s.
func (p *Plan) Releases(s series.Sector) []float64 {
	return p.column(func(st Step) float64 { return st.Release[s] })
}

// Spill returns the spill series.
func (p *Plan) Spill() []float64 {
	return p.column(func(s Step) float64 { return s.Spill })
}

// EnvFlow returns the environmental-flow series.
func (p *Plan) EnvFlow() []float64 {
	return p.column(func(s Step) float64 { return s.EnvFlow })
}

// TotalUnmet sums unmet demand over all periods and sectors.
func (p *Plan) TotalUnmet() float64 {
	var u float64
	for _, st := range p.Steps {
		for _, s := range series.Sectors {
			u += st.Unmet(s)
		}
	}

	return u
}

func (p *Plan) column(f func(Step) float64) []float64 {
	out := make([]float64, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = f(s)
	}

	return out
}

// StatusError reports a run that ended without an optimal plan.
type StatusError struct {
	Status solver.Status
	Mode   policy.Mode
	First  series.Period
	Last   series.Period
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("plan: %s solve for mode %s over periods %d..%d", e.Status, e.Mode, e.First, e.Last)
}
