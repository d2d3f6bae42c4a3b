package plan

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/reservoir/series"
)

var (
	// ErrMassBalance indicates a period whose storage change does not match its flows.
	ErrMassBalance = errors.New("plan: mass balance violated")

	// ErrBounds indicates storage outside [MinStorage, Capacity] or a negative flow.
	ErrBounds = errors.New("plan: bound violated")

	// ErrPriority indicates a lower-priority release exceeding the storage left after urban supply.
	ErrPriority = errors.New("plan: priority order violated")

	// ErrHorizon indicates a plan whose steps do not match the table horizon.
	ErrHorizon = errors.New("plan: horizon mismatch")
)

// CheckError locates a failed check.
type CheckError struct {
	Err    error
	Period series.Period
	Field  string
	Got    float64
	Want   float64
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%v: period %d %s=%g, want %g", e.Err, e.Period, e.Field, e.Got, e.Want)
}

func (e *CheckError) Unwrap() error { return e.Err }

func (p *Plan) checkHorizon(tab *series.Table) error {
	if len(p.Steps) != tab.Horizon() {
		return &CheckError{Err: ErrHorizon, Field: "steps", Got: float64(len(p.Steps)), Want: float64(tab.Horizon())}
	}

	return nil
}

// CheckMassBalance verifies, for every period,
//
//	S[t] = S[t-1] + NetInflow[t] − ΣR[t] − Spill[t] − EF[t] + Makeup[t]
//
// within relTol relative to the largest flow of the period.
func (p *Plan) CheckMassBalance(tab *series.Table, relTol float64) error {
	if err := p.checkHorizon(tab); err != nil {
		return err
	}

	prev := p.InitialStorage
	for i, st := range p.Steps {
		rec, err := tab.At(series.Period(i + 1))
		if err != nil {
			return err
		}
		want := prev + rec.NetInflow() - st.TotalRelease() - st.Spill - st.EnvFlow + st.Makeup
		scale := max(1, math.Abs(prev), rec.Inflow+rec.Precipitation, rec.Outflow+rec.Evaporation,
			st.TotalRelease(), st.Spill, st.EnvFlow, st.Makeup)
		if math.Abs(st.Storage-want) > relTol*scale {
			return &CheckError{Err: ErrMassBalance, Period: st.Period, Field: "storage", Got: st.Storage, Want: want}
		}
		prev = st.Storage
	}

	return nil
}

// CheckBounds verifies MinStorage ≤ S[t] ≤ Capacity and that every release,
// spill and environmental flow is non-negative, within relTol relative to capacity.
func (p *Plan) CheckBounds(tab *series.Table, relTol float64) error {
	if err := p.checkHorizon(tab); err != nil {
		return err
	}

	tol := relTol * max(1, tab.Capacity())
	for _, st := range p.Steps {
		if st.Storage < tab.MinStorage()-tol {
			return &CheckError{Err: ErrBounds, Period: st.Period, Field: "storage", Got: st.Storage, Want: tab.MinStorage()}
		}
		if st.Storage > tab.Capacity()+tol {
			return &CheckError{Err: ErrBounds, Period: st.Period, Field: "storage", Got: st.Storage, Want: tab.Capacity()}
		}
		for _, s := range series.Sectors {
			if st.Release[s] < -tol {
				return &CheckError{Err: ErrBounds, Period: st.Period, Field: "release_" + s.String(), Got: st.Release[s]}
			}
		}
		if st.Spill < -tol {
			return &CheckError{Err: ErrBounds, Period: st.Period, Field: "spill", Got: st.Spill}
		}
		if st.EnvFlow < -tol {
			return &CheckError{Err: ErrBounds, Period: st.Period, Field: "env_flow", Got: st.EnvFlow}
		}
	}

	return nil
}

// CheckPriority verifies that in every period where urban demand is fully
// met, the agricultural release does not exceed Storage[t] − UrbanRelease[t].
func (p *Plan) CheckPriority(relTol float64) error {
	for _, st := range p.Steps {
		u := st.Release[series.Urban]
		if st.Demand[series.Urban]-u > relTol*max(1, st.Demand[series.Urban]) {
			continue
		}
		limit := st.Storage - u
		if st.Release[series.Agricultural] > limit+relTol*max(1, math.Abs(st.Storage)) {
			return &CheckError{Err: ErrPriority, Period: st.Period, Field: "release_agricultural",
				Got: st.Release[series.Agricultural], Want: limit}
		}
	}

	return nil
}
