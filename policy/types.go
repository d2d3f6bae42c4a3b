// Package policy defines the immutable configuration of an allocation run:
// which constraint variant is active, which objective is optimized, the
// sector priority order, partial-coverage floors and economic coefficients.
package policy

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/reservoir/series"
)

// Mode selects the sector-allocation constraint block of the model.
//
//   - MinShortage        : every release is floored at its demand.
//   - StrictPriority     : continuous priority cascade with equalities.
//   - PriorityIndicator  : binary priority indicators with conditional floors.
//   - MinUnmetDemand     : first priority met exactly, the rest floored at residuals.
//   - BenefitCost        : deterministic coverage, spill and env-flow accounting.
type Mode int

const (
	MinShortage Mode = iota
	StrictPriority
	PriorityIndicator
	MinUnmetDemand
	BenefitCost

	numModes
)

var modeNames = [numModes]string{
	"min-storage-shortage",
	"strict-priority-continuous",
	"strict-priority-indicator",
	"min-unmet-demand",
	"benefit-cost",
}

// Modes lists every supported mode in declaration order.
func Modes() []Mode {
	out := make([]Mode, numModes)
	for i := range out {
		out[i] = Mode(i)
	}

	return out
}

// String returns the selector used in scenario files and on the command line.
func (m Mode) String() string {
	if m < 0 || m >= numModes {
		return fmt.Sprintf("mode(%d)", int(m))
	}

	return modeNames[m]
}

// ParseMode resolves a mode selector.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Objective selects the scalar objective composed over the model variables.
type Objective int

const (
	// ObjectiveDefault picks the objective associated with the Mode.
	ObjectiveDefault Objective = iota
	MaxStorage
	MaxRelease
	MinUnmet
	MaxNetBenefit

	numObjectives
)

var objectiveNames = [numObjectives]string{
	"default", "max-storage", "max-release", "min-unmet", "max-net-benefit",
}

func (o Objective) String() string {
	if o < 0 || o >= numObjectives {
		return fmt.Sprintf("objective(%d)", int(o))
	}

	return objectiveNames[o]
}

// ParseObjective resolves an objective selector; "" maps to ObjectiveDefault.
func ParseObjective(s string) (Objective, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ObjectiveDefault, nil
	}
	for i, name := range objectiveNames {
		if name == s {
			return Objective(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownObjective, s)
}

// defaultObjective maps each mode to the objective it was designed around.
var defaultObjective = [numModes]Objective{
	MinShortage:       MaxStorage,
	StrictPriority:    MaxStorage,
	PriorityIndicator: MaxRelease,
	MinUnmetDemand:    MinUnmet,
	BenefitCost:       MaxNetBenefit,
}

// Coverage lowers the floor of one sector's release to Fraction × demand in
// the listed periods (e.g. 40% of agricultural demand in June–August).
type Coverage struct {
	Sector   series.Sector
	Periods  []series.Period
	Fraction float64
}

// Crop is one entry of the crop revenue table.
type Crop struct {
	Name  string
	Price float64 // $/kg
	Yield float64 // kg
}

// Economics holds the monetary coefficients of the net-benefit objective.
type Economics struct {
	WaterValue         float64 // $/m³ of urban supply
	TreatmentCost      float64 // $/m³ of urban supply
	Crops              []Crop
	IrrigationCost     float64 // $/m³ of agricultural supply
	EnergyPerUnit      float64 // kWh produced per m³ turbined
	ElectricityPrice   float64 // $/kWh
	HydroOperationCost float64 // $/m³ turbined
	PenaltyRate        float64 // $ per environmental-flow violation
	// SpillShares apportions spill to sectors for the opportunity-cost term.
	SpillShares [series.NumSectors]float64

	// CropPrice × SeasonalYield[t−1] is the crop revenue of period t. When
	// SeasonalYield is set it replaces the Crops table.
	CropPrice     float64   // $/kg
	SeasonalYield []float64 // kg per period

	// HydroSpillAtRevenue values spilled hydropower water at the energy it
	// would have sold instead of at the operating cost.
	HydroSpillAtRevenue bool
}

// Seasonal reports whether crop revenue is booked per period.
func (e Economics) Seasonal() bool { return e.SeasonalYield != nil }

// CropRevenue is the crop revenue over a horizon of n periods: Σ price ×
// yield of the Crops table, or Σ CropPrice × SeasonalYield[t] for t ≤ n.
// It does not depend on any release.
func (e Economics) CropRevenue(n int) float64 {
	var total float64
	if e.Seasonal() {
		for t := 1; t <= n; t++ {
			total += e.CropRevenueAt(series.Period(t))
		}
		return total
	}
	for _, c := range e.Crops {
		total += c.Price * c.Yield
	}

	return total
}

// CropRevenueAt is the seasonal crop revenue of period p; zero without a
// seasonal table or past its end.
func (e Economics) CropRevenueAt(p series.Period) float64 {
	if p < 1 || int(p) > len(e.SeasonalYield) {
		return 0
	}

	return e.CropPrice * e.SeasonalYield[p-1]
}

// UnitNetValue returns the linear objective coefficient of one m³ released to s.
func (e Economics) UnitNetValue(s series.Sector) float64 {
	switch s {
	case series.Urban:
		return e.WaterValue - e.TreatmentCost
	case series.Agricultural:
		return -e.IrrigationCost
	case series.Hydropower:
		return e.EnergyPerUnit*e.ElectricityPrice - e.HydroOperationCost
	default:
		return 0
	}
}

// SpillUnitCost returns the opportunity cost of one m³ spilled, weighted by
// the sector shares.
func (e Economics) SpillUnitCost() float64 {
	hydro := e.HydroOperationCost
	if e.HydroSpillAtRevenue {
		hydro = e.EnergyPerUnit * e.ElectricityPrice
	}

	return e.SpillShares[series.Urban]*e.WaterValue +
		e.SpillShares[series.Agricultural]*e.IrrigationCost +
		e.SpillShares[series.Hydropower]*hydro
}

// DefaultEconomics returns the coefficients of the reference benefit-cost study.
func DefaultEconomics() Economics {
	return Economics{
		WaterValue:    1,
		TreatmentCost: 0.2,
		Crops: []Crop{
			{Name: "A", Price: 2.50, Yield: 700},
			{Name: "B", Price: 2.00, Yield: 950},
			{Name: "C", Price: 1.50, Yield: 800},
			{Name: "D", Price: 1.10, Yield: 600},
		},
		IrrigationCost:     0.30,
		EnergyPerUnit:      14.705,
		ElectricityPrice:   0.15,
		HydroOperationCost: 0.03,
		PenaltyRate:        10,
		SpillShares:        [series.NumSectors]float64{0.3, 0.5, 0.2},
	}
}

// SimulationEconomics returns the coefficients used to price the greedy
// simulation study: one crop sold at a seasonal yield, spill shared
// 17/52/30 and hydropower spill valued at lost energy sales.
func SimulationEconomics() Economics {
	return Economics{
		WaterValue:          1,
		TreatmentCost:       0.2,
		IrrigationCost:      0.30,
		EnergyPerUnit:       14.705,
		ElectricityPrice:    0.15,
		HydroOperationCost:  0.03,
		SpillShares:         [series.NumSectors]float64{0.17, 0.52, 0.30},
		CropPrice:           2.50,
		SeasonalYield:       []float64{0, 0, 0, 100, 200, 500, 600, 700, 500, 200, 100, 0},
		HydroSpillAtRevenue: true,
	}
}
