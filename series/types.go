package series

import (
	"fmt"
	"strings"
)

// Period is a 1-based month index inside the planning horizon.
type Period int

// Sector is a category of water demand.
type Sector int

const (
	// Urban is municipal supply, always first in the default priority order.
	Urban Sector = iota

	// Agricultural is irrigation supply.
	Agricultural

	// Hydropower is turbine release.
	Hydropower

	// NumSectors is the number of demand sectors.
	NumSectors = 3
)

// Sectors lists every sector in the default priority order.
var Sectors = [NumSectors]Sector{Urban, Agricultural, Hydropower}

var sectorNames = [NumSectors]string{"urban", "agricultural", "hydropower"}

// String returns the lower-case sector name.
func (s Sector) String() string {
	if s < 0 || int(s) >= NumSectors {
		return fmt.Sprintf("sector(%d)", int(s))
	}

	return sectorNames[s]
}

// ParseSector resolves a sector name (case-insensitive, "irrigation" and
// "hydro" accepted as aliases).
func ParseSector(name string) (Sector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "urban":
		return Urban, nil
	case "agricultural", "agriculture", "irrigation":
		return Agricultural, nil
	case "hydropower", "hydro":
		return Hydropower, nil
	default:
		return 0, fmt.Errorf("series: unknown sector %q", name)
	}
}

// Inputs are the raw per-period columns of a run. Index 0 holds period 1.
//
// Inflow, Outflow and every Demand column are required. MinEnvFlow,
// Evaporation and Precipitation are optional: nil means "not modeled",
// a non-nil column must cover the whole horizon.
type Inputs struct {
	Inflow  []float64
	Outflow []float64
	Demand  [NumSectors][]float64

	MinEnvFlow    []float64
	Evaporation   []float64
	Precipitation []float64

	Capacity       float64
	InitialStorage float64
	MinStorage     float64
}

// Record is one period of validated inputs.
type Record struct {
	Period        Period
	Inflow        float64
	Outflow       float64
	Demand        [NumSectors]float64
	MinEnvFlow    float64
	Evaporation   float64
	Precipitation float64
}

// NetInflow is the uncontrolled change of storage in the period:
// inflow plus precipitation minus outflow and evaporation.
func (r Record) NetInflow() float64 {
	return r.Inflow + r.Precipitation - r.Outflow - r.Evaporation
}

// TotalDemand sums the demand of all sectors.
func (r Record) TotalDemand() float64 {
	return r.Demand[Urban] + r.Demand[Agricultural] + r.Demand[Hydropower]
}

// Table is the validated, read-only store of a run's inputs.
// rows[t-1] holds period t.
type Table struct {
	rows []Record

	capacity       float64
	initialStorage float64
	minStorage     float64

	hasEnvFlow bool
}
