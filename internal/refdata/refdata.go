// Package refdata holds the twelve-month reference reservoir used by tests,
// benchmarks and the bundled scenario files.
package refdata

import "github.com/katalvlaran/reservoir/series"

// Monthly columns of the reference study (January..December), m³.
var (
	Inflow        = []float64{3e6, 2.9e6, 2.7e6, 2.6e6, 2.2e6, 2e6, 150000, 900000, 1.5e6, 1.8e6, 2e6, 2.5e6}
	Outflow       = []float64{250000, 250000, 250000, 500000, 500000, 500000, 500000, 500000, 500000, 250000, 250000, 250000}
	Urban         = []float64{1.1e6, 1.1e6, 1.1e6, 1.2e6, 1.5e6, 1.7e6, 1.8e6, 1.7e6, 1.2e6, 1.1e6, 1.1e6, 1.1e6}
	Agricultural  = []float64{1.5e6, 1.5e6, 2e6, 3e6, 5e6, 5.5e6, 5.8e6, 6e6, 4.5e6, 1.5e6, 1.5e6, 1.5e6}
	Hydropower    = []float64{9e5, 9e5, 9e5, 9e5, 9e5, 9e5, 9e5, 9e5, 9e5, 9e5, 9e5, 9e5}
	MinEnvFlow    = []float64{5e5, 5e5, 7.5e5, 7.5e5, 7.5e5, 1e6, 1e6, 1e6, 7.5e5, 7.5e5, 7.5e5, 5e5}
	Precipitation = []float64{1e6, 8e5, 6e5, 3e5, 2e5, 1e5, 50000, 60000, 150000, 4e5, 7e5, 9e5}
)

// Reservoir scalars of the reference study.
const (
	Capacity       = 100e6
	InitialStorage = 50e6
)

func clone(v []float64) []float64 { return append([]float64(nil), v...) }

func demand() [series.NumSectors][]float64 {
	return [series.NumSectors][]float64{clone(Urban), clone(Agricultural), clone(Hydropower)}
}

// Shortage returns the inputs of the storage-maximizing studies: inflow,
// uncontrolled outflow and the three demand columns.
func Shortage() series.Inputs {
	return series.Inputs{
		Inflow:         clone(Inflow),
		Outflow:        clone(Outflow),
		Demand:         demand(),
		Capacity:       Capacity,
		InitialStorage: InitialStorage,
	}
}

// BenefitCost returns the inputs of the net-benefit study, where losses are
// evaporation, precipitation adds to inflow and a minimum environmental
// flow applies.
func BenefitCost() series.Inputs {
	return series.Inputs{
		Inflow:         clone(Inflow),
		Outflow:        make([]float64, len(Inflow)),
		Demand:         demand(),
		MinEnvFlow:     clone(MinEnvFlow),
		Evaporation:    clone(Outflow),
		Precipitation:  clone(Precipitation),
		Capacity:       Capacity,
		InitialStorage: InitialStorage,
	}
}

// MustTable builds a table and panics on invalid inputs. Test helper.
func MustTable(in series.Inputs) *series.Table {
	tab, err := series.NewTable(in)
	if err != nil {
		panic(err)
	}

	return tab
}
