package series_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/reservoir/series"
)

// smallInputs returns a valid three-month input set.
func smallInputs() series.Inputs {
	return series.Inputs{
		Inflow:  []float64{10, 12, 8},
		Outflow: []float64{1, 1, 1},
		Demand: [series.NumSectors][]float64{
			{2, 2, 3},
			{4, 5, 6},
			{1, 1, 1},
		},
		Capacity:       100,
		InitialStorage: 50,
	}
}

// TestNewTable_Valid checks the array-of-structs layout and accessors.
func TestNewTable_Valid(t *testing.T) {
	tab, err := series.NewTable(smallInputs())
	require.NoError(t, err)

	assert.Equal(t, 3, tab.Horizon())
	assert.Equal(t, 100.0, tab.Capacity())
	assert.Equal(t, 50.0, tab.InitialStorage())
	assert.Equal(t, 0.0, tab.MinStorage())
	assert.False(t, tab.HasEnvFlow())

	r, err := tab.At(2)
	require.NoError(t, err)
	assert.Equal(t, series.Period(2), r.Period)
	assert.Equal(t, 12.0, r.Inflow)
	assert.Equal(t, [series.NumSectors]float64{2, 5, 1}, r.Demand)
	assert.Equal(t, 11.0, r.NetInflow())
	assert.Equal(t, 8.0, r.TotalDemand())

	_, err = tab.At(0)
	assert.ErrorIs(t, err, series.ErrPeriodOutOfRange)
	_, err = tab.At(4)
	assert.ErrorIs(t, err, series.ErrPeriodOutOfRange)

	assert.Equal(t, []float64{4, 5, 6}, tab.Demand(series.Agricultural))
}

// TestNewTable_CopiesInput ensures later mutation of Inputs does not leak into the Table.
func TestNewTable_CopiesInput(t *testing.T) {
	in := smallInputs()
	tab, err := series.NewTable(in)
	require.NoError(t, err)

	in.Inflow[0] = 999
	in.Demand[series.Urban][0] = 999

	r, _ := tab.At(1)
	assert.Equal(t, 10.0, r.Inflow)
	assert.Equal(t, 2.0, r.Demand[series.Urban])
}

// TestNewTable_InitialStorageAboveCapacity is the Capacity=10, InitialStorage=20 case.
func TestNewTable_InitialStorageAboveCapacity(t *testing.T) {
	in := smallInputs()
	in.Capacity = 10
	in.InitialStorage = 20

	tab, err := series.NewTable(in)
	assert.Nil(t, tab)
	require.ErrorIs(t, err, series.ErrInitialStorage)

	var cfgErr *series.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "initial_storage", cfgErr.Field)
	assert.Equal(t, 20.0, cfgErr.Value)
}

// TestValidate_Rejections walks every rejection path.
func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*series.Inputs)
		want   error
		field  string
	}{
		{"empty horizon", func(in *series.Inputs) { in.Inflow = nil }, series.ErrEmptyHorizon, "inflow"},
		{"zero capacity", func(in *series.Inputs) { in.Capacity = 0 }, series.ErrCapacity, "capacity"},
		{"negative capacity", func(in *series.Inputs) { in.Capacity = -5 }, series.ErrCapacity, "capacity"},
		{"negative initial", func(in *series.Inputs) { in.InitialStorage = -1 }, series.ErrInitialStorage, "initial_storage"},
		{"min above capacity", func(in *series.Inputs) { in.MinStorage = 160 }, series.ErrMinStorage, "min_storage"},
		{"short outflow", func(in *series.Inputs) { in.Outflow = in.Outflow[:2] }, series.ErrMissingPeriod, "outflow"},
		{"missing demand", func(in *series.Inputs) { in.Demand[series.Hydropower] = nil }, series.ErrMissingPeriod, "demand_hydropower"},
		{"long demand", func(in *series.Inputs) { in.Demand[series.Urban] = []float64{1, 1, 1, 1} }, series.ErrPeriodOutOfRange, "demand_urban"},
		{"negative inflow", func(in *series.Inputs) { in.Inflow[1] = -3 }, series.ErrNegativeValue, "inflow"},
		{"NaN outflow", func(in *series.Inputs) { in.Outflow[2] = math.NaN() }, series.ErrNonFinite, "outflow"},
		{"short env flow", func(in *series.Inputs) { in.MinEnvFlow = []float64{1} }, series.ErrMissingPeriod, "min_env_flow"},
		{"inf precipitation", func(in *series.Inputs) { in.Precipitation = []float64{0, math.Inf(1), 0} }, series.ErrNonFinite, "precipitation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := smallInputs()
			tc.mutate(&in)

			_, err := in.Validate()
			require.ErrorIs(t, err, tc.want)

			var cfgErr *series.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tc.field, cfgErr.Field)
			assert.NotEmpty(t, cfgErr.Error())
		})
	}
}

// TestMissingPeriodMessage pins the period reported for a short column.
func TestMissingPeriodMessage(t *testing.T) {
	in := smallInputs()
	in.Demand[series.Agricultural] = []float64{4, 5}

	_, err := in.Validate()
	var cfgErr *series.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, series.Period(3), cfgErr.Period)
	assert.Contains(t, err.Error(), "demand_agricultural has no entry for period 3")
}

// TestOptionalColumns checks evaporation/precipitation/env-flow handling.
func TestOptionalColumns(t *testing.T) {
	in := smallInputs()
	in.MinEnvFlow = []float64{1, 1, 2}
	in.Evaporation = []float64{0.5, 0.5, 0.5}
	in.Precipitation = []float64{2, 0, 0}

	tab, err := series.NewTable(in)
	require.NoError(t, err)
	assert.True(t, tab.HasEnvFlow())

	r, _ := tab.At(1)
	assert.Equal(t, 10.0+2-1-0.5, r.NetInflow())

	back := tab.Inputs()
	assert.Equal(t, in.MinEnvFlow, back.MinEnvFlow)
	assert.Equal(t, in.Evaporation, back.Evaporation)
	assert.Equal(t, in.Precipitation, back.Precipitation)
	assert.Equal(t, in.Demand, back.Demand)
}

// TestParseSector covers names and aliases.
func TestParseSector(t *testing.T) {
	for name, want := range map[string]series.Sector{
		"urban": series.Urban, "Irrigation": series.Agricultural,
		"agricultural": series.Agricultural, " hydro ": series.Hydropower,
	} {
		got, err := series.ParseSector(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := series.ParseSector("industrial")
	assert.Error(t, err)
	assert.Equal(t, "hydropower", series.Hydropower.String())
	assert.Equal(t, "sector(7)", series.Sector(7).String())
}
