// Package series - validation of raw Inputs.
//
// Staged, side-effect free checks. Each stage returns the first violation as
// a *ConfigurationError; nothing is defaulted or repaired.
package series

import "math"

// Column names used in ConfigurationError.Field.
const (
	fieldInflow        = "inflow"
	fieldOutflow       = "outflow"
	fieldMinEnvFlow    = "min_env_flow"
	fieldEvaporation   = "evaporation"
	fieldPrecipitation = "precipitation"
	fieldCapacity      = "capacity"
	fieldInitial       = "initial_storage"
	fieldMinStorage    = "min_storage"
)

// Validate checks the Inputs without building a Table.
// It returns the horizon length N on success.
func (in *Inputs) Validate() (int, error) {
	// Stage 1: horizon length comes from the inflow column.
	n := len(in.Inflow)
	if n == 0 {
		return 0, &ConfigurationError{Field: fieldInflow, Err: ErrEmptyHorizon}
	}

	// Stage 2: reservoir scalars.
	if err := validateScalars(in.Capacity, in.InitialStorage, in.MinStorage); err != nil {
		return 0, err
	}

	// Stage 3: required columns.
	if err := validateColumn(fieldInflow, in.Inflow, n, true); err != nil {
		return 0, err
	}
	if err := validateColumn(fieldOutflow, in.Outflow, n, true); err != nil {
		return 0, err
	}
	for _, s := range Sectors {
		if err := validateColumn(demandField(s), in.Demand[s], n, true); err != nil {
			return 0, err
		}
	}

	// Stage 4: optional columns.
	if err := validateColumn(fieldMinEnvFlow, in.MinEnvFlow, n, false); err != nil {
		return 0, err
	}
	if err := validateColumn(fieldEvaporation, in.Evaporation, n, false); err != nil {
		return 0, err
	}
	if err := validateColumn(fieldPrecipitation, in.Precipitation, n, false); err != nil {
		return 0, err
	}

	return n, nil
}

func demandField(s Sector) string { return "demand_" + s.String() }

// validateScalars enforces Capacity > 0, InitialStorage and MinStorage in [0, Capacity].
func validateScalars(capacity, initial, minStorage float64) error {
	if !isFinite(capacity) || capacity <= 0 {
		return &ConfigurationError{Field: fieldCapacity, Value: capacity, Err: ErrCapacity}
	}
	if !isFinite(initial) || initial < 0 || initial > capacity {
		return &ConfigurationError{Field: fieldInitial, Value: initial, Err: ErrInitialStorage}
	}
	if !isFinite(minStorage) || minStorage < 0 || minStorage > capacity {
		return &ConfigurationError{Field: fieldMinStorage, Value: minStorage, Err: ErrMinStorage}
	}

	return nil
}

// validateColumn checks length, finiteness and sign of one column.
// An optional column may be nil; a present column must have exactly n entries.
func validateColumn(field string, col []float64, n int, required bool) error {
	if col == nil && !required {
		return nil
	}
	if len(col) < n {
		return &ConfigurationError{Field: field, Period: Period(len(col) + 1), Err: ErrMissingPeriod}
	}
	if len(col) > n {
		// Entries beyond the horizon are periods that do not exist.
		return &ConfigurationError{Field: field, Period: Period(n + 1), Value: col[n], Err: ErrPeriodOutOfRange}
	}
	for i, v := range col {
		if !isFinite(v) {
			return &ConfigurationError{Field: field, Period: Period(i + 1), Value: v, Err: ErrNonFinite}
		}
		if v < 0 {
			return &ConfigurationError{Field: field, Period: Period(i + 1), Value: v, Err: ErrNegativeValue}
		}
	}

	return nil
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
