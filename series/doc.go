// Package series holds the per-period hydrologic inputs of a planning run.
//
// A run starts from Inputs: plain columns (one value per month) for inflow,
// uncontrolled outflow, sectoral demands and the optional environmental-flow,
// evaporation and precipitation terms, plus the reservoir scalars (capacity,
// initial storage, minimum storage).
//
// NewTable validates Inputs once and freezes them into a Table: a fixed-size,
// array-of-structs view keyed by Period 1..N. Every downstream component
// (model builder, simulator, result extractor) reads the Table and never the
// raw columns.
//
// Validation is strict and happens before any model is built:
//   - every required column has exactly N entries (no gaps, no defaults);
//   - optional columns are either absent (nil) or exactly N entries;
//   - physical flows are finite and non-negative;
//   - Capacity > 0, InitialStorage and MinStorage within [0, Capacity].
//
// Failures are reported as *ConfigurationError wrapping one of the sentinels
// in errors.go, so callers match with errors.Is.
//
//	tab, err := series.NewTable(in)
//	if errors.Is(err, series.ErrInitialStorage) {
//	    // initial storage outside [0, Capacity]
//	}
package series
