package series

import (
	"errors"
	"fmt"
)

// Sentinels. Every ConfigurationError unwraps to exactly one of them.
var (
	// ErrEmptyHorizon is returned when Inflow has no entries.
	ErrEmptyHorizon = errors.New("series: empty planning horizon")

	// ErrMissingPeriod indicates a column that does not cover every period 1..N.
	ErrMissingPeriod = errors.New("series: missing period entry")

	// ErrNegativeValue indicates a negative physical flow.
	ErrNegativeValue = errors.New("series: negative value")

	// ErrNonFinite indicates a NaN or ±Inf entry.
	ErrNonFinite = errors.New("series: NaN or Inf value")

	// ErrCapacity indicates a non-positive or non-finite reservoir capacity.
	ErrCapacity = errors.New("series: capacity must be positive")

	// ErrInitialStorage indicates initial storage outside [0, Capacity].
	ErrInitialStorage = errors.New("series: initial storage outside [0, capacity]")

	// ErrMinStorage indicates minimum storage outside [0, Capacity].
	ErrMinStorage = errors.New("series: minimum storage outside [0, capacity]")

	// ErrPeriodOutOfRange is returned by Table lookups outside 1..N.
	ErrPeriodOutOfRange = errors.New("series: period out of range")
)

// ConfigurationError describes a rejected input column or scalar.
type ConfigurationError struct {
	Field  string  // column or scalar name, e.g. "inflow", "capacity"
	Period Period  // offending period, 0 for scalars and length errors
	Value  float64 // offending value when meaningful
	Err    error   // one of the package sentinels
}

func (e *ConfigurationError) Error() string {
	if e.Err == ErrMissingPeriod {
		return fmt.Sprintf("%v: %s has no entry for period %d", e.Err, e.Field, e.Period)
	}
	if e.Period > 0 {
		return fmt.Sprintf("%v: %s[%d]=%g", e.Err, e.Field, e.Period, e.Value)
	}

	return fmt.Sprintf("%v: %s=%g", e.Err, e.Field, e.Value)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *ConfigurationError) Unwrap() error { return e.Err }
