// Package policy: functional configuration.
//
// New(mode, ...Option) is the only constructor. Option setters never fail;
// New validates the assembled Config once and returns a sentinel error on
// nonsensical values. A Config is a value: callers hold copies and no
// component mutates it after construction.
package policy

import (
	"math"
	"slices"

	"github.com/katalvlaran/reservoir/series"
)

// Config is the immutable policy input of a run.
type Config struct {
	Mode      Mode
	Objective Objective
	// Priority is the service order of the sectors, highest first.
	Priority  [series.NumSectors]series.Sector
	Coverage  []Coverage
	Economics Economics
	// Spill adds spill variables to modes that do not model them by default.
	Spill bool
	// EnvFlow adds environmental-flow variables to modes that do not model them.
	EnvFlow bool
	// SpillCap bounds spill per period; 0 means unbounded.
	SpillCap float64
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithObjective overrides the mode's default objective.
func WithObjective(o Objective) Option {
	return func(c *Config) { c.Objective = o }
}

// WithPriority sets the sector service order, highest priority first.
func WithPriority(order ...series.Sector) Option {
	return func(c *Config) {
		// A wrong-length order leaves a -1 slot behind so Validate rejects it.
		p := [series.NumSectors]series.Sector{-1, -1, -1}
		if len(order) == series.NumSectors {
			copy(p[:], order)
		}
		c.Priority = p
	}
}

// WithCoverage appends a partial-coverage floor.
func WithCoverage(sector series.Sector, fraction float64, periods ...series.Period) Option {
	return func(c *Config) {
		c.Coverage = append(c.Coverage, Coverage{
			Sector:   sector,
			Fraction: fraction,
			Periods:  slices.Clone(periods),
		})
	}
}

// WithEconomics replaces the economic coefficients.
func WithEconomics(e Economics) Option {
	return func(c *Config) {
		e.Crops = slices.Clone(e.Crops)
		e.SeasonalYield = slices.Clone(e.SeasonalYield)
		c.Economics = e
	}
}

// WithSpill models spill in every mode.
func WithSpill() Option {
	return func(c *Config) { c.Spill = true }
}

// WithEnvFlow models environmental flow in every mode.
func WithEnvFlow() Option {
	return func(c *Config) { c.EnvFlow = true }
}

// WithSpillCap bounds spill per period (0 = unbounded).
func WithSpillCap(limit float64) Option {
	return func(c *Config) { c.SpillCap = limit }
}

// New assembles and validates a Config.
// Defaults: the mode's objective, priority Urban → Agricultural → Hydropower,
// no coverage floors, DefaultEconomics.
func New(mode Mode, opts ...Option) (Config, error) {
	c := Config{
		Mode:      mode,
		Priority:  series.Sectors,
		Economics: DefaultEconomics(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks every field. It does not know the horizon length, so
// coverage periods are only checked for being ≥ 1 here; the model builder
// ignores periods beyond the horizon.
func (c Config) Validate() error {
	if c.Mode < 0 || c.Mode >= numModes {
		return ErrUnknownMode
	}
	if c.Objective < 0 || c.Objective >= numObjectives {
		return ErrUnknownObjective
	}

	var seen [series.NumSectors]bool
	for _, s := range c.Priority {
		if s < 0 || int(s) >= series.NumSectors || seen[s] {
			return ErrBadPriority
		}
		seen[s] = true
	}

	for _, cv := range c.Coverage {
		if cv.Sector < 0 || int(cv.Sector) >= series.NumSectors {
			return ErrBadCoverage
		}
		if math.IsNaN(cv.Fraction) || cv.Fraction < 0 || cv.Fraction > 1 {
			return ErrBadCoverage
		}
		for _, p := range cv.Periods {
			if p < 1 {
				return ErrBadCoverage
			}
		}
	}

	if err := c.Economics.validate(); err != nil {
		return err
	}
	if math.IsNaN(c.SpillCap) || c.SpillCap < 0 {
		return ErrBadSpillCap
	}

	return nil
}

func (e Economics) validate() error {
	scalars := []float64{
		e.WaterValue, e.TreatmentCost, e.IrrigationCost, e.EnergyPerUnit,
		e.ElectricityPrice, e.HydroOperationCost, e.PenaltyRate, e.CropPrice,
	}
	for _, c := range e.Crops {
		scalars = append(scalars, c.Price, c.Yield)
	}
	for _, v := range scalars {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrBadEconomics
		}
	}
	for _, y := range e.SeasonalYield {
		if math.IsNaN(y) || math.IsInf(y, 0) || y < 0 {
			return ErrBadEconomics
		}
	}
	for _, sh := range e.SpillShares {
		if math.IsNaN(sh) || math.IsInf(sh, 0) || sh < 0 {
			return ErrBadEconomics
		}
	}

	return nil
}

// EffectiveObjective resolves ObjectiveDefault to the mode's objective.
func (c Config) EffectiveObjective() Objective {
	if c.Objective != ObjectiveDefault {
		return c.Objective
	}

	return defaultObjective[c.Mode]
}

// ModelsSpill reports whether spill variables are part of the model.
func (c Config) ModelsSpill() bool { return c.Spill || c.Mode == BenefitCost }

// ModelsEnvFlow reports whether environmental-flow variables are part of the model.
func (c Config) ModelsEnvFlow() bool { return c.EnvFlow || c.Mode == BenefitCost }

// CoverageFloor returns the fraction of demand that must be served for
// sector s in period p. The last matching Coverage entry wins; 1 when none match.
func (c Config) CoverageFloor(s series.Sector, p series.Period) float64 {
	f := 1.0
	for _, cv := range c.Coverage {
		if cv.Sector == s && slices.Contains(cv.Periods, p) {
			f = cv.Fraction
		}
	}

	return f
}

// Rank returns the 0-based priority position of sector s.
func (c Config) Rank(s series.Sector) int {
	for i, p := range c.Priority {
		if p == s {
			return i
		}
	}

	return -1
}
