// Package config loads run scenarios and server settings.
//
// A scenario file is YAML read through viper. Files loaded from disk take
// environment overrides with the RESERVOIR_ prefix and dots replaced by
// underscores (RESERVOIR_RESERVOIR_MIN_STORAGE=5e6); scenarios posted to the
// server are read as sent.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/reservoir/internal/refdata"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RESERVOIR"

// ErrScenario wraps every scenario decoding problem.
var ErrScenario = errors.New("config: invalid scenario")

// Scenario is the on-disk description of one study.
type Scenario struct {
	Name        string    `yaml:"name" mapstructure:"name"`
	Description string    `yaml:"description,omitempty" mapstructure:"description"`
	Reservoir   Reservoir `yaml:"reservoir" mapstructure:"reservoir"`
	Series      Series    `yaml:"series" mapstructure:"series"`
	Policy      Policy    `yaml:"policy" mapstructure:"policy"`
}

// Reservoir holds the scalar parameters, m³.
type Reservoir struct {
	Capacity       float64 `yaml:"capacity" mapstructure:"capacity" validate:"gt=0"`
	InitialStorage float64 `yaml:"initial_storage" mapstructure:"initial_storage" validate:"gte=0"`
	MinStorage     float64 `yaml:"min_storage,omitempty" mapstructure:"min_storage" validate:"gte=0"`
}

// Series holds the per-period columns, January first.
type Series struct {
	Inflow        []float64 `yaml:"inflow" mapstructure:"inflow" validate:"required,dive,gte=0"`
	Outflow       []float64 `yaml:"outflow" mapstructure:"outflow" validate:"required,dive,gte=0"`
	Evaporation   []float64 `yaml:"evaporation,omitempty" mapstructure:"evaporation" validate:"omitempty,dive,gte=0"`
	Precipitation []float64 `yaml:"precipitation,omitempty" mapstructure:"precipitation" validate:"omitempty,dive,gte=0"`
	MinEnvFlow    []float64 `yaml:"min_env_flow,omitempty" mapstructure:"min_env_flow" validate:"omitempty,dive,gte=0"`
	Demand        Demand    `yaml:"demand" mapstructure:"demand"`
}

// Demand holds one column per sector.
type Demand struct {
	Urban        []float64 `yaml:"urban" mapstructure:"urban" validate:"required,dive,gte=0"`
	Agricultural []float64 `yaml:"agricultural" mapstructure:"agricultural" validate:"required,dive,gte=0"`
	Hydropower   []float64 `yaml:"hydropower" mapstructure:"hydropower" validate:"required,dive,gte=0"`
}

// Policy selects the formulation.
type Policy struct {
	Mode      string     `yaml:"mode" mapstructure:"mode"`
	Objective string     `yaml:"objective,omitempty" mapstructure:"objective"`
	Priority  []string   `yaml:"priority,omitempty" mapstructure:"priority"`
	Coverage  []Coverage `yaml:"coverage,omitempty" mapstructure:"coverage"`
	EnvFlow   bool       `yaml:"env_flow,omitempty" mapstructure:"env_flow"`
	Spill     bool       `yaml:"spill,omitempty" mapstructure:"spill"`
	SpillCap  float64    `yaml:"spill_cap,omitempty" mapstructure:"spill_cap"`
	Economics Economics  `yaml:"economics,omitempty" mapstructure:"economics"`
}

// Coverage lowers one sector's floor in the listed periods.
type Coverage struct {
	Sector   string  `yaml:"sector" mapstructure:"sector"`
	Periods  []int   `yaml:"periods" mapstructure:"periods"`
	Fraction float64 `yaml:"fraction" mapstructure:"fraction"`
}

// Crop is one crop revenue entry.
type Crop struct {
	Name  string  `yaml:"name" mapstructure:"name"`
	Price float64 `yaml:"price" mapstructure:"price"`
	Yield float64 `yaml:"yield" mapstructure:"yield"`
}

// Economics presets name the coefficient sets a scenario starts from.
const (
	PresetBenefitCost = "benefit-cost"
	PresetSimulation  = "simulation"
)

// EconomicsPreset returns the coefficients named by preset; "" is
// PresetBenefitCost.
func EconomicsPreset(preset string) (policy.Economics, error) {
	switch preset {
	case "", PresetBenefitCost:
		return policy.DefaultEconomics(), nil
	case PresetSimulation:
		return policy.SimulationEconomics(), nil
	default:
		return policy.Economics{}, fmt.Errorf("%w: unknown economics preset %q", ErrScenario, preset)
	}
}

// Economics mirrors policy.Economics. Absent scalars keep the preset's
// values; absent crops, yields or shares take the preset's tables.
type Economics struct {
	Preset             string    `yaml:"preset,omitempty" mapstructure:"preset"`
	WaterValue         float64   `yaml:"water_value" mapstructure:"water_value"`
	TreatmentCost      float64   `yaml:"treatment_cost" mapstructure:"treatment_cost"`
	Crops              []Crop    `yaml:"crops,omitempty" mapstructure:"crops"`
	IrrigationCost     float64   `yaml:"irrigation_cost" mapstructure:"irrigation_cost"`
	EnergyPerUnit      float64   `yaml:"energy_per_unit" mapstructure:"energy_per_unit"`
	ElectricityPrice   float64   `yaml:"electricity_price" mapstructure:"electricity_price"`
	HydroOperationCost float64   `yaml:"hydro_operation_cost" mapstructure:"hydro_operation_cost"`
	PenaltyRate        float64   `yaml:"penalty_rate" mapstructure:"penalty_rate"`
	SpillShares        []float64 `yaml:"spill_shares,omitempty" mapstructure:"spill_shares"`
	CropPrice          float64   `yaml:"crop_price,omitempty" mapstructure:"crop_price"`
	SeasonalYield      []float64 `yaml:"seasonal_yield,omitempty" mapstructure:"seasonal_yield"`

	// HydroSpillAtRevenue prices hydropower spill at lost energy sales.
	HydroSpillAtRevenue bool `yaml:"hydro_spill_at_revenue,omitempty" mapstructure:"hydro_spill_at_revenue"`
}

func economicsScalars(e policy.Economics) Economics {
	return Economics{
		WaterValue:          e.WaterValue,
		TreatmentCost:       e.TreatmentCost,
		IrrigationCost:      e.IrrigationCost,
		EnergyPerUnit:       e.EnergyPerUnit,
		ElectricityPrice:    e.ElectricityPrice,
		HydroOperationCost:  e.HydroOperationCost,
		PenaltyRate:         e.PenaltyRate,
		CropPrice:           e.CropPrice,
		HydroSpillAtRevenue: e.HydroSpillAtRevenue,
	}
}

func fromEconomics(e policy.Economics) Economics {
	out := economicsScalars(e)
	for _, c := range e.Crops {
		out.Crops = append(out.Crops, Crop(c))
	}
	out.SpillShares = append([]float64(nil), e.SpillShares[:]...)
	if e.SeasonalYield != nil {
		out.SeasonalYield = append([]float64(nil), e.SeasonalYield...)
	}

	return out
}

func (e Economics) policy() (policy.Economics, error) {
	base, err := EconomicsPreset(e.Preset)
	if err != nil {
		return policy.Economics{}, err
	}
	out := policy.Economics{
		WaterValue:          e.WaterValue,
		TreatmentCost:       e.TreatmentCost,
		IrrigationCost:      e.IrrigationCost,
		EnergyPerUnit:       e.EnergyPerUnit,
		ElectricityPrice:    e.ElectricityPrice,
		HydroOperationCost:  e.HydroOperationCost,
		PenaltyRate:         e.PenaltyRate,
		CropPrice:           e.CropPrice,
		HydroSpillAtRevenue: e.HydroSpillAtRevenue,
		Crops:               base.Crops,
		SeasonalYield:       base.SeasonalYield,
		SpillShares:         base.SpillShares,
	}
	if e.SeasonalYield != nil {
		out.SeasonalYield = e.SeasonalYield
	}
	if e.Crops != nil {
		out.Crops = make([]policy.Crop, len(e.Crops))
		for i, c := range e.Crops {
			out.Crops[i] = policy.Crop(c)
		}
	}
	if e.SpillShares != nil {
		if len(e.SpillShares) != series.NumSectors {
			return policy.Economics{}, fmt.Errorf("%w: spill_shares needs %d values, got %d",
				ErrScenario, series.NumSectors, len(e.SpillShares))
		}
		copy(out.SpillShares[:], e.SpillShares)
	}

	return out, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func newViper(env bool) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	if env {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	return v
}

// Load reads a scenario file, applying environment overrides.
func Load(path string) (*Scenario, error) {
	v := newViper(true)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	return decode(v)
}

// Parse reads a scenario from r, applying environment overrides.
func Parse(r io.Reader) (*Scenario, error) {
	return parse(r, true)
}

// ParseRequest reads a scenario from r exactly as sent, without
// environment overrides.
func ParseRequest(r io.Reader) (*Scenario, error) {
	return parse(r, false)
}

func parse(r io.Reader, env bool) (*Scenario, error) {
	v := newViper(env)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("config: read scenario: %w", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Scenario, error) {
	base, err := EconomicsPreset(v.GetString("policy.economics.preset"))
	if err != nil {
		return nil, err
	}
	sc := &Scenario{Policy: Policy{Economics: economicsScalars(base)}}
	if err := v.Unmarshal(sc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScenario, err)
	}
	if sc.Policy.Mode == "" {
		sc.Policy.Mode = policy.MinShortage.String()
	}

	return sc, nil
}

// Write encodes sc as YAML.
func Write(w io.Writer, sc *Scenario) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sc); err != nil {
		return fmt.Errorf("config: encode scenario: %w", err)
	}

	return enc.Close()
}

// Marshal is Write into a byte slice.
func Marshal(sc *Scenario) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, sc); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Inputs converts the reservoir and series sections.
func (s *Scenario) Inputs() series.Inputs {
	d := s.Series.Demand

	return series.Inputs{
		Inflow:         s.Series.Inflow,
		Outflow:        s.Series.Outflow,
		Demand:         [series.NumSectors][]float64{d.Urban, d.Agricultural, d.Hydropower},
		MinEnvFlow:     s.Series.MinEnvFlow,
		Evaporation:    s.Series.Evaporation,
		Precipitation:  s.Series.Precipitation,
		Capacity:       s.Reservoir.Capacity,
		InitialStorage: s.Reservoir.InitialStorage,
		MinStorage:     s.Reservoir.MinStorage,
	}
}

// Validate checks the reservoir and series sections field by field.
// Cross-field rules (equal column lengths, storage within capacity) are
// left to series.NewTable.
func (s *Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrScenario, err)
	}

	return nil
}

// Table validates the inputs.
func (s *Scenario) Table() (*series.Table, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return series.NewTable(s.Inputs())
}

// Config converts the policy section.
func (s *Scenario) Config() (policy.Config, error) {
	mode, err := policy.ParseMode(s.Policy.Mode)
	if err != nil {
		return policy.Config{}, err
	}

	return s.ConfigFor(mode)
}

// ConfigFor converts the policy section with the mode replaced. The
// objective override only applies when mode is the scenario's own mode.
func (s *Scenario) ConfigFor(mode policy.Mode) (policy.Config, error) {
	p := s.Policy
	var opts []policy.Option

	if p.Objective != "" && p.Mode == mode.String() {
		obj, err := policy.ParseObjective(p.Objective)
		if err != nil {
			return policy.Config{}, err
		}
		opts = append(opts, policy.WithObjective(obj))
	}
	if len(p.Priority) > 0 {
		order := make([]series.Sector, len(p.Priority))
		for i, name := range p.Priority {
			sec, err := series.ParseSector(name)
			if err != nil {
				return policy.Config{}, fmt.Errorf("%w: priority: %w", ErrScenario, err)
			}
			order[i] = sec
		}
		opts = append(opts, policy.WithPriority(order...))
	}
	for _, c := range p.Coverage {
		sec, err := series.ParseSector(c.Sector)
		if err != nil {
			return policy.Config{}, fmt.Errorf("%w: coverage: %w", ErrScenario, err)
		}
		periods := make([]series.Period, len(c.Periods))
		for i, t := range c.Periods {
			periods[i] = series.Period(t)
		}
		opts = append(opts, policy.WithCoverage(sec, c.Fraction, periods...))
	}
	econ, err := p.Economics.policy()
	if err != nil {
		return policy.Config{}, err
	}
	opts = append(opts, policy.WithEconomics(econ))
	if p.EnvFlow {
		opts = append(opts, policy.WithEnvFlow())
	}
	if p.Spill {
		opts = append(opts, policy.WithSpill())
	}
	if p.SpillCap > 0 {
		opts = append(opts, policy.WithSpillCap(p.SpillCap))
	}

	return policy.New(mode, opts...)
}

// Reference returns the bundled twelve-month study for mode, with the
// benefit-cost columns when mode is BenefitCost.
func Reference(mode policy.Mode) *Scenario {
	in := refdata.Shortage()
	if mode == policy.BenefitCost {
		in = refdata.BenefitCost()
	}

	return &Scenario{
		Name: "reference-" + mode.String(),
		Reservoir: Reservoir{
			Capacity:       in.Capacity,
			InitialStorage: in.InitialStorage,
			MinStorage:     in.MinStorage,
		},
		Series: Series{
			Inflow:        in.Inflow,
			Outflow:       in.Outflow,
			Evaporation:   in.Evaporation,
			Precipitation: in.Precipitation,
			MinEnvFlow:    in.MinEnvFlow,
			Demand: Demand{
				Urban:        in.Demand[series.Urban],
				Agricultural: in.Demand[series.Agricultural],
				Hydropower:   in.Demand[series.Hydropower],
			},
		},
		Policy: Policy{
			Mode:      mode.String(),
			Economics: fromEconomics(policy.DefaultEconomics()),
		},
	}
}
