package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/reservoir/internal/config"
	"github.com/katalvlaran/reservoir/internal/refdata"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
)

const twoMonths = `
name: two-months
reservoir:
  capacity: 100
  initial_storage: 50
  min_storage: 0
series:
  inflow: [30, 10]
  outflow: [5, 5]
  demand:
    urban: [10, 10]
    agricultural: [20, 20]
    hydropower: [5, 5]
policy:
  mode: strict-priority-continuous
  priority: [urban, agricultural, hydropower]
  coverage:
    - sector: agricultural
      periods: [2]
      fraction: 0.4
  economics:
    penalty_rate: 25
`

func TestParse_TwoMonths(t *testing.T) {
	sc, err := config.Parse(strings.NewReader(twoMonths))
	require.NoError(t, err)
	assert.Equal(t, "two-months", sc.Name)

	tab, err := sc.Table()
	require.NoError(t, err)
	assert.Equal(t, 2, tab.Horizon())
	assert.Equal(t, 100.0, tab.Capacity())

	cfg, err := sc.Config()
	require.NoError(t, err)
	assert.Equal(t, policy.StrictPriority, cfg.Mode)
	assert.Equal(t, 0.4, cfg.CoverageFloor(series.Agricultural, 2))
	assert.Equal(t, 1.0, cfg.CoverageFloor(series.Agricultural, 1))

	def := policy.DefaultEconomics()
	assert.Equal(t, 25.0, cfg.Economics.PenaltyRate)
	assert.Equal(t, def.WaterValue, cfg.Economics.WaterValue)
	assert.Equal(t, def.Crops, cfg.Economics.Crops)
	assert.Equal(t, def.SpillShares, cfg.Economics.SpillShares)
}

func TestParse_EnvOverride(t *testing.T) {
	t.Setenv("RESERVOIR_RESERVOIR_MIN_STORAGE", "7")

	sc, err := config.Parse(strings.NewReader(twoMonths))
	require.NoError(t, err)
	assert.Equal(t, 7.0, sc.Reservoir.MinStorage)
}

func TestParseRequest_IgnoresEnvironment(t *testing.T) {
	t.Setenv("RESERVOIR_RESERVOIR_MIN_STORAGE", "7")

	sc, err := config.ParseRequest(strings.NewReader(twoMonths))
	require.NoError(t, err)
	assert.Equal(t, 0.0, sc.Reservoir.MinStorage)
}

func TestParse_SimulationPreset(t *testing.T) {
	doc := strings.Replace(twoMonths, "penalty_rate: 25", "preset: simulation\n    penalty_rate: 25", 1)
	sc, err := config.Parse(strings.NewReader(doc))
	require.NoError(t, err)

	cfg, err := sc.Config()
	require.NoError(t, err)
	want := policy.SimulationEconomics()
	want.PenaltyRate = 25
	assert.Equal(t, want, cfg.Economics)
	assert.True(t, cfg.Economics.Seasonal())

	sc.Policy.Economics.Preset = "drought"
	_, err = sc.Config()
	assert.ErrorIs(t, err, config.ErrScenario)

	_, err = config.Parse(strings.NewReader(strings.Replace(doc, "preset: simulation", "preset: drought", 1)))
	assert.ErrorIs(t, err, config.ErrScenario)
}

func TestTable_FieldValidation(t *testing.T) {
	cases := map[string]func(*config.Scenario){
		"capacity":        func(s *config.Scenario) { s.Reservoir.Capacity = 0 },
		"min storage":     func(s *config.Scenario) { s.Reservoir.MinStorage = -1 },
		"missing inflow":  func(s *config.Scenario) { s.Series.Inflow = nil },
		"missing demand":  func(s *config.Scenario) { s.Series.Demand.Hydropower = nil },
		"negative demand": func(s *config.Scenario) { s.Series.Demand.Urban[3] = -1 },
		"negative evaporation": func(s *config.Scenario) {
			s.Series.Evaporation = make([]float64, len(s.Series.Inflow))
			s.Series.Evaporation[0] = -2
		},
	}
	for name, edit := range cases {
		t.Run(name, func(t *testing.T) {
			sc := config.Reference(policy.MinShortage)
			edit(sc)
			_, err := sc.Table()
			assert.ErrorIs(t, err, config.ErrScenario)
		})
	}

	sc := config.Reference(policy.MinShortage)
	sc.Reservoir.InitialStorage = 2 * sc.Reservoir.Capacity
	_, err := sc.Table()
	var ce *series.ConfigurationError
	assert.ErrorAs(t, err, &ce)
}

func TestParse_DefaultMode(t *testing.T) {
	sc, err := config.Parse(strings.NewReader("name: bare\n"))
	require.NoError(t, err)
	assert.Equal(t, policy.MinShortage.String(), sc.Policy.Mode)
}

func TestConfig_Rejections(t *testing.T) {
	cases := map[string]struct {
		edit func(*config.Scenario)
		want error
	}{
		"mode":      {func(s *config.Scenario) { s.Policy.Mode = "fastest" }, policy.ErrUnknownMode},
		"objective": {func(s *config.Scenario) { s.Policy.Objective = "max-fun" }, policy.ErrUnknownObjective},
		"priority":  {func(s *config.Scenario) { s.Policy.Priority = []string{"urban", "mining", "hydropower"} }, config.ErrScenario},
		"coverage":  {func(s *config.Scenario) { s.Policy.Coverage = []config.Coverage{{Sector: "urban", Fraction: 2}} }, policy.ErrBadCoverage},
		"shares":    {func(s *config.Scenario) { s.Policy.Economics.SpillShares = []float64{1} }, config.ErrScenario},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sc := config.Reference(policy.MinShortage)
			tc.edit(sc)
			_, err := sc.Config()
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestConfigFor_ObjectiveOnlyForOwnMode(t *testing.T) {
	sc := config.Reference(policy.MinShortage)
	sc.Policy.Objective = policy.MaxRelease.String()

	own, err := sc.Config()
	require.NoError(t, err)
	assert.Equal(t, policy.MaxRelease, own.EffectiveObjective())

	other, err := sc.ConfigFor(policy.MinUnmetDemand)
	require.NoError(t, err)
	assert.Equal(t, policy.MinUnmet, other.EffectiveObjective())
}

func TestReference_RoundTrip(t *testing.T) {
	for _, mode := range []policy.Mode{policy.MinShortage, policy.BenefitCost} {
		t.Run(mode.String(), func(t *testing.T) {
			b, err := config.Marshal(config.Reference(mode))
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, b, 0o600))
			sc, err := config.Load(path)
			require.NoError(t, err)

			want := refdata.Shortage()
			if mode == policy.BenefitCost {
				want = refdata.BenefitCost()
			}
			assert.Equal(t, want, sc.Inputs())

			cfg, err := sc.Config()
			require.NoError(t, err)
			assert.Equal(t, mode, cfg.Mode)
			assert.Equal(t, policy.DefaultEconomics(), cfg.Economics)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadServer(t *testing.T) {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	config.ServerFlags(fs)

	cfg, err := config.LoadServer(fs)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.DatabaseURL)

	t.Setenv("RESERVOIR_DATABASE_URL", "postgres://localhost/reservoir")
	require.NoError(t, fs.Parse([]string{"--addr", ":9090", "--parallelism", "2"}))
	cfg, err = config.LoadServer(fs)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 2, cfg.Parallelism)
	assert.Equal(t, "postgres://localhost/reservoir", cfg.DatabaseURL)

	require.NoError(t, fs.Parse([]string{"--parallelism", "0"}))
	_, err = config.LoadServer(fs)
	assert.Error(t, err)
}

func TestLoad_BundledScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.yaml"))
	require.NoError(t, err)
	require.Len(t, paths, 6)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			sc, err := config.Load(path)
			require.NoError(t, err)
			assert.NotEmpty(t, sc.Name)
			assert.NotEmpty(t, sc.Description)

			tab, err := sc.Table()
			require.NoError(t, err)
			assert.Equal(t, 12, tab.Horizon())

			_, err = sc.Config()
			require.NoError(t, err)
		})
	}
}
