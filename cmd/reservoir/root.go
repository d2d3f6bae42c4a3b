package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/katalvlaran/reservoir/engine"
	"github.com/katalvlaran/reservoir/internal/config"
	"github.com/katalvlaran/reservoir/internal/logging"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
	"github.com/katalvlaran/reservoir/solver"
)

// app carries state shared by the subcommands.
type app struct {
	log   logr.Logger
	flush func()

	logLevel   string
	logConsole bool

	mode      string
	format    string
	fallback  bool
	nodeLimit int
	timeLimit time.Duration
}

func newRootCmd() *cobra.Command {
	a := &app{log: logr.Discard(), flush: func() {}}

	root := &cobra.Command{
		Use:           "reservoir",
		Short:         "Reservoir release planning: optimization and simulation",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, flush, err := logging.New(logging.Options{
				Level:   a.logLevel,
				Console: a.logConsole,
				Output:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			a.log, a.flush = log, flush
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) { a.flush() },
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "info", `log level: debug, info, warn, error or a verbosity such as "v2"`)
	pf.BoolVar(&a.logConsole, "log-console", false, "human readable logs instead of JSON")

	root.AddCommand(
		a.solveCmd(),
		a.simulateCmd(),
		a.compareCmd(),
		a.lpCmd(),
		a.initCmd(),
		a.serveCmd(),
	)

	return root
}

func (a *app) modeFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&a.mode, "mode", "m", "", "override the scenario mode")
}

func (a *app) formatFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&a.format, "format", "o", formatTable, "output format: table, csv or json")
}

func (a *app) solverFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&a.fallback, "fallback", false, "simulate when the solver fails")
	fs.IntVar(&a.nodeLimit, "node-limit", solver.DefaultNodeLimit, "branch-and-bound node budget")
	fs.DurationVar(&a.timeLimit, "time-limit", 0, "wall time budget per solve (0 disables)")
}

func (a *app) engine(extra ...engine.Option) (*engine.Engine, error) {
	if a.nodeLimit < 1 {
		return nil, fmt.Errorf("--node-limit must be >= 1, got %d", a.nodeLimit)
	}
	if a.timeLimit < 0 {
		return nil, fmt.Errorf("--time-limit must be >= 0, got %s", a.timeLimit)
	}
	slv := solver.NewSimplex(
		solver.WithNodeLimit(a.nodeLimit),
		solver.WithTimeLimit(a.timeLimit),
		solver.WithLogger(a.log.WithName("solver")),
	)
	opts := []engine.Option{engine.WithSolver(slv), engine.WithLogger(a.log.WithName("engine"))}
	if a.fallback {
		opts = append(opts, engine.WithFallback())
	}

	return engine.New(append(opts, extra...)...), nil
}

var errArgs = errors.New("at most one scenario file")

// scenario loads args[0], or the reference study for the selected mode.
func (a *app) scenario(args []string) (*config.Scenario, *series.Table, error) {
	var sc *config.Scenario
	switch len(args) {
	case 0:
		mode := policy.MinShortage
		if a.mode != "" {
			m, err := policy.ParseMode(a.mode)
			if err != nil {
				return nil, nil, err
			}
			mode = m
		}
		sc = config.Reference(mode)
	case 1:
		var err error
		if sc, err = config.Load(args[0]); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, errArgs
	}
	if a.mode != "" {
		sc.Policy.Mode = a.mode
	}
	tab, err := sc.Table()
	if err != nil {
		return nil, nil, err
	}
	a.log.V(1).Info("scenario loaded", "name", sc.Name, "periods", tab.Horizon(), "mode", sc.Policy.Mode)

	return sc, tab, nil
}
