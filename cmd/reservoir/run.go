package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/reservoir/engine"
	"github.com/katalvlaran/reservoir/internal/config"
	"github.com/katalvlaran/reservoir/model"
	"github.com/katalvlaran/reservoir/policy"
)

func (a *app) solveCmd() *cobra.Command {
	var economics bool
	cmd := &cobra.Command{
		Use:   "solve [scenario.yaml]",
		Short: "Optimize a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, tab, err := a.scenario(args)
			if err != nil {
				return err
			}
			cfg, err := sc.Config()
			if err != nil {
				return err
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}
			p, err := eng.Optimize(cmd.Context(), tab, cfg)
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), a.format, p); err != nil {
				return err
			}
			if economics && p.Err() == nil {
				if err := renderValuation(cmd.OutOrStdout(), a.format, eng.Economics(p, cfg)); err != nil {
					return err
				}
			}

			return p.Err()
		},
	}
	a.modeFlag(cmd.Flags())
	a.formatFlag(cmd.Flags())
	a.solverFlags(cmd.Flags())
	cmd.Flags().BoolVar(&economics, "economics", false, "append the net-benefit breakdown")

	return cmd
}

func (a *app) simulateCmd() *cobra.Command {
	var crossCheck, economics bool
	cmd := &cobra.Command{
		Use:   "simulate [scenario.yaml]",
		Short: "Run the greedy priority rule",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, tab, err := a.scenario(args)
			if err != nil {
				return err
			}
			cfg, err := sc.Config()
			if err != nil {
				return err
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}
			sim, err := eng.Simulate(cmd.Context(), tab, cfg)
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), a.format, sim); err != nil {
				return err
			}
			if economics {
				if err := renderValuation(cmd.OutOrStdout(), a.format, eng.Economics(sim, cfg)); err != nil {
					return err
				}
			}
			if !crossCheck {
				return nil
			}

			refCfg, err := sc.ConfigFor(policy.MinShortage)
			if err != nil {
				return err
			}
			opt, err := eng.Optimize(cmd.Context(), tab, refCfg)
			if err != nil {
				return err
			}
			d, err := engine.CrossCheck(sim, opt, 1e-6)
			for _, x := range d {
				fmt.Fprintf(cmd.ErrOrStderr(), "period %d %s: simulated %.2f > optimal %.2f\n",
					x.Period, x.Sector, x.Simulated, x.Optimal)
			}
			if err == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "cross-check: ok")
			}

			return err
		},
	}
	a.modeFlag(cmd.Flags())
	a.formatFlag(cmd.Flags())
	cmd.Flags().BoolVar(&crossCheck, "cross-check", false, "verify against the min-storage-shortage optimum")
	cmd.Flags().BoolVar(&economics, "economics", false, "append the net-benefit breakdown")

	return cmd
}

func (a *app) compareCmd() *cobra.Command {
	var (
		modes       []string
		parallelism int
	)
	cmd := &cobra.Command{
		Use:   "compare [scenario.yaml]",
		Short: "Optimize a scenario under several modes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if parallelism < 1 {
				return fmt.Errorf("--parallelism must be >= 1, got %d", parallelism)
			}
			sc, tab, err := a.scenario(args)
			if err != nil {
				return err
			}
			list := policy.Modes()
			if len(modes) > 0 {
				list = list[:0:0]
				for _, name := range modes {
					m, err := policy.ParseMode(strings.TrimSpace(name))
					if err != nil {
						return err
					}
					list = append(list, m)
				}
			}
			cfgs := make([]policy.Config, len(list))
			for i, m := range list {
				if cfgs[i], err = sc.ConfigFor(m); err != nil {
					return err
				}
			}
			eng, err := a.engine(engine.WithParallelism(parallelism))
			if err != nil {
				return err
			}
			plans, err := eng.Compare(cmd.Context(), tab, cfgs)
			if err != nil {
				return err
			}
			vals := make([]model.Valuation, len(plans))
			for i, p := range plans {
				vals[i] = eng.Economics(p, cfgs[i])
			}

			return renderComparison(cmd.OutOrStdout(), a.format, plans, vals)
		},
	}
	a.formatFlag(cmd.Flags())
	a.solverFlags(cmd.Flags())
	cmd.Flags().StringSliceVar(&modes, "modes", nil, "modes to compare (default all)")
	cmd.Flags().IntVar(&parallelism, "parallelism", engine.DefaultParallelism, "concurrent solves")

	return cmd
}

func (a *app) lpCmd() *cobra.Command {
	var fingerprint bool
	cmd := &cobra.Command{
		Use:   "lp [scenario.yaml]",
		Short: "Print the model in CPLEX LP format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, tab, err := a.scenario(args)
			if err != nil {
				return err
			}
			cfg, err := sc.Config()
			if err != nil {
				return err
			}
			pr, err := model.Build(tab, cfg)
			if err != nil {
				return err
			}
			if fingerprint {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), pr.Model.Fingerprint())
				return err
			}

			return pr.Model.WriteLP(cmd.OutOrStdout())
		},
	}
	a.modeFlag(cmd.Flags())
	cmd.Flags().BoolVar(&fingerprint, "fingerprint", false, "print only the SHA-256 of the LP text")

	return cmd
}

func (a *app) initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Print the reference scenario as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := policy.MinShortage
			if a.mode != "" {
				m, err := policy.ParseMode(a.mode)
				if err != nil {
					return err
				}
				mode = m
			}

			return config.Write(cmd.OutOrStdout(), config.Reference(mode))
		},
	}
	a.modeFlag(cmd.Flags())

	return cmd
}
