package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chenzhuyu2004/greensplit/internal/app"
	"github.com/chenzhuyu2004/greensplit/internal/config"
	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
	"github.com/chenzhuyu2004/greensplit/internal/report"
)

func newBoundsCommand(c *cli) *cobra.Command {
	var cfg signal.CycleConfig

	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Feasible green interval for the first phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := cmd.Flags()
			if !fs.Changed("cycle") {
				cfg.Cycle = c.settings.Cycle
			}
			if !fs.Changed("g-min") {
				cfg.GMin = c.settings.GMin
			}
			if !fs.Changed("g-max") {
				cfg.GMax = c.settings.GMax
			}

			interval, err := app.New(nil, c.logger).Bounds(cfg)
			if err != nil {
				return mapAppError(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), report.BuildBounds(cfg, interval, c.asJSON()))
			return nil
		},
	}

	d := config.Defaults()
	fs := cmd.Flags()
	fs.Float64Var(&cfg.Cycle, "cycle", d.Cycle, "cycle length C in seconds")
	fs.Float64Var(&cfg.GMin, "g-min", d.GMin, "minimum green per phase in seconds")
	fs.Float64Var(&cfg.GMax, "g-max", d.GMax, "maximum green per phase in seconds")
	return cmd
}
