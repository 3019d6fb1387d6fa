package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chenzhuyu2004/greensplit/internal/app"
	gserrors "github.com/chenzhuyu2004/greensplit/internal/errors"
	"github.com/chenzhuyu2004/greensplit/internal/report"
)

func newDelayCommand(c *cli) *cobra.Command {
	var in app.DelayInput

	cmd := &cobra.Command{
		Use:   "delay",
		Short: "Webster uniform delay of a single phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := cmd.Flags()
			if !fs.Changed("green") {
				return gserrors.Newf(gserrors.InputError, "--green is required")
			}
			if !fs.Changed("saturation") {
				in.Saturation = c.settings.SaturationNS
			}
			if !fs.Changed("cycle") {
				in.Cycle = c.settings.Cycle
			}

			out, err := app.New(nil, c.logger).Delay(in)
			if err != nil {
				return mapAppError(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), report.BuildDelay(in, out, c.asJSON()))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.Float64Var(&in.FlowVPH, "flow", 0, "arrival flow in veh/h")
	fs.Float64Var(&in.Green, "green", 0, "effective green in seconds")
	fs.Float64Var(&in.Saturation, "saturation", 0, "saturation flow in veh/s (default: North-South saturation)")
	fs.Float64Var(&in.Cycle, "cycle", 0, "cycle length in seconds (default: configured cycle)")
	return cmd
}
