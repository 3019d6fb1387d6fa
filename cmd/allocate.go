package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chenzhuyu2004/greensplit/internal/app"
	gserrors "github.com/chenzhuyu2004/greensplit/internal/errors"
	"github.com/chenzhuyu2004/greensplit/internal/report"
)

func newAllocateCommand(c *cli) *cobra.Command {
	var (
		params paramFlags
		flowA  float64
		flowB  float64
	)

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Optimise the green split of one intersection",
		Long: `allocate splits the cycle between phase A (North-South saturation) and
phase B (East-West saturation) for explicit per-phase flows, ignoring the
demand shares and the stability target.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := c.settings
			if err := params.apply(cmd, &settings); err != nil {
				return gserrors.New(err, gserrors.InputError)
			}

			in := app.AllocateInput{
				FlowAVPH:    flowA,
				FlowBVPH:    flowB,
				SaturationA: settings.SaturationNS,
				SaturationB: settings.SaturationEO,
				Cycle:       settings.Cycle,
				GMin:        settings.GMin,
				GMax:        settings.GMax,
			}
			svc := app.New(buildSolver(settings.Solver, nil, c.logger), c.logger)
			out, err := svc.Allocate(cmd.Context(), in)
			if err != nil {
				return mapAppError(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), report.BuildAllocation(in, out, c.asJSON(), report.BuildOptions{Color: !color.NoColor}))
			return nil
		},
	}

	addParamFlags(cmd, &params)
	cmd.Flags().Float64Var(&flowA, "flow-a", 0, "phase A arrival flow in veh/h")
	cmd.Flags().Float64Var(&flowB, "flow-b", 0, "phase B arrival flow in veh/h")
	return cmd
}
