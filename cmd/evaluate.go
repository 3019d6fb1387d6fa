package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chenzhuyu2004/greensplit/internal/app"
	gserrors "github.com/chenzhuyu2004/greensplit/internal/errors"
	"github.com/chenzhuyu2004/greensplit/internal/report"
)

func newEvaluateCommand(c *cli) *cobra.Command {
	var (
		params  paramFlags
		run     runFlags
		dataset datasetFlags
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compare the optimised split with an equal split across demand scenarios",
		Long: `evaluate runs every scenario (the toy presets plus, optionally, hourly means
from a traffic volume CSV) through the baseline and the optimiser and prints
per-scenario splits, delays and the relative improvement.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := c.settings
			if err := params.apply(cmd, &settings); err != nil {
				return gserrors.New(err, gserrors.InputError)
			}
			if err := run.apply(cmd, &settings); err != nil {
				return gserrors.New(err, gserrors.InputError)
			}
			if err := dataset.apply(cmd, &settings); err != nil {
				return gserrors.New(err, gserrors.InputError)
			}

			src, err := buildScenarioSource(settings, dataset.label, !dataset.noToy, c.logger)
			if err != nil {
				return gserrors.New(err, gserrors.InputError)
			}

			ctx := cmd.Context()
			svc := app.New(buildSolver(settings.Solver, nil, c.logger), c.logger)
			scenarios, err := svc.LoadScenarios(ctx, src)
			if err != nil {
				return mapAppError(err)
			}

			out, err := svc.Evaluate(ctx, app.EvaluateInput{
				Params:    paramsFromSettings(settings),
				Scenarios: scenarios,
				Workers:   settings.Workers,
				Timeout:   settings.Timeout,
			})
			if err != nil {
				return mapAppError(err)
			}

			fmt.Fprint(cmd.OutOrStdout(), report.BuildEvaluation(out, c.asJSON(), report.BuildOptions{Color: !color.NoColor}))

			if outDir != "" {
				csvPath, err := report.WriteResultsCSVFile(outDir, out.Results)
				if err != nil {
					return gserrors.New(err, gserrors.InputError)
				}
				chartPath, err := report.WriteDelayChart(outDir, out.Results)
				if err != nil {
					return gserrors.New(err, gserrors.InputError)
				}
				c.logger.Info("artifacts written", "csv", csvPath, "chart", chartPath)
			}
			return nil
		},
	}

	addParamFlags(cmd, &params)
	addRunFlags(cmd, &run)
	addDatasetFlags(cmd, &dataset)
	cmd.Flags().StringVar(&outDir, "out-dir", "", "write "+report.ResultsCSVName+" and "+report.DelayChartName+" into this directory")
	return cmd
}
