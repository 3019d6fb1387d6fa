package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chenzhuyu2004/greensplit/internal/app"
	"github.com/chenzhuyu2004/greensplit/internal/config"
	gserrors "github.com/chenzhuyu2004/greensplit/internal/errors"
	"github.com/chenzhuyu2004/greensplit/internal/lp"
	"github.com/chenzhuyu2004/greensplit/internal/server"
)

func newServeCommand(c *cli) *cobra.Command {
	var (
		params  paramFlags
		run     runFlags
		dataset datasetFlags
		addr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the evaluator over HTTP with websocket progress events",
		Args:  cobra.NoArgs,
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
			if cmd.Flags().Changed("addr") {
				settings.Addr = addr
			}

			src, err := buildScenarioSource(settings, dataset.label, !dataset.noToy, c.logger)
			if err != nil {
				return gserrors.New(err, gserrors.InputError)
			}

			metrics := &lp.CounterRecorder{}
			srv := server.New(server.Config{
				App:     app.New(buildSolver(settings.Solver, metrics, c.logger), c.logger),
				Source:  src,
				Params:  paramsFromSettings(settings),
				Workers: settings.Workers,
				Timeout: settings.Timeout,
				Metrics: metrics,
				Logger:  c.logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, settings.Addr)
		},
	}

	addParamFlags(cmd, &params)
	addRunFlags(cmd, &run)
	addDatasetFlags(cmd, &dataset)
	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "HTTP listen address")
	return cmd
}
