package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/chenzhuyu2004/greensplit/internal/app"
	"github.com/chenzhuyu2004/greensplit/internal/config"
	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
	gserrors "github.com/chenzhuyu2004/greensplit/internal/errors"
	"github.com/chenzhuyu2004/greensplit/internal/flows"
	"github.com/chenzhuyu2004/greensplit/internal/lp"
)

const defaultDatasetLabel = "kaggle"

func mapAppError(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *gserrors.ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	switch {
	case errors.Is(err, app.ErrAllScenariosFailed):
		return gserrors.New(err, gserrors.AllScenariosFailed)
	case errors.Is(err, app.ErrInput):
		return gserrors.New(err, gserrors.InputError)
	case errors.Is(err, app.ErrInfeasible):
		return gserrors.New(err, gserrors.InfeasibleBounds)
	case errors.Is(err, app.ErrSolver):
		return gserrors.New(err, gserrors.SolverFailure)
	case errors.Is(err, app.ErrDataset):
		return gserrors.New(err, gserrors.DatasetError)
	case errors.Is(err, app.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return gserrors.New(err, gserrors.Timeout)
	default:
		return gserrors.New(err, gserrors.InputError)
	}
}

// buildSolver returns nil for the closed form; the allocator then skips the LP backend.
func buildSolver(name string, metrics lp.MetricsRecorder, logger *slog.Logger) signal.Solver {
	if name != config.SolverSimplex {
		return nil
	}
	return lp.NewPipeline(lp.Simplex{}, lp.PipelineConfig{
		Metrics: metrics,
		Logger:  logger,
	})
}

// buildScenarioSource combines the toy presets with the optional dataset source.
func buildScenarioSource(s config.Settings, label string, includeToy bool, logger *slog.Logger) (app.ScenarioSource, error) {
	var sources []flows.Source
	if includeToy {
		sources = append(sources, flows.Toy{})
	}

	if s.Dataset != "" {
		path, err := config.ExpandPath(s.Dataset)
		if err != nil {
			return nil, err
		}
		cacheDir := ""
		if s.CacheDir != "" {
			if cacheDir, err = config.ExpandPath(s.CacheDir); err != nil {
				return nil, err
			}
		}
		if label == "" {
			label = defaultDatasetLabel
		}

		profile := &flows.CachedProfile{
			Inner: flows.CSVDataset{
				Path:         path,
				TimeColumn:   s.TimeColumn,
				VolumeColumn: s.VolumeColumn,
			},
			CacheDir: cacheDir,
			TTL:      s.CacheTTL,
		}
		sources = append(sources, flows.Optional(flows.HourlyScenarios{
			Profile: profile,
			Hours:   s.DatasetHours,
			Label:   label,
		}, logger))
	}

	if len(sources) == 0 {
		return nil, errors.New("no scenario source: enable the toy scenarios or pass --dataset")
	}
	return flows.Multi(sources...), nil
}
