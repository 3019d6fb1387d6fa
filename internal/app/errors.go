package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
	"github.com/chenzhuyu2004/greensplit/internal/flows"
)

var (
	ErrInput              = errors.New("input error")
	ErrInfeasible         = errors.New("infeasible")
	ErrSolver             = errors.New("solver error")
	ErrDataset            = errors.New("dataset error")
	ErrTimeout            = errors.New("timeout")
	ErrAllScenariosFailed = errors.New("all scenarios failed")
)

// classifyError maps domain and dataset errors onto the application sentinels,
// keeping the original error in the chain.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInput) ||
		errors.Is(err, ErrInfeasible) ||
		errors.Is(err, ErrSolver) ||
		errors.Is(err, ErrDataset) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrAllScenariosFailed) {
		return err
	}

	var datasetErr *flows.DatasetError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, signal.ErrInfeasibleBounds):
		return fmt.Errorf("%w: %w", ErrInfeasible, err)
	case errors.Is(err, signal.ErrSolverFailure):
		return fmt.Errorf("%w: %w", ErrSolver, err)
	case errors.Is(err, signal.ErrInvalidInput):
		return fmt.Errorf("%w: %w", ErrInput, err)
	case errors.As(err, &datasetErr):
		return fmt.Errorf("%w: %w", ErrDataset, err)
	}
	return err
}

// ErrorKind names the class of an error for per-scenario reporting.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrInfeasible):
		return "infeasible"
	case errors.Is(err, ErrSolver):
		return "solver"
	case errors.Is(err, ErrDataset):
		return "dataset"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
