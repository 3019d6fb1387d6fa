package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/chenzhuyu2004/greensplit/internal/flows"
)

// LoadScenarios reads scenarios from src, mapping dataset failures to ErrDataset.
func (a *App) LoadScenarios(ctx context.Context, src ScenarioSource) ([]flows.Scenario, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: scenario source is not configured", ErrInput)
	}
	scenarios, err := src.Scenarios(ctx)
	if err != nil {
		return nil, classifyError(err)
	}
	return scenarios, nil
}

// Evaluate compares the equal-split baseline with the optimised split for every scenario.
// A failing scenario is recorded on its result and does not stop the batch.
// Evaluate 对每个场景比较等分基线与优化配时；单个场景失败只记录在其结果中，不中断批次。
func (a *App) Evaluate(ctx context.Context, in EvaluateInput) (EvaluateOutput, error) {
	params, err := normalizeParams(in.Params)
	if err != nil {
		return EvaluateOutput{}, err
	}
	if err := validateScenarioCount(len(in.Scenarios)); err != nil {
		return EvaluateOutput{}, err
	}
	if err := validateWorkers(in.Workers); err != nil {
		return EvaluateOutput{}, err
	}
	if err := validateTimeout(in.Timeout); err != nil {
		return EvaluateOutput{}, err
	}

	if in.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.Timeout)
		defer cancel()
	}

	workers := in.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(in.Scenarios))

	started := time.Now().UTC()
	runID := in.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := a.logger.With("run_id", runID)
	logger.InfoContext(ctx, "evaluation started", "scenarios", len(in.Scenarios), "workers", workers)

	results := make([]ScenarioResult, len(in.Scenarios))
	jobs := make(chan int)
	var wg sync.WaitGroup
	var observeMu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := range jobs {
				scenario := in.Scenarios[i]
				result, err := a.evaluateScenario(ctx, params, scenario)
				if err != nil {
					err = classifyError(err)
					result.Error = err.Error()
					result.ErrorKind = ErrorKind(err)
					logger.WarnContext(ctx, "scenario failed", "scenario", scenario.Name, "error", err)
				} else {
					logger.DebugContext(ctx, "scenario evaluated", "scenario", scenario.Name,
						"g_ns", result.Optimized.GreenNS, "g_eo", result.Optimized.GreenEO)
				}
				results[i] = result

				if in.Observer != nil {
					observeMu.Lock()
					in.Observer(result)
					observeMu.Unlock()
				}
			}
		}()
	}

feed:
	for i := range in.Scenarios {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return EvaluateOutput{}, fmt.Errorf("%w: evaluation timed out", ErrTimeout)
	}
	if err := ctx.Err(); err != nil {
		return EvaluateOutput{}, err
	}

	failed := lo.CountBy(results, func(r ScenarioResult) bool {
		return r.Failed()
	})
	if failed == len(results) {
		return EvaluateOutput{}, fmt.Errorf("%w: %d scenarios, first error: %s", ErrAllScenariosFailed, failed, results[0].Error)
	}

	logger.InfoContext(ctx, "evaluation finished", "failed", failed)
	return EvaluateOutput{
		RunID:      runID,
		Params:     params,
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
		Results:    results,
		Failed:     failed,
	}, nil
}
