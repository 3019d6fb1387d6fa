package lp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
)

type Middleware func(signal.Solver) signal.Solver

type PipelineConfig struct {
	Metrics MetricsRecorder
	Logger  *slog.Logger
}

type MetricsRecorder interface {
	ObserveSolve(vars int, duration time.Duration, err error)
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) ObserveSolve(int, time.Duration, error) {}

func Chain(base signal.Solver, middlewares ...Middleware) signal.Solver {
	s := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] == nil {
			continue
		}
		s = middlewares[i](s)
	}
	return s
}

func NewPipeline(base signal.Solver, cfg PipelineConfig) signal.Solver {
	if base == nil {
		return nil
	}

	s := base
	if cfg.Logger != nil {
		s = WithLogging(cfg.Logger)(s)
	}
	if cfg.Metrics != nil {
		s = WithMetrics(cfg.Metrics)(s)
	}
	return s
}

func WithMetrics(recorder MetricsRecorder) Middleware {
	return func(next signal.Solver) signal.Solver {
		return signal.SolverFunc(func(ctx context.Context, p signal.LinearProgram) ([]float64, error) {
			start := time.Now()
			x, err := next.Solve(ctx, p)
			recorder.ObserveSolve(p.NumVars(), time.Since(start), err)
			return x, err
		})
	}
}

func WithLogging(logger *slog.Logger) Middleware {
	return func(next signal.Solver) signal.Solver {
		return signal.SolverFunc(func(ctx context.Context, p signal.LinearProgram) ([]float64, error) {
			start := time.Now()
			x, err := next.Solve(ctx, p)
			if err != nil {
				logger.WarnContext(ctx, "lp solve failed",
					"vars", p.NumVars(),
					"constraints", len(p.Constraints),
					"error", err)
				return x, err
			}
			logger.DebugContext(ctx, "lp solved",
				"vars", p.NumVars(),
				"constraints", len(p.Constraints),
				"elapsed", time.Since(start),
				"x", x)
			return x, nil
		})
	}
}

// CounterRecorder keeps running totals of solver calls.
type CounterRecorder struct {
	mu       sync.Mutex
	calls    int64
	failures int64
	total    time.Duration
}

type CounterSnapshot struct {
	Calls         int64   `json:"calls"`
	Failures      int64   `json:"failures"`
	TotalMillis   float64 `json:"total_ms"`
	AverageMillis float64 `json:"average_ms"`
}

func (r *CounterRecorder) ObserveSolve(_ int, duration time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if err != nil {
		r.failures++
	}
	r.total += duration
}

func (r *CounterRecorder) Snapshot() CounterSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := CounterSnapshot{
		Calls:       r.calls,
		Failures:    r.failures,
		TotalMillis: float64(r.total) / float64(time.Millisecond),
	}
	if r.calls > 0 {
		snap.AverageMillis = snap.TotalMillis / float64(r.calls)
	}
	return snap
}
