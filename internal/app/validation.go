package app

import (
	"fmt"
	"math"
	"time"

	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
)

const (
	maxScenarioCount = 10000
	maxWorkers       = 256
	maxTimeout       = 10 * time.Minute
	shareTolerance   = 1e-9
)

func validateParams(p Params) error {
	values := []struct {
		name  string
		value float64
	}{
		{"cycle", p.Cycle},
		{"saturation_ns", p.SaturationNS},
		{"saturation_eo", p.SaturationEO},
		{"g_min", p.GMin},
		{"g_max", p.GMax},
		{"ns_share", p.NSShare},
		{"eo_share", p.EOShare},
		{"x_max", p.XMax},
	}
	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInput, v.name)
		}
	}

	if p.SaturationNS <= 0 || p.SaturationEO <= 0 {
		return fmt.Errorf("%w: saturation flows must be > 0", ErrInput)
	}
	if p.NSShare < 0 || p.EOShare < 0 {
		return fmt.Errorf("%w: flow shares must be >= 0", ErrInput)
	}
	if math.Abs(p.NSShare+p.EOShare-1) > shareTolerance {
		return fmt.Errorf("%w: flow shares must sum to 1, got %g", ErrInput, p.NSShare+p.EOShare)
	}
	if p.XMax <= 0 || p.XMax > 1 {
		return fmt.Errorf("%w: x_max must be in (0, 1]", ErrInput)
	}
	if _, err := signal.FeasibleInterval(p.CycleConfig()); err != nil {
		return classifyError(err)
	}
	return nil
}

func validateScenarioCount(n int) error {
	if n == 0 {
		return fmt.Errorf("%w: no scenarios to evaluate", ErrInput)
	}
	if n > maxScenarioCount {
		return fmt.Errorf("%w: scenario count must be <= %d", ErrInput, maxScenarioCount)
	}
	return nil
}

func validateWorkers(workers int) error {
	if workers > maxWorkers {
		return fmt.Errorf("%w: workers must be <= %d", ErrInput, maxWorkers)
	}
	return nil
}

func validateTimeout(timeout time.Duration) error {
	if timeout > maxTimeout {
		return fmt.Errorf("%w: timeout must be <= %s", ErrInput, maxTimeout)
	}
	return nil
}
