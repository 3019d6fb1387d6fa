package app

import (
	"errors"
	"math"

	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
)

// StabilityMinimum is the green time (s) that keeps a phase's volume-to-capacity ratio at xMax.
// StabilityMinimum 返回使相位饱和度恰为 xMax 的绿灯时间（秒）。
func StabilityMinimum(flowVPH float64, cycle float64, xMax float64, saturation float64) float64 {
	return vphToVehPerSecond(flowVPH) * cycle / (xMax * saturation)
}

// effectiveBounds tightens the global green bounds with the per-phase stability minimums.
// When the tightened bounds leave no feasible split it returns the global bounds with fallback set.
func effectiveBounds(p Params, minNS float64, minEO float64) (cfg signal.CycleConfig, fallback bool, err error) {
	gminEff := math.Max(p.GMin, math.Max(minNS, minEO))
	gmaxEff := math.Min(p.GMax, p.Cycle-gminEff)

	if gminEff > gmaxEff {
		return p.CycleConfig(), true, nil
	}

	cfg = signal.CycleConfig{Cycle: p.Cycle, GMin: gminEff, GMax: gmaxEff}
	if _, err := signal.FeasibleInterval(cfg); err != nil {
		if errors.Is(err, signal.ErrInfeasibleBounds) {
			return p.CycleConfig(), true, nil
		}
		return signal.CycleConfig{}, false, err
	}
	return cfg, false, nil
}
