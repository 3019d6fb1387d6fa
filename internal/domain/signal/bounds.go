package signal

import "math"

// FeasibleInterval derives the range of phase A green times for which phase B's green,
// cycle - gA, also stays within [GMin, GMax].
// FeasibleInterval 推导 A 相位绿灯的可行区间，使 B 相位绿灯 cycle - gA 同样落在 [GMin, GMax] 内。
//
// An empty interval is reported as *InfeasibleBoundsError; the bounds are never clamped.
func FeasibleInterval(cfg CycleConfig) (Interval, error) {
	if err := cfg.Validate(); err != nil {
		return Interval{}, err
	}

	lower := math.Max(cfg.GMin, cfg.Cycle-cfg.GMax)
	upper := math.Min(cfg.GMax, cfg.Cycle-cfg.GMin)
	if lower > upper {
		return Interval{}, &InfeasibleBoundsError{Lower: lower, Upper: upper}
	}
	return Interval{Lower: lower, Upper: upper}, nil
}

func (c CycleConfig) Validate() error {
	if !isFinite(c.Cycle) || c.Cycle <= 0 {
		return ErrNonPositiveCycle
	}
	if !isFinite(c.GMin) || !isFinite(c.GMax) || c.GMin < 0 || c.GMax < 0 {
		return ErrNegativeBound
	}
	if c.GMin > c.GMax {
		return ErrMinExceedsMax
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
