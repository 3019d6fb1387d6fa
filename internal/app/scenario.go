package app

import (
	"context"
	"fmt"

	"github.com/chenzhuyu2004/greensplit/internal/calculator"
	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
	"github.com/chenzhuyu2004/greensplit/internal/flows"
)

func (a *App) evaluateScenario(ctx context.Context, p Params, s flows.Scenario) (ScenarioResult, error) {
	result := ScenarioResult{
		Source:       s.Source,
		Scenario:     s.Name,
		FlowTotalVPH: s.TotalFlowVPH,
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if err := s.Validate(); err != nil {
		return result, fmt.Errorf("%w: %v", ErrInput, err)
	}

	result.FlowNSVPH = p.NSShare * s.TotalFlowVPH
	result.FlowEOVPH = p.EOShare * s.TotalFlowVPH

	ns := signal.SignalPhase{Name: "NS", Flow: vphToVehPerSecond(result.FlowNSVPH), Saturation: p.SaturationNS}
	eo := signal.SignalPhase{Name: "EO", Flow: vphToVehPerSecond(result.FlowEOVPH), Saturation: p.SaturationEO}

	result.Baseline = splitResult(ns, eo, signal.EqualSplit(p.Cycle), p.Cycle)

	result.StabilityMinNS = StabilityMinimum(result.FlowNSVPH, p.Cycle, p.XMax, p.SaturationNS)
	result.StabilityMinEO = StabilityMinimum(result.FlowEOVPH, p.Cycle, p.XMax, p.SaturationEO)

	cfg, fallback, err := effectiveBounds(p, result.StabilityMinNS, result.StabilityMinEO)
	if err != nil {
		return result, err
	}
	if fallback {
		result.BoundsFallback = true
		a.logger.WarnContext(ctx, "stability bounds infeasible, using global bounds",
			"scenario", s.Name,
			"stability_min_ns", result.StabilityMinNS,
			"stability_min_eo", result.StabilityMinEO)
	}

	opt, err := a.allocator().Optimize(ctx, ns, eo, cfg)
	if err != nil {
		return result, err
	}
	result.Bounds = opt.Bounds
	result.Optimized = SplitResult{
		GreenNS:  opt.Split.A,
		GreenEO:  opt.Split.B,
		DelayNS:  opt.DelayA,
		DelayEO:  opt.DelayB,
		Weighted: opt.Weighted,
	}
	result.ImprovementPct = improvement(result.Baseline.Weighted, result.Optimized.Weighted)

	return result, nil
}

func splitResult(ns signal.SignalPhase, eo signal.SignalPhase, split signal.GreenSplit, cycle float64) SplitResult {
	delayNS, delayEO, weighted := signal.Evaluate(ns, eo, split, cycle)
	return SplitResult{
		GreenNS:  split.A,
		GreenEO:  split.B,
		DelayNS:  delayNS,
		DelayEO:  delayEO,
		Weighted: weighted,
	}
}

// improvement returns the percentage reduction from baseline to optimised delay,
// or nil when either side is oversaturated or the baseline is not positive.
func improvement(baseline calculator.Delay, optimized calculator.Delay) *float64 {
	base, ok := baseline.Value()
	if !ok || base <= 0 {
		return nil
	}
	opt, ok := optimized.Value()
	if !ok {
		return nil
	}
	pct := 100 * (base - opt) / base
	return &pct
}
