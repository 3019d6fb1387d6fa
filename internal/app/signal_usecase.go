package app

import (
	"context"
	"fmt"
	"math"

	"github.com/chenzhuyu2004/greensplit/internal/calculator"
	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
)

// Delay evaluates the uniform delay of a single phase.
func (a *App) Delay(in DelayInput) (DelayOutput, error) {
	flow := vphToVehPerSecond(in.FlowVPH)
	if err := calculator.ValidateDelayInputs(flow, in.Saturation, in.Green, in.Cycle); err != nil {
		return DelayOutput{}, fmt.Errorf("%w: %v", ErrInput, err)
	}

	out := DelayOutput{Delay: calculator.WebsterDelay(flow, in.Saturation, in.Green, in.Cycle)}
	if x := calculator.VolumeToCapacity(flow, in.Saturation, in.Green, in.Cycle); !math.IsInf(x, 0) {
		out.VolumeToCapacity = &x
	}
	return out, nil
}

// Bounds returns the feasible green interval for phase A.
func (a *App) Bounds(cfg signal.CycleConfig) (signal.Interval, error) {
	interval, err := signal.FeasibleInterval(cfg)
	if err != nil {
		return signal.Interval{}, classifyError(err)
	}
	return interval, nil
}

// Allocate optimises a single two-phase intersection and reports the equal-split baseline alongside.
func (a *App) Allocate(ctx context.Context, in AllocateInput) (AllocateOutput, error) {
	if in.SaturationA <= 0 || in.SaturationB <= 0 {
		return AllocateOutput{}, fmt.Errorf("%w: saturation flows must be > 0", ErrInput)
	}
	phaseA := signal.SignalPhase{Name: "A", Flow: vphToVehPerSecond(in.FlowAVPH), Saturation: in.SaturationA}
	phaseB := signal.SignalPhase{Name: "B", Flow: vphToVehPerSecond(in.FlowBVPH), Saturation: in.SaturationB}
	cfg := signal.CycleConfig{Cycle: in.Cycle, GMin: in.GMin, GMax: in.GMax}

	result, err := a.allocator().Optimize(ctx, phaseA, phaseB, cfg)
	if err != nil {
		return AllocateOutput{}, classifyError(err)
	}

	return AllocateOutput{
		Result:   result,
		Baseline: splitResult(phaseA, phaseB, signal.EqualSplit(in.Cycle), in.Cycle),
	}, nil
}
