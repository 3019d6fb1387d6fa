package signal

import (
	"context"
	"fmt"
	"math"
)

// TieBreakWeight scales the midpoint-deviation term added to the red-time objective.
// It is far below any flow difference that matters and still separates exact ties.
const TieBreakWeight = 1e-6

// solutionTolerance is the absolute slack accepted on solver output, in seconds.
const solutionTolerance = 1e-6

const (
	varGreenA = iota
	varGreenB
	varTieBreak
)

// Allocator picks the green split minimizing flow-weighted red time.
// Allocator 选择使流量加权红灯时间最小的绿灯分配。
//
// With a nil Solver the closed-form rule is used: all spare green goes to the busier
// phase and ties split at the midpoint of the feasible interval. With a Solver the
// same problem is posed as a linear program with a midpoint tie-break term.
type Allocator struct {
	Solver Solver
}

func NewAllocator(solver Solver) *Allocator {
	return &Allocator{Solver: solver}
}

// Allocate returns the optimal split for flows under cfg. Flows are in veh/s: the
// tie threshold TieBreakWeight is absolute, so other units shift what counts as a tie.
func (a *Allocator) Allocate(ctx context.Context, flowA float64, flowB float64, cfg CycleConfig) (GreenSplit, error) {
	split, _, err := a.allocate(ctx, flowA, flowB, cfg)
	return split, err
}

// Optimize allocates green to two phases and evaluates the resulting delays.
func (a *Allocator) Optimize(ctx context.Context, phaseA SignalPhase, phaseB SignalPhase, cfg CycleConfig) (OptimizationResult, error) {
	if !(phaseA.Saturation > 0) || !(phaseB.Saturation > 0) || !isFinite(phaseA.Saturation) || !isFinite(phaseB.Saturation) {
		return OptimizationResult{}, fmt.Errorf("%w: saturation must be > 0", ErrInvalidInput)
	}

	split, interval, err := a.allocate(ctx, phaseA.Flow, phaseB.Flow, cfg)
	if err != nil {
		return OptimizationResult{}, err
	}

	delayA, delayB, weighted := Evaluate(phaseA, phaseB, split, cfg.Cycle)
	return OptimizationResult{
		Split:    split,
		Bounds:   interval,
		DelayA:   delayA,
		DelayB:   delayB,
		Weighted: weighted,
	}, nil
}

func (a *Allocator) allocate(ctx context.Context, flowA float64, flowB float64, cfg CycleConfig) (GreenSplit, Interval, error) {
	if err := cfg.Validate(); err != nil {
		return GreenSplit{}, Interval{}, err
	}
	if !isFinite(flowA) || !isFinite(flowB) || flowA < 0 || flowB < 0 {
		return GreenSplit{}, Interval{}, ErrNegativeFlow
	}
	interval, err := FeasibleInterval(cfg)
	if err != nil {
		return GreenSplit{}, Interval{}, err
	}

	if a == nil || a.Solver == nil {
		return ClosedForm(flowA, flowB, cfg.Cycle, interval), interval, nil
	}

	split, err := a.solve(ctx, flowA, flowB, cfg, interval)
	if err != nil {
		return GreenSplit{}, Interval{}, err
	}
	return split, interval, nil
}

// ClosedForm gives all spare green to the busier phase and splits ties at the midpoint.
// Flows within TieBreakWeight of each other (absolute, veh/s) count as a tie.
func ClosedForm(flowA float64, flowB float64, cycle float64, interval Interval) GreenSplit {
	gA := interval.Mid()
	switch {
	case flowA-flowB > TieBreakWeight:
		gA = interval.Upper
	case flowB-flowA > TieBreakWeight:
		gA = interval.Lower
	}
	return GreenSplit{A: gA, B: cycle - gA}
}

// BuildProgram poses the allocation as an LP over (gA, gB, t):
//
//	minimize   -flowA*gA - flowB*gB + TieBreakWeight*t
//	subject to gA + gB = cycle
//	           gA - t <= mid,  -gA - t <= -mid
//	           gA in [lower, upper], gB in [GMin, GMax], t >= 0
//
// The constant flowA*cycle + flowB*cycle of the red-time objective is dropped.
func BuildProgram(flowA float64, flowB float64, cfg CycleConfig, interval Interval) LinearProgram {
	mid := interval.Mid()
	return LinearProgram{
		Names:     []string{"g_a", "g_b", "t"},
		Objective: []float64{-flowA, -flowB, TieBreakWeight},
		Lower:     []float64{interval.Lower, cfg.GMin, 0},
		Upper:     []float64{interval.Upper, cfg.GMax, math.Inf(1)},
		Constraints: []Constraint{
			{Coeffs: []float64{1, 1, 0}, Kind: Equal, RHS: cfg.Cycle},
			{Coeffs: []float64{1, 0, -1}, Kind: LessEq, RHS: mid},
			{Coeffs: []float64{-1, 0, -1}, Kind: LessEq, RHS: -mid},
		},
	}
}

func (a *Allocator) solve(ctx context.Context, flowA float64, flowB float64, cfg CycleConfig, interval Interval) (GreenSplit, error) {
	if err := ctx.Err(); err != nil {
		return GreenSplit{}, err
	}

	x, err := a.Solver.Solve(ctx, BuildProgram(flowA, flowB, cfg, interval))
	if err != nil {
		return GreenSplit{}, &SolverError{Err: err}
	}
	if len(x) <= varTieBreak {
		return GreenSplit{}, &SolverError{Err: fmt.Errorf("solution has %d values, expected 3", len(x))}
	}

	gA, gB := x[varGreenA], x[varGreenB]
	if !isFinite(gA) || !isFinite(gB) ||
		math.Abs(gA+gB-cfg.Cycle) > solutionTolerance ||
		gA < interval.Lower-solutionTolerance || gA > interval.Upper+solutionTolerance ||
		gB < cfg.GMin-solutionTolerance || gB > cfg.GMax+solutionTolerance {
		return GreenSplit{}, &SolverError{Err: fmt.Errorf("solution g_a=%g g_b=%g violates constraints", gA, gB)}
	}

	gA = math.Min(math.Max(gA, interval.Lower), interval.Upper)
	return GreenSplit{A: gA, B: cfg.Cycle - gA}, nil
}
