package lp

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
)

func TestSimplexSolvesBoundedProgram(t *testing.T) {
	// minimize -x - y  s.t.  x + 2y <= 4, 0 <= x <= 3, y >= 0
	p := signal.LinearProgram{
		Objective:   []float64{-1, -1},
		Lower:       []float64{0, 0},
		Upper:       []float64{3, math.Inf(1)},
		Constraints: []signal.Constraint{{Coeffs: []float64{1, 2}, Kind: signal.LessEq, RHS: 4}},
	}

	x, err := Simplex{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, x, 2)
	assert.InDelta(t, 3.0, x[0], 1e-9)
	assert.InDelta(t, 0.5, x[1], 1e-9)
}

func TestSimplexHandlesShiftedLowerBoundsAndSurplus(t *testing.T) {
	// minimize x + 3y  s.t.  x + y >= 12, x in [2, 10], y in [1, 10]
	p := signal.LinearProgram{
		Objective:   []float64{1, 3},
		Lower:       []float64{2, 1},
		Upper:       []float64{10, 10},
		Constraints: []signal.Constraint{{Coeffs: []float64{1, 1}, Kind: signal.GreaterEq, RHS: 12}},
	}

	x, err := Simplex{}.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, x[0], 1e-9)
	assert.InDelta(t, 2.0, x[1], 1e-9)
}

func TestSimplexFixesUnconstrainedVariableAtLowerBound(t *testing.T) {
	p := signal.LinearProgram{
		Objective:   []float64{-1, 2},
		Lower:       []float64{0, 7},
		Upper:       []float64{5, math.Inf(1)},
		Constraints: nil,
	}

	x, err := Simplex{}.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, x[0], 1e-9)
	assert.Equal(t, 7.0, x[1])
}

func TestSimplexErrors(t *testing.T) {
	tests := []struct {
		name string
		p    signal.LinearProgram
		want error
	}{
		{
			name: "free variable",
			p: signal.LinearProgram{
				Names:     []string{"free"},
				Objective: []float64{1},
				Lower:     []float64{math.Inf(-1)},
				Upper:     []float64{math.Inf(1)},
			},
			want: ErrUnboundedVariable,
		},
		{
			name: "objective pulls unconstrained variable down",
			p: signal.LinearProgram{
				Objective: []float64{-1},
				Lower:     []float64{0},
				Upper:     []float64{math.Inf(1)},
			},
			want: ErrUnbounded,
		},
		{
			name: "contradictory empty row",
			p: signal.LinearProgram{
				Objective:   []float64{1},
				Lower:       []float64{0},
				Upper:       []float64{1},
				Constraints: []signal.Constraint{{Coeffs: []float64{0}, Kind: signal.GreaterEq, RHS: 1}},
			},
			want: ErrInfeasible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simplex{}.Solve(context.Background(), tt.p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSimplexReportsInfeasibleProgram(t *testing.T) {
	// x <= 1 by bound, x >= 2 by constraint
	p := signal.LinearProgram{
		Objective:   []float64{1},
		Lower:       []float64{0},
		Upper:       []float64{1},
		Constraints: []signal.Constraint{{Coeffs: []float64{1}, Kind: signal.GreaterEq, RHS: 2}},
	}

	_, err := Simplex{}.Solve(context.Background(), p)
	assert.Error(t, err)
}

func TestSimplexRejectsMalformedProgram(t *testing.T) {
	_, err := Simplex{}.Solve(context.Background(), signal.LinearProgram{
		Objective: []float64{1, 1},
		Lower:     []float64{0},
		Upper:     []float64{1, 1},
	})
	assert.Error(t, err)
}

func TestSimplexAllocatorMatchesClosedForm(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	lpAllocator := signal.NewAllocator(Simplex{})
	closed := signal.NewAllocator(nil)

	checked := 0
	for i := 0; i < 300; i++ {
		cycle := 60 + rng.Float64()*90
		gMin := rng.Float64() * cycle / 3
		gMax := gMin + rng.Float64()*(cycle-gMin)
		cfg := signal.CycleConfig{Cycle: cycle, GMin: gMin, GMax: gMax}
		interval, err := signal.FeasibleInterval(cfg)
		if err != nil {
			continue
		}

		flowA := rng.Float64() * 1800
		flowB := rng.Float64() * 1800
		if i%4 == 0 {
			flowB = flowA
		}

		got, err := lpAllocator.Allocate(context.Background(), flowA, flowB, cfg)
		require.NoError(t, err, "cfg=%+v flows=%v/%v", cfg, flowA, flowB)
		want, err := closed.Allocate(context.Background(), flowA, flowB, cfg)
		require.NoError(t, err)

		assert.InDelta(t, want.A, got.A, 1e-6, "cfg=%+v flows=%v/%v", cfg, flowA, flowB)
		assert.InDelta(t, cycle, got.A+got.B, 1e-6)
		assert.True(t, interval.Contains(got.A))
		if flowA == flowB {
			assert.InDelta(t, interval.Mid(), got.A, 1e-3)
		}
		checked++
	}
	assert.Greater(t, checked, 100)
}

func TestSimplexAllocatorReferenceScenarios(t *testing.T) {
	allocator := signal.NewAllocator(Simplex{})
	cfg := signal.CycleConfig{Cycle: 90, GMin: 25, GMax: 65}

	busy, err := allocator.Allocate(context.Background(), 300, 200, cfg)
	require.NoError(t, err)
	assert.Greater(t, busy.A, busy.B)
	assert.InDelta(t, 90.0, busy.A+busy.B, 1e-6)

	tie, err := allocator.Allocate(context.Background(), 250, 250, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 45.0, tie.A, 1e-3)
	assert.InDelta(t, 45.0, tie.B, 1e-3)

	wide := signal.CycleConfig{Cycle: 90, GMin: 10, GMax: 80}
	for _, tt := range []struct{ a, b, wantA float64 }{{200, 300, 10}, {300, 200, 80}, {250, 250, 45}} {
		split, err := allocator.Allocate(context.Background(), tt.a, tt.b, wide)
		require.NoError(t, err)
		assert.InDelta(t, tt.wantA, split.A, 1e-6)
	}
}

func TestSimplexSurfacesAsSolverFailure(t *testing.T) {
	failing := Chain(Simplex{}, func(signal.Solver) signal.Solver {
		return signal.SolverFunc(func(context.Context, signal.LinearProgram) ([]float64, error) {
			return nil, ErrInfeasible
		})
	})

	_, err := signal.NewAllocator(failing).Allocate(context.Background(), 1, 2, signal.CycleConfig{Cycle: 90, GMin: 25, GMax: 65})
	require.Error(t, err)
	assert.True(t, errors.Is(err, signal.ErrSolverFailure))
	assert.True(t, errors.Is(err, ErrInfeasible))
}
