package signal

import (
	"context"
	"fmt"
	"math"
)

type ConstraintKind int

const (
	LessEq ConstraintKind = iota
	Equal
	GreaterEq
)

func (k ConstraintKind) String() string {
	switch k {
	case LessEq:
		return "<="
	case Equal:
		return "="
	case GreaterEq:
		return ">="
	default:
		return fmt.Sprintf("ConstraintKind(%d)", int(k))
	}
}

// Constraint is the row Coeffs·x (Kind) RHS.
type Constraint struct {
	Coeffs []float64
	Kind   ConstraintKind
	RHS    float64
}

// LinearProgram is "minimize Objective·x" over continuous variables bounded by
// Lower[i] <= x[i] <= Upper[i] and subject to Constraints. Upper may be +Inf.
// LinearProgram 描述带变量上下界与线性约束的最小化线性规划问题。
type LinearProgram struct {
	Names       []string
	Objective   []float64
	Lower       []float64
	Upper       []float64
	Constraints []Constraint
}

// Solver solves a LinearProgram to optimality or returns an error.
type Solver interface {
	Solve(ctx context.Context, p LinearProgram) ([]float64, error)
}

type SolverFunc func(ctx context.Context, p LinearProgram) ([]float64, error)

func (f SolverFunc) Solve(ctx context.Context, p LinearProgram) ([]float64, error) {
	return f(ctx, p)
}

func (p LinearProgram) NumVars() int {
	return len(p.Objective)
}

// Validate checks that every slice is sized consistently and the bounds are ordered.
func (p LinearProgram) Validate() error {
	n := p.NumVars()
	if n == 0 {
		return fmt.Errorf("linear program has no variables")
	}
	if len(p.Lower) != n || len(p.Upper) != n {
		return fmt.Errorf("bounds size mismatch: %d variables, %d lower, %d upper", n, len(p.Lower), len(p.Upper))
	}
	if len(p.Names) != 0 && len(p.Names) != n {
		return fmt.Errorf("names size mismatch: %d variables, %d names", n, len(p.Names))
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(p.Lower[i]) || math.IsNaN(p.Upper[i]) || p.Lower[i] > p.Upper[i] {
			return fmt.Errorf("variable %d has invalid bounds [%g, %g]", i, p.Lower[i], p.Upper[i])
		}
	}
	for i, c := range p.Constraints {
		if len(c.Coeffs) != n {
			return fmt.Errorf("constraint %d has %d coefficients, expected %d", i, len(c.Coeffs), n)
		}
	}
	return nil
}
