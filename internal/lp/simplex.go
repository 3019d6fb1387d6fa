// Package lp solves the linear programs posed by the green allocator.
package lp

import (
	"context"
	"errors"
	"fmt"
	"math"

	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
	"gonum.org/v1/gonum/mat"

	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
)

var (
	ErrUnboundedVariable = errors.New("variable has no finite lower bound")
	ErrInfeasible        = errors.New("linear program is infeasible")
	ErrUnbounded         = errors.New("linear program is unbounded")
)

// Simplex solves signal.LinearProgram with gonum's simplex method.
//
// Variables are shifted to their lower bounds so they become non-negative, finite upper
// bounds turn into rows with a slack column, inequality rows get a slack or surplus column,
// and rows with a negative right-hand side are negated.
type Simplex struct {
	// Tolerance bounds the reduced costs at optimality; zero selects defaultTolerance.
	Tolerance float64
}

const defaultTolerance = 1e-10

type standardForm struct {
	c    []float64
	a    *mat.Dense
	b    []float64
	cols []int // original variable index per structural column
	rest []float64
}

func (s Simplex) Solve(ctx context.Context, p signal.LinearProgram) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sf, err := toStandardForm(p)
	if err != nil {
		return nil, err
	}

	x := sf.rest
	if len(sf.cols) == 0 {
		return x, nil
	}

	tol := s.Tolerance
	if tol <= 0 {
		tol = defaultTolerance
	}
	optX, err := simplex(sf, tol)
	if err != nil {
		return nil, err
	}
	for j, i := range sf.cols {
		x[i] = p.Lower[i] + optX[j]
	}
	return x, nil
}

func simplex(sf standardForm, tol float64) (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()

	_, x, err = gonumlp.Simplex(sf.c, sf.a, sf.b, tol, nil)
	switch {
	case errors.Is(err, gonumlp.ErrInfeasible):
		return nil, fmt.Errorf("%w: %v", ErrInfeasible, err)
	case errors.Is(err, gonumlp.ErrUnbounded):
		return nil, fmt.Errorf("%w: %v", ErrUnbounded, err)
	case err != nil:
		return nil, fmt.Errorf("simplex: %w", err)
	}
	return x, nil
}

func toStandardForm(p signal.LinearProgram) (standardForm, error) {
	n := p.NumVars()
	for i := 0; i < n; i++ {
		if math.IsInf(p.Lower[i], 0) {
			return standardForm{}, fmt.Errorf("%w: %s", ErrUnboundedVariable, varName(p, i))
		}
	}

	type row struct {
		coeffs []float64 // over all n variables, shifted space
		slack  float64   // +1 slack, -1 surplus, 0 none
		rhs    float64
	}

	rows := make([]row, 0, len(p.Constraints)+n)
	for ci, c := range p.Constraints {
		rhs := c.RHS
		zero := true
		for i, v := range c.Coeffs {
			rhs -= v * p.Lower[i]
			if v != 0 {
				zero = false
			}
		}
		if zero {
			if !trivialRowHolds(c.Kind, rhs) {
				return standardForm{}, fmt.Errorf("%w: constraint %d reads 0 %s %g", ErrInfeasible, ci, c.Kind, rhs)
			}
			continue
		}

		r := row{coeffs: append([]float64(nil), c.Coeffs...), rhs: rhs}
		switch c.Kind {
		case signal.LessEq:
			r.slack = 1
		case signal.GreaterEq:
			r.slack = -1
		}
		rows = append(rows, r)
	}

	for i := 0; i < n; i++ {
		if math.IsInf(p.Upper[i], 1) {
			continue
		}
		coeffs := make([]float64, n)
		coeffs[i] = 1
		rows = append(rows, row{coeffs: coeffs, slack: 1, rhs: p.Upper[i] - p.Lower[i]})
	}

	// Variables that appear in no row sit at their lower bound unless the objective
	// pulls them down without limit.
	rest := make([]float64, n)
	cols := make([]int, 0, n)
	for i := 0; i < n; i++ {
		used := false
		for _, r := range rows {
			if r.coeffs[i] != 0 {
				used = true
				break
			}
		}
		if used {
			cols = append(cols, i)
			continue
		}
		if p.Objective[i] < 0 {
			return standardForm{}, fmt.Errorf("%w: %s decreases without bound", ErrUnbounded, varName(p, i))
		}
		rest[i] = p.Lower[i]
	}

	if len(cols) == 0 {
		return standardForm{rest: rest}, nil
	}

	slacks := 0
	for _, r := range rows {
		if r.slack != 0 {
			slacks++
		}
	}

	width := len(cols) + slacks
	if len(rows) > width {
		return standardForm{}, fmt.Errorf("linear program has %d rows but only %d columns", len(rows), width)
	}

	a := mat.NewDense(len(rows), width, nil)
	b := make([]float64, len(rows))
	slackCol := len(cols)
	for ri, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for j, i := range cols {
			a.Set(ri, j, sign*r.coeffs[i])
		}
		if r.slack != 0 {
			a.Set(ri, slackCol, sign*r.slack)
			slackCol++
		}
		b[ri] = sign * r.rhs
	}

	c := make([]float64, width)
	for j, i := range cols {
		c[j] = p.Objective[i]
	}

	return standardForm{c: c, a: a, b: b, cols: cols, rest: rest}, nil
}

func trivialRowHolds(kind signal.ConstraintKind, rhs float64) bool {
	switch kind {
	case signal.LessEq:
		return rhs >= 0
	case signal.GreaterEq:
		return rhs <= 0
	default:
		return rhs == 0
	}
}

func varName(p signal.LinearProgram, i int) string {
	if i < len(p.Names) && p.Names[i] != "" {
		return p.Names[i]
	}
	return fmt.Sprintf("x%d", i)
}
