package signal

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNonPositiveCycle = fmt.Errorf("%w: cycle must be > 0", ErrInvalidInput)
	ErrNegativeBound    = fmt.Errorf("%w: g_min and g_max must be >= 0", ErrInvalidInput)
	ErrMinExceedsMax    = fmt.Errorf("%w: g_min must be <= g_max", ErrInvalidInput)
	ErrNegativeFlow     = fmt.Errorf("%w: flows must be finite and >= 0", ErrInvalidInput)

	ErrInfeasibleBounds = errors.New("infeasible bounds")
	ErrSolverFailure    = errors.New("solver failure")
)

// InfeasibleBoundsError reports the empty interval derived from the cycle and green bounds.
// InfeasibleBoundsError 描述由周期与绿灯上下限推导出的空区间。
type InfeasibleBoundsError struct {
	Lower float64
	Upper float64
}

func (e *InfeasibleBoundsError) Error() string {
	if e == nil {
		return ErrInfeasibleBounds.Error()
	}
	return fmt.Sprintf("infeasible bounds: [%g, %g]", e.Lower, e.Upper)
}

func (e *InfeasibleBoundsError) Is(target error) bool {
	return target == ErrInfeasibleBounds
}

// SolverError wraps a failure of the LP backend.
type SolverError struct {
	Err error
}

func (e *SolverError) Error() string {
	if e == nil || e.Err == nil {
		return ErrSolverFailure.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSolverFailure, e.Err)
}

func (e *SolverError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *SolverError) Is(target error) bool {
	return target == ErrSolverFailure
}
