// Package errors attaches process exit codes to command failures.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ExitError pairs a failure with the exit code the CLI terminates with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s error (exit %d)", CodeName(e.Code), e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New wraps err with code. A nil err stays nil so call sites can wrap unconditionally.
func New(err error, code int) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

func Newf(code int, format string, args ...any) error {
	return &ExitError{
		Code: code,
		Err:  fmt.Errorf(format, args...),
	}
}

// GetCode returns the outermost exit code in err's chain: Success for nil, InputError when
// nothing in the chain carries a code.
func GetCode(err error) int {
	if err == nil {
		return Success
	}
	var exitErr *ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.Code
	}
	return InputError
}
