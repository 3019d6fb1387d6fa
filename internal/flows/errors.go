package flows

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorKindNotFound    ErrorKind = "not_found"
	ErrorKindIO          ErrorKind = "io"
	ErrorKindSchema      ErrorKind = "schema"
	ErrorKindInvalidData ErrorKind = "invalid_data"
)

type DatasetError struct {
	Kind ErrorKind
	Path string
	Line int
	Err  error
}

func (e *DatasetError) Error() string {
	if e == nil {
		return "dataset error"
	}

	base := fmt.Sprintf("dataset %s error", e.Kind)
	if e.Path != "" {
		base = fmt.Sprintf("%s in %s", base, e.Path)
	}
	if e.Line > 0 {
		base = fmt.Sprintf("%s (line %d)", base, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", base, e.Err)
	}
	return base
}

func (e *DatasetError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewDatasetError(kind ErrorKind, path string, err error) error {
	if err == nil {
		return nil
	}
	return &DatasetError{
		Kind: kind,
		Path: path,
		Err:  err,
	}
}

func NewDatasetLineError(kind ErrorKind, path string, line int, err error) error {
	if err == nil {
		return nil
	}
	return &DatasetError{
		Kind: kind,
		Path: path,
		Line: line,
		Err:  err,
	}
}

func IsKind(err error, kind ErrorKind) bool {
	var datasetErr *DatasetError
	if errors.As(err, &datasetErr) {
		return datasetErr.Kind == kind
	}
	return false
}
