package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an input path does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrEmptyInput is returned when an input has no columns.
	ErrEmptyInput = errors.New("empty input")

	// ErrParse is returned for malformed delimited content.
	ErrParse = errors.New("malformed input")
)

// LoadError wraps a failure to load one input file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
