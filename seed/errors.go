package seed

import (
	"errors"
	"fmt"
)

var (
	ErrDateComponents = errors.New("expected day/month/year")
	ErrDateValue      = errors.New("not a calendar date")
	ErrValuation      = errors.New("not a number")
	ErrMissingColumns = errors.New("missing required columns")
)

// ParseError reports a source value that cannot be turned into a column.
// Any ParseError aborts the whole import.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StoreError wraps any failure of the persistence layer, connectivity
// included.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
