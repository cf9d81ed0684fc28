// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package algorithms

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors returned by reductions and scans. They are wrapped with
// call context, test for them with errors.Is.
var (
	// ErrInvalidRange is returned when start > end.
	ErrInvalidRange = errors.New("invalid range, start must be <= end")

	// ErrEmptyRange is returned when reducing an empty range with a reducer
	// that has no identity value: there is nothing to return.
	ErrEmptyRange = errors.New("reduction over an empty range requires a reducer with an identity value")

	// ErrIdentityRequired is returned by operations that only make sense with
	// an identity value, like ScanExclusive.
	ErrIdentityRequired = errors.New("operation requires a reducer with an identity value")
)

// ComputeError reports a panic raised by a fetch or combine callback. The
// whole reduction fails with it and no partial results are returned.
//
// Retrieve it with errors.As to access the panic value and the element index.
type ComputeError struct {
	// Recovered is the value the callback panicked with.
	Recovered any

	// Index is the element index being processed when the callback panicked,
	// or -1 if the fault was not under any element (e.g. while combining two
	// block partials).
	Index int
}

// Error implements the error interface.
func (e *ComputeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("reduction callback panicked processing index %d: %v", e.Index, e.Recovered)
	}
	return fmt.Sprintf("reduction callback panicked: %v", e.Recovered)
}

// Unwrap returns the recovered value if the callback panicked with an error,
// so errors.Is/As reach through the ComputeError.
func (e *ComputeError) Unwrap() error {
	if err, ok := e.Recovered.(error); ok {
		return err
	}
	return nil
}
