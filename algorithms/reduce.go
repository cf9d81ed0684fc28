// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package algorithms

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/gomlx/reductions/devices"
	"github.com/gomlx/reductions/reducers"
)

// Reduce folds the elements fetch(start) .. fetch(end-1) into a single value
// with the given reducer, on the given device.
//
// An empty range reduces to the reducer's identity value; reducers without
// one fail with ErrEmptyRange. A range with start > end fails with
// ErrInvalidRange. A panic in fetch or combine fails the whole reduction
// with a *ComputeError and no partial results.
//
// Invalid arguments (a nil fetch, a zero reducer, a corrupted device) are
// caller bugs and panic with a stack trace.
func Reduce[T any](dev devices.Device, start, end int, fetch Fetch[T], reducer reducers.Reducer[T]) (T, error) {
	var zero T
	if fetch == nil {
		exceptions.Panicf("algorithms: Reduce given a nil fetch function")
	}
	if !reducer.IsValid() {
		exceptions.Panicf("algorithms: Reduce given a zero reducers.Reducer, build one with reducers.New or reducers.NewWithIdentity")
	}
	if start > end {
		return zero, errors.Wrapf(ErrInvalidRange, "reducing range [%d, %d)", start, end)
	}
	if start == end {
		if identity, ok := reducer.Identity(); ok {
			return identity, nil
		}
		return zero, errors.Wrapf(ErrEmptyRange, "reducing range [%d, %d)", start, end)
	}
	switch dev.Kind() {
	case devices.Sequential:
		return reduceSequential(start, end, fetch, reducer)
	case devices.Host:
		return reduceHost(dev, start, end, fetch, reducer)
	case devices.Accelerator:
		return reduceAccelerator(dev, start, end, fetch, reducer)
	}
	exceptions.Panicf("algorithms: unknown device kind %s", dev.Kind())
	return zero, nil
}

// ReduceWithArgument reduces like Reduce but also reports the index the
// winning value was fetched from, e.g. with reducers.MaxWithArgument it
// returns the largest element and its position.
//
// There is no identity for a (value, index) pair, so an empty range always
// fails with ErrEmptyRange. Otherwise errors are as in Reduce.
func ReduceWithArgument[T any](dev devices.Device, start, end int, fetch Fetch[T], argReducer reducers.ArgReducer[T]) (value T, index int, err error) {
	if fetch == nil {
		exceptions.Panicf("algorithms: ReduceWithArgument given a nil fetch function")
	}
	if !argReducer.IsValid() {
		exceptions.Panicf("algorithms: ReduceWithArgument given a zero reducers.ArgReducer, build one with reducers.NewArg")
	}
	winner, err := Reduce(dev, start, end,
		func(i int) reducers.ValueAndIndex[T] {
			return reducers.ValueAndIndex[T]{Value: fetch(i), Index: i}
		},
		reducers.New(argReducer.Pick))
	if err != nil {
		var zero T
		return zero, 0, err
	}
	return winner.Value, winner.Index, nil
}
