// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package vectors provides lightweight views over slices and the reductions
// commonly computed on them: sums, extrema and their positions, dot
// products, norms and running sums, each dispatched to a devices.Device.
//
// A View does not own its elements, it wraps the caller's slice without
// copying. Views are values and cheap to pass around; the element data is
// shared, so mutating the underlying slice while a reduction on it runs is a
// race.
package vectors

import (
	"github.com/gomlx/exceptions"

	"github.com/gomlx/reductions/algorithms"
)

// View is a read-only window over a slice.
//
// The zero value is an empty view.
type View[T any] struct {
	data []T
}

// FromSlice wraps data in a View, without copying: the view shares the
// slice's backing array.
func FromSlice[T any](data []T) View[T] {
	return View[T]{data: data}
}

// Len returns the number of elements in the view.
func (v View[T]) Len() int {
	return len(v.data)
}

// At returns the element at index i. It panics if i is out of range.
func (v View[T]) At(i int) T {
	if i < 0 || i >= len(v.data) {
		exceptions.Panicf("vectors: index %d out of range for view of length %d", i, len(v.data))
	}
	return v.data[i]
}

// Slice returns the sub-view of elements [from, to). It panics if the range
// is invalid.
func (v View[T]) Slice(from, to int) View[T] {
	if from < 0 || to > len(v.data) || from > to {
		exceptions.Panicf("vectors: invalid slice [%d, %d) of view of length %d", from, to, len(v.data))
	}
	return View[T]{data: v.data[from:to]}
}

// Fetch returns the fetch function reductions over the view use: a direct
// index into the backing slice. Indexes outside [0, Len()) panic.
func (v View[T]) Fetch() algorithms.Fetch[T] {
	data := v.data
	return func(i int) T { return data[i] }
}
